package httpapi

import (
	"io"
	"net/http"

	"applicant-engine/internal/parser"
	"applicant-engine/internal/pipeline"
)

const maxMessageBytes = 25 << 20

type ParseHandler struct {
	Options parser.Options
}

// Parse takes a raw RFC822 message as the request body and returns the
// extracted record without exporting it. Discarded messages yield
// {"record": null}.
func (h ParseHandler) Parse(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "read_failed", err.Error())
		return
	}
	if len(raw) == 0 {
		WriteError(w, r, http.StatusBadRequest, "empty_body", "request body must be a raw RFC822 message")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		id = RequestIDFrom(r.Context())
	}

	rec, err := pipeline.ParseRaw(r.Context(), h.Options, id, raw)
	if err != nil {
		WriteErr(w, r, http.StatusBadGateway, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"record":     rec,
		"exportable": rec != nil && rec.HasPosition(),
	})
}
