package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"applicant-engine/internal/parser"
	"applicant-engine/internal/pipeline"
	"applicant-engine/internal/secrets"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// WriteErr maps engine errors onto status codes. fallback is used for
// anything unrecognised.
func WriteErr(w http.ResponseWriter, r *http.Request, fallback int, err error) {
	status, code := fallback, "internal_error"
	switch {
	case errors.Is(err, parser.ErrMissingSource):
		status, code = http.StatusUnprocessableEntity, "missing_source"
	case errors.Is(err, parser.ErrUnsupportedSource):
		status, code = http.StatusUnprocessableEntity, "unsupported_source"
	case errors.Is(err, pipeline.ErrMalformedMessage):
		status, code = http.StatusBadRequest, "malformed_message"
	case errors.Is(err, pipeline.ErrRunInProgress):
		status, code = http.StatusConflict, "already_running"
	case errors.Is(err, secrets.ErrNotFound):
		status, code = http.StatusNotFound, "secret_not_found"
	case fallback == http.StatusBadRequest:
		code = "bad_request"
	case fallback == http.StatusBadGateway:
		code = "upstream_failed"
	}
	WriteError(w, r, status, code, err.Error())
}
