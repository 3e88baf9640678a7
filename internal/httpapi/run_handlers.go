package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"applicant-engine/internal/pipeline"
)

type RunHandler struct {
	Runner Runner
	// Background returns the context a triggered pass runs under; the
	// request context ends with the response.
	Background func() context.Context
}

func (h RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Runner.Status())
}

// Run starts a pass in the background and answers 202, or 409 when one is
// already running.
func (h RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Runner.Status().Running {
		WriteError(w, r, http.StatusConflict, "already_running", "a run is already in progress")
		return
	}

	ctx := context.Background()
	if h.Background != nil {
		ctx = h.Background()
	}
	reqID := RequestIDFrom(r.Context())

	go func() {
		_, err := h.Runner.Run(ctx)
		switch {
		case errors.Is(err, pipeline.ErrRunInProgress):
			zap.L().Info("run request coalesced", zap.String("request_id", reqID))
		case err != nil:
			zap.L().Error("run request failed", zap.String("request_id", reqID), zap.Error(err))
		}
	}()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "request_id": reqID})
}
