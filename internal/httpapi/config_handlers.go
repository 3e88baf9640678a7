package httpapi

import (
	"net/http"

	"applicant-engine/internal/config"
)

type ConfigHandler struct {
	Config func() config.Config
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Config())
}

func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	_, vr := config.NormalizeAndValidate(h.Config())
	WriteJSON(w, http.StatusOK, vr)
}
