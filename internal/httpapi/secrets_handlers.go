package httpapi

import (
	"encoding/json"
	"net/http"

	"applicant-engine/internal/config"
	"applicant-engine/internal/secrets"
)

type SecretsHandler struct {
	Config func() config.Config
}

type setIMAPPasswordReq struct {
	Password string `json:"password"`
}

func (h SecretsHandler) SetIMAPPassword(w http.ResponseWriter, r *http.Request) {
	var req setIMAPPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	if err := secrets.SetIMAPPassword(secrets.IMAPKeyringAccount(h.Config()), req.Password); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_failed", "failed to store password: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) DeleteIMAPPassword(w http.ResponseWriter, r *http.Request) {
	if err := secrets.DeleteIMAPPassword(secrets.IMAPKeyringAccount(h.Config())); err != nil {
		WriteError(w, r, http.StatusNotFound, "keyring_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
