package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"

	"applicant-engine/internal/store"
)

type ApplicantsHandler struct {
	DB *sql.DB
}

// List serves GET /applicants?source=TopCV&window=7d&limit=100.
func (h ApplicantsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		WriteError(w, r, http.StatusNotFound, "store_disabled", "the sqlite sink is not enabled")
		return
	}

	q := r.URL.Query()
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			WriteError(w, r, http.StatusBadRequest, "bad_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, err := store.ListApplicants(r.Context(), h.DB, store.ListApplicantsOpts{
		Source: q.Get("source"),
		Window: q.Get("window"),
		Limit:  limit,
	})
	if err != nil {
		WriteErr(w, r, http.StatusBadRequest, err)
		return
	}
	WriteJSON(w, http.StatusOK, recs)
}
