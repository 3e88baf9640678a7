package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still wrap it with middleware.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{DB: d.DB}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Applicants
	ah := ApplicantsHandler{DB: d.DB}
	mux.HandleFunc("/applicants", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ah.List,
	}))

	ph := ParseHandler{Options: d.Parser}
	mux.HandleFunc("/parse", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ph.Parse,
	}))

	// Pipeline
	rh := RunHandler{Runner: d.Runner, Background: d.RunContext}
	mux.HandleFunc("/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Run,
	}))
	mux.HandleFunc("/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Status,
	}))

	// Config (read-only; edit config.yml and restart)
	ch := ConfigHandler{Config: d.Config}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	sh := SecretsHandler{Config: d.Config}
	mux.HandleFunc("/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sh.SetIMAPPassword,
		http.MethodDelete: sh.DeleteIMAPPassword,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}

// Handler is NewMux wrapped in the standard middleware chain.
func Handler(d Deps) http.Handler {
	return Chain(NewMux(d), RequestID, Recover, AccessLog, Cors)
}
