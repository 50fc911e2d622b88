package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/health", s.handleHealth)
	r.Post("/attach", s.handleAttach)

	return r
}

// handleHealth reports hub status and the result of every dependency check.
// The response is 503 with status "degraded" when any check fails.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	code := http.StatusOK
	body := map[string]any{
		"status":  "ok",
		"version": s.version,
	}
	if s.status != nil {
		st := s.status(r.Context())
		body["bootstrap"] = st.Bootstrap
		body["paired"] = st.Paired
		body["dispatcher_running"] = st.Dispatcher
	}

	if len(s.checks) > 0 {
		checks := make(map[string]string, len(s.checks))
		for name, hc := range s.checks {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := hc.HealthCheck(ctx)
			cancel()
			if err != nil {
				checks[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		body["checks"] = checks
	}

	if code != http.StatusOK {
		body["status"] = "degraded"
	}
	writeJSON(w, code, body)
}
