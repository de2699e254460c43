package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const healthCheckTimeout = 3 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/status", s.handleStatus)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Get("/stats", s.handleDeviceStats)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Post("/on", s.handleSwitchDevice(true))
				r.Post("/off", s.handleSwitchDevice(false))
			})
		})

		r.Get("/sensors/{kind}", s.handleReadSensor)
		r.Post("/command", s.handleCommand)

		r.Get("/automation", s.handleGetAutomation)
		r.Put("/automation", s.handleSetAutomation)

		r.Get("/journal", s.handleJournal)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth reports "ok" or, when an optional dependency fails its
// check, "degraded" with the failing components.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	components := make(map[string]string, len(s.checks))
	healthy := true
	for name, c := range s.checks {
		if err := c.HealthCheck(ctx); err != nil {
			components[name] = err.Error()
			healthy = false
			continue
		}
		components[name] = "ok"
	}

	state := "ok"
	if !healthy {
		state = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     state,
		"version":    s.version,
		"components": components,
	})
}
