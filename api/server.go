/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions. The
  wiring layer between URLs and handlers.

MIDDLEWARE STACK:
  1. RequestID:  unique ID per request for tracing
  2. Logger:     request logging
  3. Recoverer:  panic recovery (500 instead of crash)
  4. CORS:       cross-origin requests from the dashboard frontend

ROUTES:
  POST /api/compute    Run the KPI pipeline
  GET  /api/healthz    Liveness probe
  GET  /metrics        Prometheus metrics

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/productivity-engine/metrics"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/compute", h.Compute)
		r.Get("/healthz", h.Health)
	})

	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return r
}
