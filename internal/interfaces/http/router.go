// Package http builds the HTTP surface of the estimation service.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies required to
// construct the route tree.
type RouterConfig struct {
	EstimationHandler *handlers.EstimationHandler
	HealthHandler     *handlers.HealthHandler

	Logger  logging.Logger
	Metrics *prometheus.AppMetrics
	// MetricsHandler serves the Prometheus exposition endpoint.
	MetricsHandler http.Handler
}

// NewRouter constructs the complete HTTP route tree: global middleware,
// public probes, the metrics endpoint and the v1 API group.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, cfg.Metrics, middleware.DefaultLoggingConfig()))
	}

	r.Group(func(pub chi.Router) {
		if cfg.HealthHandler != nil {
			pub.Get("/healthz", cfg.HealthHandler.Liveness)
			pub.Get("/readyz", cfg.HealthHandler.Readiness)
		}
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerEstimationRoutes(api, cfg.EstimationHandler)
	})

	return r
}

// registerEstimationRoutes mounts estimation endpoints under /estimations.
func registerEstimationRoutes(r chi.Router, h *handlers.EstimationHandler) {
	if h == nil {
		return
	}
	r.Route("/estimations", func(er chi.Router) {
		er.Post("/", h.Run)
		er.Get("/{runID}", h.Get)
	})
}
