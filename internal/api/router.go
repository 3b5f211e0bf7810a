package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/good-yellow-bee/marketwatch/internal/api/alerts"
	"github.com/good-yellow-bee/marketwatch/internal/api/history"
	"github.com/good-yellow-bee/marketwatch/internal/api/middleware"
	"github.com/good-yellow-bee/marketwatch/internal/api/settings"
	"github.com/good-yellow-bee/marketwatch/internal/api/state"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/alerts", func(r chi.Router) {
			alertHandler := alerts.NewHandler(s.store)

			r.Get("/", alertHandler.List)
			r.Post("/", alertHandler.Create)
			r.Delete("/", alertHandler.DeleteAll)
			r.Post("/acknowledge", alertHandler.AcknowledgeAll)

			r.Route("/presets", func(r chi.Router) {
				r.Get("/", alertHandler.ListPresets)
				r.Post("/{id}", alertHandler.CreateFromPreset)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", alertHandler.Get)
				r.Patch("/", alertHandler.Update)
				r.Delete("/", alertHandler.Delete)
				r.Post("/reset", alertHandler.Reset)
				r.Post("/acknowledge", alertHandler.Acknowledge)
			})
		})

		historyHandler := history.NewHandler(s.store)
		r.Get("/history", historyHandler.List)

		settingsHandler := settings.NewHandler(s.store)
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.Get)
			r.Patch("/", settingsHandler.Patch)
		})

		stateHandler := state.NewHandler(s.store)
		r.Route("/state", func(r chi.Router) {
			r.Get("/export", stateHandler.Export)
			r.Post("/import", stateHandler.Import)
		})
	})

	// Operational endpoints
	r.Get("/healthz", s.healthHandler.Health)
	r.Get("/readyz", s.healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
