package api

import (
	"log/slog"
	"net/http"

	"github.com/bcnelson/winterface/internal/access"
	"github.com/bcnelson/winterface/internal/api/handler"
	"github.com/bcnelson/winterface/internal/api/middleware"
	"github.com/bcnelson/winterface/internal/metrics"
	"github.com/bcnelson/winterface/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new HTTP router with all routes configured. Every route
// sits behind the admission filter; gatherer may be nil to omit /metrics.
func NewRouter(
	settings *service.SettingsService,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
	m *metrics.Metrics,
) http.Handler {
	cfg := settings.Configuration()

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Admission(access.NewFilter(cfg), cfg, logger, m))
	r.Use(middleware.LimitBody(cfg))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":404,"message":"not found"}`, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":405,"message":"method not allowed"}`, http.StatusMethodNotAllowed)
	})

	// Health check (any admitted client)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if gatherer != nil {
		r.With(middleware.RequireFullAccess).
			Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)

		accessHandler := handler.NewAccessHandler()
		r.Get("/access", accessHandler.Get)

		// Settings (full access only)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireFullAccess)

			settingsHandler := handler.NewSettingsHandler(settings)
			r.Get("/settings", settingsHandler.List)
			r.Get("/settings/changes", settingsHandler.Changes)
			r.Get("/settings/{name}", settingsHandler.Get)
			r.Put("/settings/{name}", settingsHandler.Update)
			r.Delete("/settings/{name}", settingsHandler.Reset)
		})
	})

	return r
}
