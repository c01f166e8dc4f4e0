package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"isyhub/internal/core"
	"isyhub/internal/server"
)

// New builds the hub's HTTP surface: health, metrics, dashboards, the
// plugin registry API, and each plugin's own routes under /api/<id>.
func New(registry *core.Registry, metrics *prometheus.Registry, plugins []core.Plugin) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)

	r.Get("/health", server.HealthHandler)
	r.Handle("/metrics", server.MetricsHandler(metrics))
	r.Handle("/dashboards/*", server.DashboardsHandler(core.DashboardsMap(plugins)))

	r.Route("/api", func(api chi.Router) {
		api.Get("/plugins", server.PluginListHandler(registry))
		api.Get("/plugins/{id}", server.PluginDescribeHandler(registry))

		for _, p := range plugins {
			registrant, ok := p.(core.HTTPRegistrant)
			if !ok {
				continue
			}
			api.Route("/"+p.ID(), registrant.RegisterRoutes)
		}
	})

	return r
}
