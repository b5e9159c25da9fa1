package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/mw"
)

func init() { Register("ops", registerOps) }

func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	restricted := r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	)
	restricted.Get("/readyz", handlers.Readyz(d))
	restricted.Post("/jobs/run", handlers.RunBackgroundJobs(d))
	if d.MetricsHandler != nil {
		restricted.Method("GET", "/metrics", d.MetricsHandler)
	}
}
