package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/handlers"
)

func init() { Register("services", registerServices) }

func registerServices(r chi.Router, d deps.Deps) {
	r.Get("/services", handlers.ListServices(d))
	r.Post("/services", handlers.UpsertService(d))
	r.Get("/services/export", handlers.ExportServices(d))
	r.Delete("/services/{name}", handlers.DeleteService(d))
	r.Get("/check-google", handlers.CheckGoogle(d))
	r.Get("/view/{userId}", handlers.View(d))
}
