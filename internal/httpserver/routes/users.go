package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/handlers"
)

func init() {
	Register("login", registerLogin)
	Register("users", registerAccounts)
}

func registerLogin(r chi.Router, d deps.Deps) {
	if d.LoginLimiter != nil {
		r = r.With(d.LoginLimiter)
	}
	r.Post("/login", handlers.Login(d))
}

func registerAccounts(r chi.Router, d deps.Deps) {
	r.Get("/users", handlers.ListUsers(d))
	r.Post("/users", handlers.CreateUser(d))
	r.Put("/users/{id}/role", handlers.UpdateRole(d))
}
