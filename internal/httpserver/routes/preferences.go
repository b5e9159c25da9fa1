package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/handlers"
)

func init() { Register("preferences", registerPreferences) }

func registerPreferences(r chi.Router, d deps.Deps) {
	r.Get("/favourites/{userId}", handlers.ListFavourites(d))
	r.Post("/favourites", handlers.AddFavourite(d))
	r.Delete("/favourites", handlers.RemoveFavourite(d))

	r.Get("/dashboard/{userId}", handlers.GetDashboard(d))
	r.Post("/dashboard/{userId}", handlers.SaveDashboard(d))
	r.Delete("/dashboard/{userId}", handlers.ResetDashboard(d))

	r.Post("/share-board", handlers.ShareBoard(d))
	r.Delete("/share-board", handlers.RevokeShare(d))
	r.Get("/shared-board/{userId}", handlers.SharedBoards(d))
}
