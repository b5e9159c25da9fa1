package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
)

type favouriteRequest struct {
	UserID      string `json:"userId" validate:"required"`
	ServiceName string `json:"serviceName" validate:"required"`
}

func ListFavourites(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathParam(r, "userId")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		favs, err := d.Store.ListFavourites(r.Context(), userID)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, favs)
	}
}

// AddFavourite answers 409 when the pair already exists.
func AddFavourite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req favouriteRequest
		if err := decode(r, d, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		err := d.Store.AddFavourite(r.Context(), domain.Favourite{UserID: req.UserID, ServiceName: req.ServiceName})
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeOK(w)
	}
}

func RemoveFavourite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req favouriteRequest
		if err := decode(r, d, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		err := d.Store.RemoveFavourite(r.Context(), domain.Favourite{UserID: req.UserID, ServiceName: req.ServiceName})
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeOK(w)
	}
}
