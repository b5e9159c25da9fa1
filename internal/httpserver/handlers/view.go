package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ussm/internal/reconcile"
)

type viewResponse struct {
	Services []domain.Service  `json:"services"`
	Summary  reconcile.Summary `json:"summary"`
	Filters  reconcile.Filters `json:"filters"`
}

// View returns the reconciled dashboard of a user. Catalog, favourites
// and layout are read before reconciling so the result reflects one pass.
func View(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := pathParam(r, "userId")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		sess, err := d.Accounts.Session(ctx, userID)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		q := r.URL.Query()
		showAll, _ := strconv.ParseBool(q.Get("showAll"))
		filters := reconcile.Filters{
			Search:    q.Get("search"),
			Status:    q.Get("status"),
			Type:      q.Get("type"),
			PieStatus: q.Get("pieStatus"),
			ShowAll:   showAll,
		}

		catalog, err := d.Store.ListServices(ctx)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		favs, err := d.Store.ListFavourites(ctx, sess.UserID)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		layout, err := d.Store.GetLayout(ctx, sess.UserID)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		writeJSON(w, http.StatusOK, viewResponse{
			Services: reconcile.Reconcile(catalog, sess, reconcile.FavouriteNames(favs), layout, filters),
			Summary:  reconcile.Summarize(catalog),
			Filters:  filters,
		})
	}
}
