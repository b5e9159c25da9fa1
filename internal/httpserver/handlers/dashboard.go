package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
)

type layoutRequest struct {
	Layout []string `json:"layout" validate:"required"`
}

// GetDashboard returns the saved layout, [] when none.
func GetDashboard(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathParam(r, "userId")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		layout, err := d.Store.GetLayout(r.Context(), userID)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, layout)
	}
}

func SaveDashboard(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req layoutRequest
		if err := decode(r, d, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		userID, err := pathParam(r, "userId")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := d.Store.SaveLayout(r.Context(), userID, req.Layout); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeOK(w)
	}
}

// ResetDashboard drops the layout so the user sees the whole catalog.
func ResetDashboard(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathParam(r, "userId")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := d.Store.ResetLayout(r.Context(), userID); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeOK(w)
	}
}
