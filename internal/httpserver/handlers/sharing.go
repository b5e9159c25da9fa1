package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
)

type shareRequest struct {
	OwnerUserID      string   `json:"ownerUserId" validate:"required"`
	SharedWithUserID string   `json:"sharedWithUserId" validate:"required"`
	Layout           []string `json:"layout" validate:"required"`
}

type revokeRequest struct {
	OwnerUserID      string `json:"ownerUserId" validate:"required"`
	SharedWithUserID string `json:"sharedWithUserId" validate:"required"`
}

// ShareBoard answers 409 when the owner already shares with that recipient.
func ShareBoard(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req shareRequest
		if err := decode(r, d, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		owner := domain.SessionContext{UserID: req.OwnerUserID}
		if _, err := d.Sharing.Create(r.Context(), owner, req.SharedWithUserID, req.Layout); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeOK(w)
	}
}

// SharedBoards lists boards shared with the user. With ?render=true each
// board carries its services resolved against the live catalog.
func SharedBoards(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathParam(r, "userId")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		sess := domain.SessionContext{UserID: userID}

		if r.URL.Query().Get("render") == "true" {
			rendered, err := d.Sharing.SharedWithMe(r.Context(), sess)
			if err != nil {
				writeError(w, r, d, err)
				return
			}
			writeJSON(w, http.StatusOK, rendered)
			return
		}

		boards, err := d.Sharing.ListSharedWithMe(r.Context(), sess)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, boards)
	}
}

func RevokeShare(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req revokeRequest
		if err := decode(r, d, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		owner := domain.SessionContext{UserID: req.OwnerUserID}
		if err := d.Sharing.Revoke(r.Context(), owner, req.SharedWithUserID); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeOK(w)
	}
}
