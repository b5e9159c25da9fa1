package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ussm/internal/logger"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Store string `json:"store"`
}

// Readyz answers 503 while the store does not respond to a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := d.Store.Ping(ctx); err != nil {
			d.Logger.Warn("readiness check failed", logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Store: "unreachable"})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Store: "ok"})
	}
}
