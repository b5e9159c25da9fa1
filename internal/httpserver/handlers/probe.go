package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ussm/internal/logger"
)

type checkResponse struct {
	Status domain.Status `json:"status"`
}

// CheckGoogle runs the external check and reports the mapped status.
// It never fails: any problem upstream reads as Down.
func CheckGoogle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, checkResponse{Status: d.Checker.Check(r.Context())})
	}
}

// RunBackgroundJobs asks the health probe and the maintenance sweep to run now.
func RunBackgroundJobs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		probe := trigger(d.ProbeTrigger)
		sweep := trigger(d.ExpiryTrigger)

		d.Logger.Info("manual background run requested",
			logger.String("remote_ip", r.RemoteAddr),
			logger.Bool("probe", probe),
			logger.Bool("sweep", sweep))

		if !probe && !sweep {
			writeJSON(w, http.StatusTooManyRequests, envelope{Success: false, Message: "A run is already pending, please wait"})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]bool{"success": true, "probe": probe, "sweep": sweep})
	}
}

func trigger(ch chan struct{}) bool {
	if ch == nil {
		return false
	}
	select {
	case ch <- struct{}{}:
		return true
	default:
		return false
	}
}
