package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/ussm/internal/logger"
	"github.com/MrSnakeDoc/ussm/internal/utils"
)

// AllowOnlyCIDRS rejects callers outside the allowed CIDRs/IPs with 403.
// An empty list disables filtering.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	set, invalid := utils.NewPrefixSet(allowed)
	for _, bad := range invalid {
		log.Warn("ignoring unparseable CIDR entry", logger.String("entry", bad))
	}
	if set.Empty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !set.Contains(ip) {
				log.Debug("caller rejected by CIDR filter",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
