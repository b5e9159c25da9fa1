package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/ussm/internal/accounts"
	"github.com/MrSnakeDoc/ussm/internal/catalog"
	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/logger"
	"github.com/MrSnakeDoc/ussm/internal/metrics"
	"github.com/MrSnakeDoc/ussm/internal/sharing"
	"github.com/MrSnakeDoc/ussm/internal/store"
)

// StatusChecker answers GET /check-google.
type StatusChecker interface {
	Check(ctx context.Context) domain.Status
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts []string // Host headers allowed to reach the operator endpoints
	AllowedCIDRS []string // IPs allowed to reach readyz, metrics and probe trigger
	TrustProxy   bool     // true if running behind a trusted reverse proxy
	CORSOrigins  []string // empty => any origin

	LoginRatePerMinute int
	LoginBurst         int
	LoginLimiter       func(http.Handler) http.Handler // built once by the router when nil

	Store    store.Store
	Catalog  *catalog.Writer
	Accounts *accounts.Service
	Sharing  *sharing.Engine
	Checker  StatusChecker
	Validate *validator.Validate

	Metrics        *metrics.Metrics
	MetricsHandler http.Handler // nil disables /metrics

	ProbeTrigger  chan struct{} // manual health probe run
	ExpiryTrigger chan struct{} // manual maintenance sweep
}

// Now returns TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
