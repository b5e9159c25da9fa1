package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/ussm/internal/config"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/mw"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/routes"
	"github.com/MrSnakeDoc/ussm/internal/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http    *http.Server
	logger  logger.Logger
	started time.Time
}

// NewRouter builds the handler tree. Every route is served at the root and
// again under /api.
func NewRouter(d deps.Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	// The health check upstream is bounded at 5s; leave room above it
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(mw.Log(d.Logger, d.Metrics))
	r.Use(mw.CORS(d.CORSOrigins))

	// One limiter for both mounts so /login and /api/login share buckets
	if d.LoginLimiter == nil {
		d.LoginLimiter = mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.LoginBurst,
			RefillPerIPPerMin: d.LoginRatePerMinute,
			TrustProxy:        d.TrustProxy,
		})
	}

	routes.RegisterAll(r, d)
	r.Route("/api", func(api chi.Router) {
		routes.RegisterAll(api, d)
	})
	return r
}

// New builds the HTTP server (router, middlewares, route registration).
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           NewRouter(d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:    s,
		logger:  loggerClient,
		started: d.StartTime,
	}
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...",
		logger.Duration("uptime", time.Since(s.started).Round(time.Second)))
	return s.http.Shutdown(ctx)
}
