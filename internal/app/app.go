package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/ussm/internal/accounts"
	"github.com/MrSnakeDoc/ussm/internal/catalog"
	"github.com/MrSnakeDoc/ussm/internal/config"
	"github.com/MrSnakeDoc/ussm/internal/httpserver"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/ussm/internal/logger"
	"github.com/MrSnakeDoc/ussm/internal/metrics"
	"github.com/MrSnakeDoc/ussm/internal/probe"
	"github.com/MrSnakeDoc/ussm/internal/redis"
	"github.com/MrSnakeDoc/ussm/internal/scheduler"
	"github.com/MrSnakeDoc/ussm/internal/sharing"
	"github.com/MrSnakeDoc/ussm/internal/sources/seed"
	"github.com/MrSnakeDoc/ussm/internal/store"
	"github.com/MrSnakeDoc/ussm/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/ussm/internal/store/redis"
	"github.com/MrSnakeDoc/ussm/internal/utils"
	"github.com/MrSnakeDoc/ussm/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	seeder      *scheduler.Seeder
	probe       *scheduler.HealthProbe
	expiry      *scheduler.MaintenanceExpiry
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		Pretty:     cfg.PrettyLog,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	st, redisClient, err := openStore(cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	writer := catalog.NewWriter(st, loggerClient, catalog.WithMetrics(m))
	acc := accounts.NewService(st, loggerClient)
	checker := probe.NewChecker(cfg.ProbeURL, cfg.ProbeTimeout)

	probeTrigger := make(chan struct{}, 1)
	expiryTrigger := make(chan struct{}, 1)

	hp := scheduler.NewHealthProbe(st, writer, checker, loggerClient, m,
		cfg.ProbeInterval, cfg.ProbeTarget, probeTrigger)
	expiry := scheduler.NewMaintenanceExpiry(st, writer, loggerClient, m,
		cfg.ExpiryInterval, expiryTrigger)
	seeder := scheduler.NewSeeder(st, writer, acc, seed.NewLoader(cfg.SeedFile), loggerClient)

	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		AllowedHosts:       cfg.AllowedHosts,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		TrustProxy:         cfg.TrustProxy,
		CORSOrigins:        cfg.CORSOrigins,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		LoginBurst:         cfg.LoginBurst,
		Store:              st,
		Catalog:            writer,
		Accounts:           acc,
		Sharing:            sharing.NewEngine(st, loggerClient),
		Checker:            checker,
		Validate:           handlers.NewValidator(),
		Metrics:            m,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		ProbeTrigger:       probeTrigger,
		ExpiryTrigger:      expiryTrigger,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		seeder:      seeder,
		probe:       hp,
		expiry:      expiry,
	}, nil
}

// openStore picks the persistence backend. Redis is dialled eagerly so a
// bad address fails startup instead of the first request.
func openStore(cfg *config.Config, log logger.Logger) (store.Store, *goredis.Client, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil, nil
	}

	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	client, err := redis.Connect(context.Background(), redis.Options{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Info("Redis initialized successfully")
	return redisstore.NewStore(client), client, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting ussm %s on %s", version.String(), a.cfg.ListenPort)
	defer func() { _ = a.logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.seeder.Seed(ctx); err != nil {
		a.logger.Warn("seeding skipped", logger.Error(err))
	}

	if err := a.probe.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health probe: %w", err)
	}
	a.logger.Info("health probe started",
		logger.Duration("interval", a.cfg.ProbeInterval),
		logger.String("target", a.cfg.ProbeTarget))

	if err := a.expiry.Start(ctx); err != nil {
		return fmt.Errorf("failed to start maintenance expiry: %w", err)
	}
	a.logger.Info("maintenance expiry started",
		logger.Duration("interval", a.cfg.ExpiryInterval))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("⏳ Shutting down gracefully...")

		a.probe.Stop()
		a.expiry.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Stop(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	})

	err := g.Wait()

	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, a.logger, "redis")
	}
	if err != nil {
		return err
	}
	a.logger.Info("✅ ussm stopped cleanly")
	return nil
}
