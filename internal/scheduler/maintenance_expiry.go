package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/ussm/internal/catalog"
	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/logger"
	"github.com/MrSnakeDoc/ussm/internal/metrics"
	"github.com/MrSnakeDoc/ussm/internal/reconcile"
	"github.com/MrSnakeDoc/ussm/internal/store"
)

// MaintenanceExpiry moves services out of planned maintenance once their
// window has ended.
type MaintenanceExpiry struct {
	catalog  store.Catalog
	writer   *catalog.Writer
	logger   logger.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once

	manualTrigger chan struct{}
}

// NewMaintenanceExpiry creates the sweep loop
func NewMaintenanceExpiry(
	cat store.Catalog,
	writer *catalog.Writer,
	log logger.Logger,
	m *metrics.Metrics,
	interval time.Duration,
	manualTrigger chan struct{},
) *MaintenanceExpiry {
	return &MaintenanceExpiry{
		catalog:  cat,
		writer:   writer,
		logger:   log,
		metrics:  m,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),

		manualTrigger: manualTrigger,
	}
}

// Start sweeps immediately, then on every tick and manual trigger
func (me *MaintenanceExpiry) Start(ctx context.Context) error {
	if _, err := me.Sweep(ctx); err != nil {
		me.logger.Warn("initial maintenance sweep failed", logger.Error(err))
	}

	ticker := time.NewTicker(me.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := me.Sweep(ctx); err != nil {
					me.logger.Error("maintenance sweep failed", logger.Error(err))
				}
			case <-me.manualTrigger:
				me.logger.Info("manual maintenance sweep triggered")
				if _, err := me.Sweep(ctx); err != nil {
					me.logger.Error("maintenance sweep failed", logger.Error(err))
				}
			case <-me.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweep loop
func (me *MaintenanceExpiry) Stop() {
	me.stopOnce.Do(func() { close(me.stopCh) })
}

// Sweep writes every due transition in one batch and returns how many
// services went back to Operational. Malformed end times are skipped.
func (me *MaintenanceExpiry) Sweep(ctx context.Context) (int, error) {
	services, err := me.catalog.ListServices(ctx)
	if err != nil {
		return 0, err
	}
	me.metrics.StatusCounts(reconcile.Summarize(services).Counts)

	now := me.now()
	stamp := domain.Stamp(now)

	var due []domain.Service
	for _, s := range services {
		if !domain.MaintenanceExpired(s, now) {
			if s.Status == domain.StatusPlannedMaintenance && s.MaintenanceEnd != "" {
				if _, ok := domain.ParseTimestamp(s.MaintenanceEnd); !ok {
					me.logger.Debug("skipping service with unreadable maintenance end",
						logger.String("service", s.Name),
						logger.String("maintenanceEnd", s.MaintenanceEnd))
				}
			}
			continue
		}
		s.Status = domain.StatusOperational
		s.MaintenanceStart = ""
		s.MaintenanceEnd = ""
		s.LastUpdated = stamp
		due = append(due, s)
	}

	if len(due) == 0 {
		me.logger.Debug("no maintenance window expired")
		return 0, nil
	}

	if err := me.writer.ApplyBatch(ctx, due); err != nil {
		return 0, err
	}

	me.metrics.ExpiryTransitions(len(due))
	for _, s := range due {
		me.logger.Info("maintenance window ended", logger.String("service", s.Name))
	}
	return len(due), nil
}
