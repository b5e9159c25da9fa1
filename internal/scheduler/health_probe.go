package scheduler

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/ussm/internal/catalog"
	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/logger"
	"github.com/MrSnakeDoc/ussm/internal/metrics"
	"github.com/MrSnakeDoc/ussm/internal/store"
)

// StatusChecker reports the live status of the probed endpoint.
type StatusChecker interface {
	Check(ctx context.Context) domain.Status
}

// HealthProbe keeps one distinguished service in sync with an external check.
// At most one probe is in flight; ticks arriving while busy are dropped.
type HealthProbe struct {
	catalog  store.Catalog
	writer   *catalog.Writer
	checker  StatusChecker
	logger   logger.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	target   string
	now      func() time.Time

	busy atomic.Bool
	wg   sync.WaitGroup

	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
}

// NewHealthProbe creates a probe loop. target is matched as a
// case-insensitive substring of service names.
func NewHealthProbe(
	cat store.Catalog,
	writer *catalog.Writer,
	checker StatusChecker,
	log logger.Logger,
	m *metrics.Metrics,
	interval time.Duration,
	target string,
	manualTrigger chan struct{},
) *HealthProbe {
	return &HealthProbe{
		catalog:       cat,
		writer:        writer,
		checker:       checker,
		logger:        log,
		metrics:       m,
		interval:      interval,
		target:        strings.ToLower(target),
		now:           time.Now,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start probes once immediately, then on every tick and manual trigger.
func (hp *HealthProbe) Start(ctx context.Context) error {
	hp.dispatch(ctx)

	ticker := time.NewTicker(hp.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				hp.dispatch(ctx)
			case <-hp.manualTrigger:
				hp.logger.Info("manual health probe triggered")
				hp.dispatch(ctx)
			case <-hp.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the loop and waits for an in-flight probe.
func (hp *HealthProbe) Stop() {
	hp.stopOnce.Do(func() { close(hp.stopCh) })
	hp.wg.Wait()
}

func (hp *HealthProbe) dispatch(ctx context.Context) {
	if !hp.busy.CompareAndSwap(false, true) {
		hp.metrics.ProbeRun(metrics.ProbeSkipped)
		hp.logger.Debug("health probe still in flight, skipping tick")
		return
	}
	hp.wg.Add(1)
	go func() {
		defer hp.wg.Done()
		defer hp.busy.Store(false)
		if _, _, err := hp.probe(ctx); err != nil {
			hp.logger.Error("health probe failed", logger.Error(err))
		}
	}()
}

// Probe runs one check synchronously unless another is in flight.
// It returns the updated service, or ok=false when skipped or no service matches.
func (hp *HealthProbe) Probe(ctx context.Context) (svc domain.Service, ok bool, err error) {
	if !hp.busy.CompareAndSwap(false, true) {
		hp.metrics.ProbeRun(metrics.ProbeSkipped)
		return domain.Service{}, false, nil
	}
	defer hp.busy.Store(false)
	return hp.probe(ctx)
}

func (hp *HealthProbe) probe(ctx context.Context) (domain.Service, bool, error) {
	services, err := hp.catalog.ListServices(ctx)
	if err != nil {
		hp.metrics.ProbeRun(metrics.ProbeFailed)
		return domain.Service{}, false, err
	}

	target, found := FindTarget(services, hp.target)
	if !found {
		hp.metrics.ProbeRun(metrics.ProbeNoTarget)
		hp.logger.Debug("no service matches the probe target", logger.String("target", hp.target))
		return domain.Service{}, false, nil
	}

	status := hp.checker.Check(ctx)
	stamp := domain.Stamp(hp.now())

	updated, err := hp.writer.Upsert(ctx, catalog.Patch{
		Name:        target.Name,
		Type:        string(target.Type),
		Status:      string(status),
		LastUpdated: &stamp,
	})
	if err != nil {
		hp.metrics.ProbeRun(metrics.ProbeFailed)
		return domain.Service{}, false, err
	}

	if status == domain.StatusOperational {
		hp.metrics.ProbeRun(metrics.ProbeOperational)
	} else {
		hp.metrics.ProbeRun(metrics.ProbeDown)
	}
	if status != target.Status {
		hp.logger.Info("probed service changed status",
			logger.String("service", target.Name),
			logger.String("from", string(target.Status)),
			logger.String("to", string(status)))
	}
	return updated, true, nil
}

// FindTarget returns the first service whose name contains needle,
// ignoring case.
func FindTarget(services []domain.Service, needle string) (domain.Service, bool) {
	needle = strings.ToLower(needle)
	for _, s := range services {
		if strings.Contains(strings.ToLower(s.Name), needle) {
			return s, true
		}
	}
	return domain.Service{}, false
}
