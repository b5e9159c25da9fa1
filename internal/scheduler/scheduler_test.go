package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/ussm/internal/accounts"
	"github.com/MrSnakeDoc/ussm/internal/catalog"
	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/logger"
	"github.com/MrSnakeDoc/ussm/internal/metrics"
	"github.com/MrSnakeDoc/ussm/internal/probe"
	"github.com/MrSnakeDoc/ussm/internal/sources/seed"
	"github.com/MrSnakeDoc/ussm/internal/store/memory"
)

// 2024-05-01 09:30:42 UTC is 15:00 IST
var clock = time.Date(2024, 5, 1, 9, 30, 42, 0, time.UTC)

func fixedClock() time.Time { return clock }

type stubChecker struct {
	status domain.Status
	calls  atomic.Int32
	block  chan struct{}
}

func (c *stubChecker) Check(ctx context.Context) domain.Status {
	c.calls.Add(1)
	if c.block != nil {
		<-c.block
	}
	return c.status
}

func setup(t *testing.T, services ...domain.Service) (*memory.Store, *catalog.Writer) {
	t.Helper()
	st := memory.New()
	require.NoError(t, st.UpsertServices(context.Background(), services))
	return st, catalog.NewWriter(st, logger.Nop(), catalog.WithClock(fixedClock))
}

func TestMaintenanceExpirySweep(t *testing.T) {
	st, w := setup(t,
		domain.Service{Name: "X", Type: domain.TypeInternal, Status: domain.StatusPlannedMaintenance,
			MaintenanceStart: "2019-12-31T22:00", MaintenanceEnd: "2020-01-01T00:00"},
		domain.Service{Name: "Future", Type: domain.TypeInternal, Status: domain.StatusPlannedMaintenance,
			MaintenanceEnd: "2099-01-01T00:00"},
		domain.Service{Name: "Garbled", Type: domain.TypeExternal, Status: domain.StatusPlannedMaintenance,
			MaintenanceEnd: "next tuesday"},
		domain.Service{Name: "Up", Type: domain.TypeExternal, Status: domain.StatusOperational},
	)
	me := NewMaintenanceExpiry(st, w, logger.Nop(), nil, time.Minute, nil)
	me.now = fixedClock
	ctx := context.Background()

	n, err := me.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	x, err := st.GetService(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOperational, x.Status)
	assert.Empty(t, x.MaintenanceStart)
	assert.Empty(t, x.MaintenanceEnd)
	assert.Equal(t, "2024-05-01 15:00", x.LastUpdated)

	future, err := st.GetService(ctx, "Future")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlannedMaintenance, future.Status)
	assert.Equal(t, "2099-01-01T00:00", future.MaintenanceEnd)

	garbled, err := st.GetService(ctx, "Garbled")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlannedMaintenance, garbled.Status)

	n, err = me.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMaintenanceExpiryBoundary(t *testing.T) {
	endIST := domain.Stamp(clock)
	st, w := setup(t, domain.Service{
		Name: "Edge", Type: domain.TypeInternal, Status: domain.StatusPlannedMaintenance,
		MaintenanceEnd: endIST,
	})
	me := NewMaintenanceExpiry(st, w, logger.Nop(), nil, time.Minute, nil)
	ctx := context.Background()

	// end == now is not yet expired
	me.now = func() time.Time { return clock.Truncate(time.Minute) }
	n, err := me.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	me.now = func() time.Time { return clock.Truncate(time.Minute).Add(time.Second) }
	n, err = me.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHealthProbeServerErrorMarksDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	st, w := setup(t,
		domain.Service{Name: "AWS", Type: domain.TypeExternal, Status: domain.StatusOperational},
		domain.Service{Name: "Google Cloud", Type: domain.TypeExternal, Status: domain.StatusOperational,
			URL: "https://cloud.google.com", LastUpdated: "2020-01-01 00:00"},
	)
	m := metrics.New(prometheus.NewRegistry())
	hp := NewHealthProbe(st, w, probe.NewChecker(srv.URL, time.Second), logger.Nop(), m, time.Minute, "google", nil)
	hp.now = fixedClock
	ctx := context.Background()

	svc, ok, err := hp.Probe(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Google Cloud", svc.Name)

	stored, err := st.GetService(ctx, "Google Cloud")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDown, stored.Status)
	assert.Equal(t, "2024-05-01 15:00", stored.LastUpdated)
	assert.Equal(t, "https://cloud.google.com", stored.URL)

	aws, err := st.GetService(ctx, "AWS")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOperational, aws.Status)
}

func TestHealthProbeOperational(t *testing.T) {
	st, w := setup(t, domain.Service{Name: "google workspace", Type: domain.TypeExternal, Status: domain.StatusDown})
	hp := NewHealthProbe(st, w, &stubChecker{status: domain.StatusOperational}, logger.Nop(), nil, time.Minute, "Google", nil)

	_, ok, err := hp.Probe(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	svc, err := st.GetService(context.Background(), "google workspace")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOperational, svc.Status)
}

func TestHealthProbeNoTarget(t *testing.T) {
	st, w := setup(t, domain.Service{Name: "AWS", Type: domain.TypeExternal, Status: domain.StatusOperational})
	checker := &stubChecker{status: domain.StatusDown}
	hp := NewHealthProbe(st, w, checker, logger.Nop(), nil, time.Minute, "google", nil)

	_, ok, err := hp.Probe(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, checker.calls.Load())
}

func TestHealthProbeSkipsWhileBusy(t *testing.T) {
	st, w := setup(t, domain.Service{Name: "Google", Type: domain.TypeExternal, Status: domain.StatusOperational})
	checker := &stubChecker{status: domain.StatusDown, block: make(chan struct{})}
	hp := NewHealthProbe(st, w, checker, logger.Nop(), nil, time.Hour, "google", nil)
	ctx := context.Background()

	hp.dispatch(ctx)
	require.Eventually(t, func() bool { return checker.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	hp.dispatch(ctx)
	hp.dispatch(ctx)
	_, ok, err := hp.Probe(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	close(checker.block)
	hp.Stop()
	assert.Equal(t, int32(1), checker.calls.Load())

	svc, err := st.GetService(ctx, "Google")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDown, svc.Status)
}

func TestHealthProbeManualTrigger(t *testing.T) {
	st, w := setup(t, domain.Service{Name: "Google", Type: domain.TypeExternal, Status: domain.StatusOperational})
	checker := &stubChecker{status: domain.StatusOperational}
	trigger := make(chan struct{}, 1)
	hp := NewHealthProbe(st, w, checker, logger.Nop(), nil, time.Hour, "google", trigger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, hp.Start(ctx))
	require.Eventually(t, func() bool { return checker.calls.Load() == 1 && !hp.busy.Load() }, time.Second, 5*time.Millisecond)

	trigger <- struct{}{}
	require.Eventually(t, func() bool { return checker.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	hp.Stop()
}

func TestFindTarget(t *testing.T) {
	services := []domain.Service{{Name: "AWS"}, {Name: "Google Cloud"}, {Name: "google mail"}}

	got, ok := FindTarget(services, "GOOGLE")
	require.True(t, ok)
	assert.Equal(t, "Google Cloud", got.Name)

	_, ok = FindTarget(services, "azure")
	assert.False(t, ok)
}

func TestSeederSeedsEmptyCatalogOnce(t *testing.T) {
	st, w := setup(t)
	acc := accounts.NewService(st, logger.Nop()).WithCost(bcrypt.MinCost)
	sd := NewSeeder(st, w, acc, seed.NewLoader(""), logger.Nop())
	ctx := context.Background()

	require.NoError(t, sd.Seed(ctx))
	first, err := st.ListServices(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	require.NoError(t, st.DeleteService(ctx, first[0].Name))
	require.NoError(t, sd.Seed(ctx))
	second, err := st.ListServices(ctx)
	require.NoError(t, err)
	assert.Len(t, second, len(first)-1)
}
