package client

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/logger"
	"github.com/MrSnakeDoc/ussm/internal/reconcile"
)

type fakeAPI struct {
	mu           sync.Mutex
	services     []domain.Service
	favourites   []string
	layout       []string
	serviceCalls int
	// servicesHook may block or replace the answer of one call.
	servicesHook func(call int) ([]domain.Service, bool)
	addErr       error
}

func (f *fakeAPI) Services(ctx context.Context) ([]domain.Service, error) {
	f.mu.Lock()
	f.serviceCalls++
	call := f.serviceCalls
	hook := f.servicesHook
	out := slices.Clone(f.services)
	f.mu.Unlock()

	if hook != nil {
		if v, ok := hook(call); ok {
			return v, nil
		}
	}
	return out, nil
}

func (f *fakeAPI) Favourites(ctx context.Context, userID string) ([]domain.Favourite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Favourite, len(f.favourites))
	for i, n := range f.favourites {
		out[i] = domain.Favourite{UserID: userID, ServiceName: n}
	}
	return out, nil
}

func (f *fakeAPI) Layout(ctx context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.layout), nil
}

func (f *fakeAPI) UpsertService(ctx context.Context, in ServiceInput) (domain.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	svc := domain.Service{Name: in.Name, Type: domain.ServiceType(in.Type), Status: domain.Status(in.Status)}
	for i := range f.services {
		if f.services[i].Name == in.Name {
			f.services[i] = svc
			return svc, nil
		}
	}
	f.services = append(f.services, svc)
	return svc, nil
}

func (f *fakeAPI) DeleteService(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.services = slices.DeleteFunc(f.services, func(s domain.Service) bool { return s.Name == name })
	return nil
}

func (f *fakeAPI) AddFavourite(ctx context.Context, userID, serviceName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.favourites = append(f.favourites, serviceName)
	return nil
}

func (f *fakeAPI) RemoveFavourite(ctx context.Context, userID, serviceName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favourites = slices.DeleteFunc(f.favourites, func(n string) bool { return n == serviceName })
	return nil
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.serviceCalls
}

type recorder struct {
	mu     sync.Mutex
	views  []View
	errors []error
}

func (r *recorder) render(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *recorder) notify(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}

func (r *recorder) last() (View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.views) == 0 {
		return View{}, false
	}
	return r.views[len(r.views)-1], true
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *recorder) errs() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.errors)
}

func serviceNames(v View) []string {
	out := make([]string, len(v.Services))
	for i, s := range v.Services {
		out[i] = s.Name
	}
	return out
}

func fixtureCatalog() []domain.Service {
	return []domain.Service{
		{Name: "AWS", Type: domain.TypeExternal, Status: domain.StatusOperational},
		{Name: "GitHub", Type: domain.TypeExternal, Status: domain.StatusDown},
		{Name: "Internal CRM", Type: domain.TypeInternal, Status: domain.StatusOperational},
	}
}

func start(t *testing.T, api API, sess domain.SessionContext, refresh time.Duration) (*Loop, *recorder) {
	t.Helper()
	rec := &recorder{}
	l := NewLoop(api, sess, logger.Nop(), Options{Refresh: refresh, Render: rec.render, Notify: rec.notify})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("poll loop did not stop")
		}
	})
	return l, rec
}

// inspect runs f on the loop goroutine and waits for it.
func inspect(l *Loop, f func()) {
	done := make(chan struct{})
	l.post(func(context.Context) {
		f()
		close(done)
	})
	<-done
}

func waitView(t *testing.T, rec *recorder, cond func(View) bool) View {
	t.Helper()
	var got View
	require.Eventually(t, func() bool {
		v, ok := rec.last()
		if ok && cond(v) {
			got = v
			return true
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

var user = domain.SessionContext{UserID: "u1", Role: domain.RoleUser}

func TestInitialLoadRendersFavourites(t *testing.T) {
	api := &fakeAPI{services: fixtureCatalog(), favourites: []string{"GitHub", "Removed"}}
	_, rec := start(t, api, user, time.Hour)

	v := waitView(t, rec, func(View) bool { return true })
	assert.Equal(t, []string{"GitHub"}, serviceNames(v))
	assert.Equal(t, 3, v.Summary.Total)
	assert.Equal(t, 2, v.Summary.Counts["Operational"])
	assert.Equal(t, uint64(1), v.Seq)
}

func TestFilterEventsRerenderImmediately(t *testing.T) {
	api := &fakeAPI{services: fixtureCatalog()}
	l, rec := start(t, api, user, time.Hour)
	waitView(t, rec, func(View) bool { return true })

	l.SetSearch("internal")
	v := waitView(t, rec, func(v View) bool { return v.Filters.Search == "internal" })
	assert.Equal(t, []string{"Internal CRM"}, serviceNames(v))
	assert.Equal(t, 3, v.Summary.Total)

	l.SetSearch("")
	l.ClickPie("Down")
	v = waitView(t, rec, func(v View) bool { return v.Filters.PieStatus == "Down" })
	assert.Equal(t, []string{"GitHub"}, serviceNames(v))

	l.ClearPie()
	v = waitView(t, rec, func(v View) bool { return v.Filters.PieStatus == "" })
	assert.Len(t, v.Services, 3)
	assert.Equal(t, 1, api.calls())
}

func TestNonChartEventsClearPieSelection(t *testing.T) {
	api := &fakeAPI{services: fixtureCatalog()}
	admin := domain.SessionContext{UserID: "a1", Role: domain.RoleAdmin}
	l, rec := start(t, api, admin, time.Hour)
	waitView(t, rec, func(View) bool { return true })

	tests := []struct {
		name  string
		event func()
	}{
		{"search", func() { l.SetSearch("") }},
		{"status", func() { l.SetStatus("") }},
		{"type", func() { l.SetType("") }},
		{"show all", func() { l.SetShowAll(false) }},
		{"favourite", func() { l.ToggleFavourite("AWS") }},
		{"save", func() { l.SaveService(ServiceInput{Name: "GitHub", Type: "External", Status: "Down"}) }},
		{"delete", func() { l.DeleteService("Nope") }},
		{"refresh", func() { l.Refresh() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l.ClickPie("Down")
			v := waitView(t, rec, func(v View) bool { return v.Filters.PieStatus == "Down" })
			require.Equal(t, []string{"GitHub"}, serviceNames(v))

			tt.event()
			var pie string
			require.Eventually(t, func() bool {
				inspect(l, func() { pie = l.filters.PieStatus })
				return pie == ""
			}, time.Second, 5*time.Millisecond)
			v = waitView(t, rec, func(v View) bool { return v.Filters.PieStatus == "" })
			assert.Len(t, v.Services, 3)
		})
	}
}

func TestShowAllOverridesFavourites(t *testing.T) {
	api := &fakeAPI{services: fixtureCatalog(), favourites: []string{"AWS"}}
	l, rec := start(t, api, user, time.Hour)
	waitView(t, rec, func(v View) bool { return len(v.Services) == 1 })

	l.SetShowAll(true)
	v := waitView(t, rec, func(v View) bool { return v.Filters.ShowAll })
	assert.Len(t, v.Services, 3)
}

func TestStaleCatalogIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	old := []domain.Service{{Name: "Old", Type: domain.TypeInternal, Status: domain.StatusDown}}
	api := &fakeAPI{services: fixtureCatalog()}
	api.servicesHook = func(call int) ([]domain.Service, bool) {
		if call == 1 {
			<-gate
			return old, true
		}
		return nil, false
	}

	l, rec := start(t, api, user, time.Hour)
	require.Eventually(t, func() bool { return api.calls() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		var loaded bool
		inspect(l, func() { loaded = l.prefs.loaded })
		return loaded
	}, time.Second, 5*time.Millisecond)

	l.Refresh()
	waitView(t, rec, func(v View) bool { return len(v.Services) == 3 })
	renders := rec.count()

	close(gate)
	require.Eventually(t, func() bool { return l.stale.Load() == 1 }, time.Second, 5*time.Millisecond)

	var current []domain.Service
	inspect(l, func() { current = l.catalog.get() })
	assert.Len(t, current, 3)
	assert.Equal(t, renders, rec.count())
}

func TestFailedMutationKeepsView(t *testing.T) {
	api := &fakeAPI{services: fixtureCatalog(), favourites: []string{"AWS"}, addErr: errors.New("boom")}
	l, rec := start(t, api, user, time.Hour)
	before := waitView(t, rec, func(View) bool { return true })

	l.ToggleFavourite("GitHub")
	require.Eventually(t, func() bool { return len(rec.errs()) == 1 }, time.Second, 5*time.Millisecond)
	assert.ErrorContains(t, rec.errs()[0], "add favourite")

	v, _ := rec.last()
	assert.Equal(t, before.Seq, v.Seq)
	assert.Equal(t, serviceNames(before), serviceNames(v))
}

func TestToggleFavouriteRefetchesPreferences(t *testing.T) {
	api := &fakeAPI{services: fixtureCatalog(), favourites: []string{"AWS"}}
	l, rec := start(t, api, user, time.Hour)
	waitView(t, rec, func(View) bool { return true })

	l.ToggleFavourite("GitHub")
	v := waitView(t, rec, func(v View) bool { return len(v.Favourites) == 2 })
	assert.Equal(t, []string{"AWS", "GitHub"}, serviceNames(v))

	l.ToggleFavourite("AWS")
	v = waitView(t, rec, func(v View) bool { return len(v.Favourites) == 1 })
	assert.Equal(t, []string{"GitHub"}, serviceNames(v))
}

func TestCatalogMutationRefetchesImmediately(t *testing.T) {
	admin := domain.SessionContext{UserID: "a1", Role: domain.RoleAdmin}
	api := &fakeAPI{services: fixtureCatalog()}
	l, rec := start(t, api, admin, time.Hour)
	waitView(t, rec, func(View) bool { return true })

	l.DeleteService("GitHub")
	v := waitView(t, rec, func(v View) bool { return len(v.Services) == 2 })
	assert.Equal(t, []string{"AWS", "Internal CRM"}, serviceNames(v))
	assert.Equal(t, 2, v.Summary.Total)

	l.SaveService(ServiceInput{Name: "Slack", Type: "External", Status: "Operational"})
	v = waitView(t, rec, func(v View) bool { return len(v.Services) == 3 })
	assert.Equal(t, "Slack", v.Services[2].Name)
	assert.Equal(t, 3, api.calls())
}

func TestPeriodicRefreshPicksUpServerChanges(t *testing.T) {
	api := &fakeAPI{services: fixtureCatalog()}
	_, rec := start(t, api, user, 20*time.Millisecond)
	waitView(t, rec, func(View) bool { return true })

	api.mu.Lock()
	api.services[1].Status = domain.StatusOperational
	api.mu.Unlock()

	v := waitView(t, rec, func(v View) bool { return v.Summary.Counts["Operational"] == 3 })
	assert.Equal(t, 0, v.Summary.Counts["Down"])
}

func TestRunTwiceFails(t *testing.T) {
	l, rec := start(t, &fakeAPI{}, user, time.Hour)
	waitView(t, rec, func(View) bool { return true })

	assert.Error(t, l.Run(context.Background()))
}

func TestStampedOffer(t *testing.T) {
	var s stamped[int]
	now := time.Now()

	assert.True(t, s.offer(2, 20, now))
	assert.False(t, s.offer(1, 10, now))
	assert.False(t, s.offer(2, 30, now))
	assert.True(t, s.offer(3, 30, now))
	assert.Equal(t, 30, s.get())
}

func TestInitialFiltersApplyToFirstView(t *testing.T) {
	rec := &recorder{}
	l := NewLoop(&fakeAPI{services: fixtureCatalog()}, user, logger.Nop(), Options{
		Refresh: time.Hour,
		Render:  rec.render,
		Filters: reconcile.Filters{Status: "Operational"},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	v := waitView(t, rec, func(View) bool { return true })
	assert.Equal(t, uint64(1), v.Seq)
	assert.Equal(t, []string{"AWS", "Internal CRM"}, serviceNames(v))
}
