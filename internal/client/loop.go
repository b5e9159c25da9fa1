package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/logger"
	"github.com/MrSnakeDoc/ussm/internal/reconcile"
)

// DefaultRefresh is how often the catalog is re-fetched without user input.
const DefaultRefresh = 3 * time.Minute

// View is one rendered dashboard.
type View struct {
	Seq              uint64            `json:"seq"`
	Services         []domain.Service  `json:"services"`
	Summary          reconcile.Summary `json:"summary"`
	Filters          reconcile.Filters `json:"filters"`
	Favourites       []string          `json:"favourites"`
	CatalogFetchedAt time.Time         `json:"catalogFetchedAt"`
}

type Options struct {
	Refresh time.Duration
	// Render receives every new view on the loop goroutine.
	Render func(View)
	// Notify receives fetch and mutation failures. The last view stays.
	Notify func(error)
	Clock  func() time.Time
	// Filters are in effect from the first render.
	Filters reconcile.Filters
}

type prefs struct {
	favourites []string
	layout     []string
}

// Loop keeps the dashboard of one session current.
//
// A single goroutine owns every cached input. Fetches and mutations run on
// their own goroutines and post their outcome back; each fetch carries a
// sequence number and results older than the applied one are dropped.
type Loop struct {
	api     API
	sess    domain.SessionContext
	log     logger.Logger
	refresh time.Duration
	render  func(View)
	notify  func(error)
	now     func() time.Time

	events  chan func(context.Context)
	results chan func(context.Context)
	done    chan struct{}
	running atomic.Bool
	wg      sync.WaitGroup
	stale   atomic.Uint64

	// owned by the Run goroutine
	seq     uint64
	renders uint64
	catalog stamped[[]domain.Service]
	prefs   stamped[prefs]
	filters reconcile.Filters
}

func NewLoop(api API, sess domain.SessionContext, log logger.Logger, opts Options) *Loop {
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	if opts.Render == nil {
		opts.Render = func(View) {}
	}
	if opts.Notify == nil {
		opts.Notify = func(error) {}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Loop{
		api:     api,
		sess:    sess,
		log:     log.With(logger.String("user_id", sess.UserID)),
		refresh: opts.Refresh,
		render:  opts.Render,
		notify:  opts.Notify,
		now:     opts.Clock,
		events:  make(chan func(context.Context), 32),
		results: make(chan func(context.Context), 32),
		done:    make(chan struct{}),
		filters: opts.Filters,
	}
}

// Run loads the dashboard and keeps it fresh until ctx is cancelled.
// It returns after every fetch and mutation it started has finished.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("poll loop already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		l.wg.Wait()
		close(l.done)
	}()

	l.log.Info("poll loop started", logger.Duration("refresh", l.refresh))
	l.fetchCatalog(ctx)
	l.fetchPrefs(ctx)

	ticker := time.NewTicker(l.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Info("poll loop stopped", logger.Int64("renders", int64(l.renders)))
			return nil
		case fn := <-l.events:
			fn(ctx)
		case apply := <-l.results:
			apply(ctx)
		case <-ticker.C:
			l.fetchCatalog(ctx)
			if !l.prefs.loaded {
				l.fetchPrefs(ctx)
			}
		}
	}
}

// SetSearch filters by case-insensitive name substring.
func (l *Loop) SetSearch(s string) { l.setFilter(func(f *reconcile.Filters) { f.Search = s }) }

func (l *Loop) SetStatus(s string) { l.setFilter(func(f *reconcile.Filters) { f.Status = s }) }

func (l *Loop) SetType(s string) { l.setFilter(func(f *reconcile.Filters) { f.Type = s }) }

// SetShowAll makes a user see the whole catalog instead of favourites.
func (l *Loop) SetShowAll(on bool) { l.setFilter(func(f *reconcile.Filters) { f.ShowAll = on }) }

// ClickPie narrows the view to one status segment of the analytics chart.
// Every other event drops the selection again.
func (l *Loop) ClickPie(status string) {
	l.post(func(context.Context) {
		l.filters.PieStatus = status
		l.rerender()
	})
}

// ClearPie drops the chart selection.
func (l *Loop) ClearPie() { l.ClickPie("") }

// Refresh re-fetches the catalog and the session preferences now.
func (l *Loop) Refresh() {
	l.post(func(ctx context.Context) {
		l.leaveChart()
		l.fetchCatalog(ctx)
		l.fetchPrefs(ctx)
	})
}

// ToggleFavourite adds name to the favourites, or removes it when present.
func (l *Loop) ToggleFavourite(name string) {
	l.post(func(ctx context.Context) {
		l.leaveChart()
		if slices.Contains(l.prefs.get().favourites, name) {
			l.mutate(ctx, "remove favourite", false, func(ctx context.Context) error {
				return l.api.RemoveFavourite(ctx, l.sess.UserID, name)
			})
			return
		}
		l.mutate(ctx, "add favourite", false, func(ctx context.Context) error {
			return l.api.AddFavourite(ctx, l.sess.UserID, name)
		})
	})
}

// SaveService upserts a service and re-fetches the catalog on success.
func (l *Loop) SaveService(in ServiceInput) {
	l.post(func(ctx context.Context) {
		l.leaveChart()
		l.mutate(ctx, "save service", true, func(ctx context.Context) error {
			_, err := l.api.UpsertService(ctx, in)
			return err
		})
	})
}

// DeleteService removes a service and re-fetches the catalog on success.
func (l *Loop) DeleteService(name string) {
	l.post(func(ctx context.Context) {
		l.leaveChart()
		l.mutate(ctx, "delete service", true, func(ctx context.Context) error {
			return l.api.DeleteService(ctx, name)
		})
	})
}

func (l *Loop) setFilter(change func(*reconcile.Filters)) {
	l.post(func(context.Context) {
		l.filters.PieStatus = ""
		change(&l.filters)
		l.rerender()
	})
}

// leaveChart drops a chart selection ahead of an event that is not a
// chart click.
func (l *Loop) leaveChart() {
	if l.filters.PieStatus == "" {
		return
	}
	l.filters.PieStatus = ""
	l.rerender()
}

// post hands fn to the loop goroutine. It is a no-op once Run has returned.
func (l *Loop) post(fn func(context.Context)) {
	select {
	case l.events <- fn:
	case <-l.done:
	}
}

// spawn runs work off the loop and posts its continuation back.
func (l *Loop) spawn(ctx context.Context, work func(ctx context.Context) func(context.Context)) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		apply := work(ctx)
		select {
		case l.results <- apply:
		case <-ctx.Done():
		}
	}()
}

func (l *Loop) next() uint64 {
	l.seq++
	return l.seq
}

func (l *Loop) fetchCatalog(ctx context.Context) {
	seq := l.next()
	l.spawn(ctx, func(ctx context.Context) func(context.Context) {
		services, err := l.api.Services(ctx)
		at := l.now()
		return func(context.Context) {
			if l.catalog.loaded && seq <= l.catalog.seq {
				l.discard("catalog", seq)
				return
			}
			if err != nil {
				l.fail("refresh catalog", err)
				return
			}
			if services == nil {
				services = []domain.Service{}
			}
			if !l.catalog.offer(seq, services, at) {
				l.discard("catalog", seq)
				return
			}
			l.rerender()
		}
	})
}

// fetchPrefs reads favourites and layout together so both belong to one
// snapshot of the session.
func (l *Loop) fetchPrefs(ctx context.Context) {
	seq := l.next()
	l.spawn(ctx, func(ctx context.Context) func(context.Context) {
		var p prefs
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			favs, err := l.api.Favourites(gctx, l.sess.UserID)
			p.favourites = reconcile.FavouriteNames(favs)
			return err
		})
		g.Go(func() error {
			layout, err := l.api.Layout(gctx, l.sess.UserID)
			p.layout = layout
			return err
		})
		err := g.Wait()
		at := l.now()

		return func(context.Context) {
			if l.prefs.loaded && seq <= l.prefs.seq {
				l.discard("preferences", seq)
				return
			}
			if err != nil {
				l.fail("refresh preferences", err)
				return
			}
			if !l.prefs.offer(seq, p, at) {
				l.discard("preferences", seq)
				return
			}
			l.rerender()
		}
	})
}

// mutate runs a write and refreshes whatever it touched. A failure is
// reported and the current view is kept as is.
func (l *Loop) mutate(ctx context.Context, what string, touchesCatalog bool, write func(context.Context) error) {
	l.spawn(ctx, func(ctx context.Context) func(context.Context) {
		err := write(ctx)
		return func(ctx context.Context) {
			if err != nil {
				l.fail(what, err)
				return
			}
			l.log.Debug("mutation applied", logger.String("op", what))
			if touchesCatalog {
				l.fetchCatalog(ctx)
				return
			}
			l.fetchPrefs(ctx)
		}
	})
}

func (l *Loop) discard(what string, seq uint64) {
	l.stale.Add(1)
	l.log.Debug("stale result discarded",
		logger.String("source", what),
		logger.Int64("seq", int64(seq)))
}

func (l *Loop) fail(what string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	l.log.Warn("dashboard update failed", logger.String("op", what), logger.Error(err))
	l.notify(fmt.Errorf("%s: %w", what, err))
}

// rerender reconciles the cached inputs and emits a view. Nothing is
// rendered until both the catalog and the preferences have loaded once.
func (l *Loop) rerender() {
	if !l.catalog.loaded || !l.prefs.loaded {
		return
	}
	catalog := l.catalog.get()
	p := l.prefs.get()

	l.renders++
	l.render(View{
		Seq:              l.renders,
		Services:         reconcile.Reconcile(catalog, l.sess, p.favourites, p.layout, l.filters),
		Summary:          reconcile.Summarize(catalog),
		Filters:          l.filters,
		Favourites:       slices.Clone(p.favourites),
		CatalogFetchedAt: l.catalog.fetchedAt,
	})
}
