package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/ussm/internal/domain"
)

func catalogFixture() []domain.Service {
	return []domain.Service{
		{Name: "GoDaddy", Type: domain.TypeExternal, Status: domain.StatusOperational},
		{Name: "AWS", Type: domain.TypeExternal, Status: domain.StatusPartialOutage},
		{Name: "Internal CRM", Type: domain.TypeInternal, Status: domain.StatusDown},
		{Name: "Cloudflare", Type: domain.TypeExternal, Status: domain.StatusOperational},
		{Name: "Internal HR", Type: domain.TypeInternal, Status: domain.StatusPlannedMaintenance},
		{Name: "GitHub", Type: domain.TypeExternal, Status: domain.StatusUnderInvestigation},
	}
}

func names(services []domain.Service) []string {
	out := make([]string, len(services))
	for i, s := range services {
		out[i] = s.Name
	}
	return out
}

var (
	admin = domain.SessionContext{UserID: "a1", Role: domain.RoleAdmin}
	dev   = domain.SessionContext{UserID: "d1", Role: domain.RoleDeveloper}
	user  = domain.SessionContext{UserID: "u1", Role: domain.RoleUser}
)

func TestBaseSet(t *testing.T) {
	cat := catalogFixture()

	tests := []struct {
		name       string
		sess       domain.SessionContext
		favourites []string
		layout     []string
		showAll    bool
		want       []string
	}{
		{
			name: "admin without layout sees catalog",
			sess: admin,
			want: names(cat),
		},
		{
			name:   "developer layout keeps catalog order",
			sess:   dev,
			layout: []string{"GitHub", "AWS"},
			want:   []string{"AWS", "GitHub"},
		},
		{
			name:       "admin ignores favourites",
			sess:       admin,
			favourites: []string{"AWS"},
			want:       names(cat),
		},
		{
			name:       "user sees favourites",
			sess:       user,
			favourites: []string{"Cloudflare", "GoDaddy"},
			want:       []string{"GoDaddy", "Cloudflare"},
		},
		{
			name:       "user show all",
			sess:       user,
			favourites: []string{"Cloudflare"},
			showAll:    true,
			want:       names(cat),
		},
		{
			name: "user without favourites sees catalog",
			sess: user,
			want: names(cat),
		},
		{
			name:   "user ignores layout",
			sess:   user,
			layout: []string{"AWS"},
			want:   names(cat),
		},
		{
			name:       "dangling favourite dropped",
			sess:       user,
			favourites: []string{"Deleted Service", "AWS"},
			want:       []string{"AWS"},
		},
		{
			name:   "layout of only dangling names is empty",
			sess:   admin,
			layout: []string{"Gone"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BaseSet(cat, tt.sess, tt.favourites, tt.layout, tt.showAll)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestReconcileFilters(t *testing.T) {
	cat := catalogFixture()

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"no filters", Filters{}, names(cat)},
		{"search is case-insensitive", Filters{Search: "internal"}, []string{"Internal CRM", "Internal HR"}},
		{"status", Filters{Status: "Operational"}, []string{"GoDaddy", "Cloudflare"}},
		{"legacy status spelling", Filters{Status: "Partial Outage"}, []string{"AWS"}},
		{"type", Filters{Type: "internal"}, []string{"Internal CRM", "Internal HR"}},
		{"pie click", Filters{PieStatus: "Down"}, []string{"Internal CRM"}},
		{"all predicates AND", Filters{Search: "o", Status: "Operational", PieStatus: "Operational"}, []string{"GoDaddy", "Cloudflare"}},
		{"conflicting status and pie", Filters{Status: "Operational", PieStatus: "Down"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(cat, admin, nil, nil, tt.filters)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestReconcileEqualsCatalogIntersectPredicates(t *testing.T) {
	cat := catalogFixture()
	searches := []string{"", "a", "INTERNAL", "zzz"}
	statuses := []string{"", "Operational", "Down", "PlannedMaintenance"}

	for _, search := range searches {
		for _, status := range statuses {
			for _, pie := range statuses {
				f := Filters{Search: search, Status: status, PieStatus: pie}
				got := Reconcile(cat, admin, nil, nil, f)

				var want []string
				for _, s := range cat {
					if NameContains(search).Keep(s) && StatusIs(status).Keep(s) && StatusIs(pie).Keep(s) {
						want = append(want, s.Name)
					}
				}
				assert.ElementsMatch(t, want, names(got), "filters %+v", f)
				assertCatalogOrder(t, cat, got)
			}
		}
	}
}

func TestUserFavouritesOnlyIsSubset(t *testing.T) {
	cat := catalogFixture()
	favs := []string{"AWS", "Missing", "Internal HR"}

	got := Reconcile(cat, user, favs, nil, Filters{Search: "w"})

	idx := domain.IndexByName(cat)
	for _, s := range got {
		assert.Contains(t, favs, s.Name)
		_, inCatalog := idx[s.Name]
		assert.True(t, inCatalog)
	}
	assert.Equal(t, []string{"AWS"}, names(got))
}

func TestRunAppendsPredicates(t *testing.T) {
	cat := catalogFixture()
	external := PredicateFunc(func(s domain.Service) bool { return s.Type == domain.TypeExternal })

	got := Run(cat, admin, nil, nil, Filters{Status: "Operational"}, external)

	assert.Equal(t, []string{"GoDaddy", "Cloudflare"}, names(got))
}

func TestPipelineThenDoesNotAlias(t *testing.T) {
	base := make(Pipeline, 0, 4)
	base = append(base, NameContains("a"))

	a := base.Then(StatusIs("Down"))
	b := base.Then(StatusIs("Operational"))

	assert.Len(t, a, 2)
	assert.Len(t, b, 2)
	assert.True(t, a.Keep(domain.Service{Name: "a", Status: domain.StatusDown}))
	assert.False(t, b.Keep(domain.Service{Name: "a", Status: domain.StatusDown}))
}

func TestSummarizeSumsToCatalogSize(t *testing.T) {
	cat := append(catalogFixture(), domain.Service{Name: "Legacy", Status: "Retired"})

	s := Summarize(cat)

	sum := 0
	for _, n := range s.Counts {
		sum += n
	}
	assert.Equal(t, len(cat), s.Total)
	assert.Equal(t, len(cat), sum)
	assert.Equal(t, 2, s.Counts["Operational"])
	assert.Equal(t, 1, s.Counts[OtherBucket])
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0, s.Counts["Down"])
}

func assertCatalogOrder(t *testing.T, cat, got []domain.Service) {
	t.Helper()
	idx := domain.IndexByName(cat)
	for i := 1; i < len(got); i++ {
		assert.Less(t, idx[got[i-1].Name], idx[got[i].Name])
	}
}
