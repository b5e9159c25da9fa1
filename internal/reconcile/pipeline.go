package reconcile

import (
	"strings"

	"github.com/MrSnakeDoc/ussm/internal/domain"
)

// Predicate decides whether a service stays in the view.
type Predicate interface {
	Keep(s domain.Service) bool
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(domain.Service) bool

func (f PredicateFunc) Keep(s domain.Service) bool { return f(s) }

// Pipeline applies predicates left to right; a service must pass all of them.
type Pipeline []Predicate

// Then returns a new pipeline with p appended.
func (pl Pipeline) Then(p Predicate) Pipeline {
	out := make(Pipeline, len(pl), len(pl)+1)
	copy(out, pl)
	return append(out, p)
}

func (pl Pipeline) Keep(s domain.Service) bool {
	for _, p := range pl {
		if !p.Keep(s) {
			return false
		}
	}
	return true
}

// Apply keeps the services passing every predicate, in input order.
func (pl Pipeline) Apply(services []domain.Service) []domain.Service {
	out := make([]domain.Service, 0, len(services))
	for _, s := range services {
		if pl.Keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// NameContains matches a case-insensitive substring of the name.
// An empty needle matches everything.
func NameContains(needle string) Predicate {
	needle = strings.ToLower(strings.TrimSpace(needle))
	return PredicateFunc(func(s domain.Service) bool {
		return needle == "" || strings.Contains(strings.ToLower(s.Name), needle)
	})
}

// StatusIs matches an exact status. An empty status matches everything;
// legacy spellings are accepted.
func StatusIs(raw string) Predicate {
	raw = strings.TrimSpace(raw)
	want := domain.Status(raw)
	if st, ok := domain.ParseStatus(raw); ok {
		want = st
	}
	return PredicateFunc(func(s domain.Service) bool {
		return raw == "" || s.Status == want
	})
}

// TypeIs matches Internal or External. An empty type matches everything.
func TypeIs(raw string) Predicate {
	raw = strings.TrimSpace(raw)
	want := domain.ServiceType(raw)
	if t, ok := domain.ParseServiceType(raw); ok {
		want = t
	}
	return PredicateFunc(func(s domain.Service) bool {
		return raw == "" || s.Type == want
	})
}

// NameIn matches services whose name is in names.
func NameIn(names []string) Predicate {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return PredicateFunc(func(s domain.Service) bool {
		_, ok := set[s.Name]
		return ok
	})
}
