// Package reconcile computes the services a user sees.
//
// Everything here is a pure function of its inputs. Callers pass one
// consistent snapshot of catalog, favourites and layout and re-run the
// computation whenever any input changes.
package reconcile

import (
	"github.com/MrSnakeDoc/ussm/internal/domain"
)

// Filters are the UI controls narrowing the view.
type Filters struct {
	Search    string `json:"search"`
	Status    string `json:"status"`
	Type      string `json:"type"`
	PieStatus string `json:"pieStatus"` // last analytics chart click
	ShowAll   bool   `json:"showAll"`   // users only: ignore favourites
}

// Pipeline builds the filter predicates in their fixed order.
func (f Filters) Pipeline() Pipeline {
	return Pipeline{
		NameContains(f.Search),
		TypeIs(f.Type),
		StatusIs(f.Status),
		StatusIs(f.PieStatus),
	}
}

// BaseSet picks the starting services for the caller's role.
//
// Admins and developers see their layout when one is saved, otherwise the
// catalog. Users see their favourites unless they have none or asked to
// show everything. Names missing from the catalog are dropped and catalog
// order is kept.
func BaseSet(catalog []domain.Service, sess domain.SessionContext, favourites, layout []string, showAll bool) []domain.Service {
	var names []string
	switch {
	case sess.Role.CanEditCatalog():
		names = layout
	case !showAll:
		names = favourites
	}
	if len(names) == 0 {
		return Pipeline{}.Apply(catalog)
	}
	return Pipeline{NameIn(names)}.Apply(catalog)
}

// Reconcile returns the ordered list of services to display.
func Reconcile(catalog []domain.Service, sess domain.SessionContext, favourites, layout []string, f Filters) []domain.Service {
	return f.Pipeline().Apply(BaseSet(catalog, sess, favourites, layout, f.ShowAll))
}

// Run is Reconcile with extra predicates appended after the built-in ones.
func Run(catalog []domain.Service, sess domain.SessionContext, favourites, layout []string, f Filters, extra ...Predicate) []domain.Service {
	pl := f.Pipeline()
	for _, p := range extra {
		pl = pl.Then(p)
	}
	return pl.Apply(BaseSet(catalog, sess, favourites, layout, f.ShowAll))
}

// FavouriteNames flattens favourite records to service names.
func FavouriteNames(favs []domain.Favourite) []string {
	names := make([]string, len(favs))
	for i, f := range favs {
		names[i] = f.ServiceName
	}
	return names
}
