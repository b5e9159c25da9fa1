// Package store defines the persistence contracts of the dashboard.
//
// Backends own atomicity per call: a write replaces whole records and a
// batch is applied all-or-nothing. There is no cross-call locking; the last
// writer on a service name wins.
package store

import (
	"context"

	"github.com/MrSnakeDoc/ussm/internal/domain"
)

// Catalog is the durable name -> Service mapping.
type Catalog interface {
	// ListServices returns every service in insertion order.
	ListServices(ctx context.Context) ([]domain.Service, error)
	// GetService returns domain.ErrNotFound when name is unknown.
	GetService(ctx context.Context, name string) (domain.Service, error)
	// UpsertServices writes every record of the batch or none of them.
	// Existing names keep their position, new names are appended.
	UpsertServices(ctx context.Context, services []domain.Service) error
	// DeleteService succeeds when name is already absent.
	DeleteService(ctx context.Context, name string) error
}

// Users stores accounts.
type Users interface {
	// CreateUser returns domain.ErrConflict when the username is taken.
	CreateUser(ctx context.Context, u domain.User) error
	GetUser(ctx context.Context, id string) (domain.User, error)
	GetUserByName(ctx context.Context, username string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) error
}

// Favourites stores (user, service name) pairs.
type Favourites interface {
	// AddFavourite returns domain.ErrConflict when the pair exists.
	AddFavourite(ctx context.Context, f domain.Favourite) error
	RemoveFavourite(ctx context.Context, f domain.Favourite) error
	// ListFavourites returns the user's favourites in insertion order.
	ListFavourites(ctx context.Context, userID string) ([]domain.Favourite, error)
}

// Layouts stores one dashboard layout per user.
type Layouts interface {
	// GetLayout returns an empty layout when none was saved.
	GetLayout(ctx context.Context, userID string) ([]string, error)
	SaveLayout(ctx context.Context, userID string, layout []string) error
	ResetLayout(ctx context.Context, userID string) error
}

// Shares stores shared boards keyed by (owner, recipient).
type Shares interface {
	// CreateShare returns domain.ErrConflict when the ordered pair exists.
	CreateShare(ctx context.Context, b domain.SharedBoard) error
	// ListSharedWith returns boards shared with recipient, oldest first.
	ListSharedWith(ctx context.Context, recipient string) ([]domain.SharedBoard, error)
	DeleteShare(ctx context.Context, owner, recipient string) error
}

// Store bundles every contract. Both backends implement it.
type Store interface {
	Catalog
	Users
	Favourites
	Layouts
	Shares

	// Ping reports backend liveness for readiness probes.
	Ping(ctx context.Context) error
}
