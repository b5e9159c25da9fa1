// Package memory is an in-process store.
// It backs tests and single-node deployments with USSM_STORE=memory.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/MrSnakeDoc/ussm/internal/domain"
)

type shareKey struct {
	owner     string
	recipient string
}

// Store keeps every table in maps guarded by one RWMutex.
// Returned slices are copies; callers may keep or mutate them.
type Store struct {
	mu sync.RWMutex

	services []domain.Service // insertion order
	byName   map[string]int   // name -> position in services

	users       map[string]domain.User // id -> user
	userOrder   []string
	usernameIdx map[string]string // username -> id

	favourites map[string][]string // userId -> service names, insertion order
	layouts    map[string][]string
	shares     map[shareKey]domain.SharedBoard
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byName:      make(map[string]int),
		users:       make(map[string]domain.User),
		usernameIdx: make(map[string]string),
		favourites:  make(map[string][]string),
		layouts:     make(map[string][]string),
		shares:      make(map[shareKey]domain.SharedBoard),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// ─────────────────────────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────────────────────────

func (s *Store) ListServices(context.Context) ([]domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Service, len(s.services))
	copy(out, s.services)
	return out, nil
}

func (s *Store) GetService(_ context.Context, name string) (domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byName[name]
	if !ok {
		return domain.Service{}, fmt.Errorf("service %q: %w", name, domain.ErrNotFound)
	}
	return s.services[i], nil
}

func (s *Store) UpsertServices(_ context.Context, services []domain.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, svc := range services {
		if i, ok := s.byName[svc.Name]; ok {
			s.services[i] = svc
			continue
		}
		s.byName[svc.Name] = len(s.services)
		s.services = append(s.services, svc)
	}
	return nil
}

func (s *Store) DeleteService(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byName[name]
	if !ok {
		return nil
	}
	s.services = slices.Delete(s.services, i, i+1)
	delete(s.byName, name)
	for j := i; j < len(s.services); j++ {
		s.byName[s.services[j].Name] = j
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────────────────────────

func (s *Store) CreateUser(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usernameIdx[u.Username]; taken {
		return domain.Conflictf("username %q already exists", u.Username)
	}
	if _, taken := s.users[u.ID]; taken {
		return domain.Conflictf("user id %q already exists", u.ID)
	}
	s.users[u.ID] = u
	s.usernameIdx[u.Username] = u.ID
	s.userOrder = append(s.userOrder, u.ID)
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("user %q: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByName(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIdx[username]
	if !ok {
		return domain.User{}, fmt.Errorf("username %q: %w", username, domain.ErrNotFound)
	}
	return s.users[id], nil
}

func (s *Store) ListUsers(context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, s.users[id])
	}
	return out, nil
}

func (s *Store) UpdateRole(_ context.Context, id string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %q: %w", id, domain.ErrNotFound)
	}
	u.Role = role
	s.users[id] = u
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Favourites
// ─────────────────────────────────────────────────────────────────

func (s *Store) AddFavourite(_ context.Context, f domain.Favourite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := s.favourites[f.UserID]
	if slices.Contains(names, f.ServiceName) {
		return domain.Conflictf("%q is already a favourite of %q", f.ServiceName, f.UserID)
	}
	s.favourites[f.UserID] = append(names, f.ServiceName)
	return nil
}

func (s *Store) RemoveFavourite(_ context.Context, f domain.Favourite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := s.favourites[f.UserID]
	if i := slices.Index(names, f.ServiceName); i >= 0 {
		s.favourites[f.UserID] = slices.Delete(slices.Clone(names), i, i+1)
	}
	return nil
}

func (s *Store) ListFavourites(_ context.Context, userID string) ([]domain.Favourite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := s.favourites[userID]
	out := make([]domain.Favourite, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Favourite{UserID: userID, ServiceName: n})
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────
// Layouts
// ─────────────────────────────────────────────────────────────────

func (s *Store) GetLayout(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	layout, ok := s.layouts[userID]
	if !ok {
		return []string{}, nil
	}
	return slices.Clone(layout), nil
}

func (s *Store) SaveLayout(_ context.Context, userID string, layout []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if layout == nil {
		layout = []string{}
	}
	s.layouts[userID] = slices.Clone(layout)
	return nil
}

func (s *Store) ResetLayout(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.layouts, userID)
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Shares
// ─────────────────────────────────────────────────────────────────

func (s *Store) CreateShare(_ context.Context, b domain.SharedBoard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := shareKey{owner: b.OwnerUserID, recipient: b.SharedWithUserID}
	if _, exists := s.shares[k]; exists {
		return domain.Conflictf("board of %q is already shared with %q", b.OwnerUserID, b.SharedWithUserID)
	}
	b.Layout = slices.Clone(b.Layout)
	s.shares[k] = b
	return nil
}

func (s *Store) ListSharedWith(_ context.Context, recipient string) ([]domain.SharedBoard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.SharedBoard{}
	for k, b := range s.shares {
		if k.recipient == recipient {
			b.Layout = slices.Clone(b.Layout)
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OwnerUserID < out[j].OwnerUserID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteShare(_ context.Context, owner, recipient string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.shares, shareKey{owner: owner, recipient: recipient})
	return nil
}
