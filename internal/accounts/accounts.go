// Package accounts registers users and checks their passwords.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/logger"
	"github.com/MrSnakeDoc/ussm/internal/store"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	store store.Users
	log   logger.Logger
	cost  int
}

func NewService(st store.Users, log logger.Logger) *Service {
	return &Service{store: st, log: log, cost: bcrypt.DefaultCost}
}

// WithCost returns a copy hashing with cost; tests lower it.
func (s *Service) WithCost(cost int) *Service {
	cp := *s
	cp.cost = cost
	return &cp
}

// Register creates a user with a fresh ID. Duplicate usernames are ErrConflict.
func (s *Service) Register(ctx context.Context, username, password string, role domain.Role) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, domain.Validationf("username and password are required")
	}
	if role == "" {
		role = domain.RoleUser
	}
	if _, ok := domain.ParseRole(string(role)); !ok {
		return domain.User{}, domain.Validationf("unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}

	s.log.Info("user registered",
		logger.String("user_id", u.ID),
		logger.String("role", string(u.Role)))
	return u, nil
}

// Authenticate returns the user when password matches.
func (s *Service) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	u, err := s.store.GetUserByName(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Session resolves a user ID to the identity carried into engine calls.
func (s *Service) Session(ctx context.Context, userID string) (domain.SessionContext, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return domain.SessionContext{}, err
	}
	return domain.SessionContext{UserID: u.ID, Role: u.Role}, nil
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.store.ListUsers(ctx)
}

// ChangeRole updates the only mutable user attribute.
func (s *Service) ChangeRole(ctx context.Context, userID string, role domain.Role) error {
	if _, ok := domain.ParseRole(string(role)); !ok {
		return domain.Validationf("unknown role %q", role)
	}
	return s.store.UpdateRole(ctx, userID, role)
}
