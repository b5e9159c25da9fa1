package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/ussm/internal/domain"
)

// userRecord is the stored shape of a user; domain.User hides the hash from JSON
type userRecord struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	PasswordHash string `json:"passwordHash"`
}

func toRecord(u domain.User) userRecord {
	return userRecord{ID: u.ID, Username: u.Username, Role: string(u.Role), PasswordHash: u.PasswordHash}
}

func (r userRecord) user() domain.User {
	return domain.User{ID: r.ID, Username: r.Username, Role: domain.Role(r.Role), PasswordHash: r.PasswordHash}
}

// CreateUser claims the username first so two registrations cannot both win
func (s *Store) CreateUser(ctx context.Context, u domain.User) error {
	data, err := json.Marshal(toRecord(u))
	if err != nil {
		return domain.Persistence("encode user", err)
	}

	claimed, err := s.client.HSetNX(ctx, KeyUsersByName, u.Username, u.ID).Result()
	if err != nil {
		return domain.Persistence("claim username", err)
	}
	if !claimed {
		return domain.Conflictf("username %q already exists", u.Username)
	}

	seq, err := s.client.Incr(ctx, KeyUserSeq).Result()
	if err == nil {
		_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, UserKey(u.ID), data, 0)
			pipe.ZAdd(ctx, KeyUserOrder, redis.Z{Score: float64(seq), Member: u.ID})
			return nil
		})
	}
	if err != nil {
		// Release the claim so the username can be retried
		_ = s.client.HDel(ctx, KeyUsersByName, u.Username).Err()
		return domain.Persistence("save user", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	data, err := s.client.Get(ctx, UserKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.User{}, fmt.Errorf("user %q: %w", id, domain.ErrNotFound)
		}
		return domain.User{}, domain.Persistence("get user", err)
	}
	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.User{}, domain.Persistence("decode user", err)
	}
	return rec.user(), nil
}

// GetUserByName resolves the username index then loads the user
func (s *Store) GetUserByName(ctx context.Context, username string) (domain.User, error) {
	id, err := s.client.HGet(ctx, KeyUsersByName, username).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.User{}, fmt.Errorf("username %q: %w", username, domain.ErrNotFound)
		}
		return domain.User{}, domain.Persistence("lookup username", err)
	}
	return s.GetUser(ctx, id)
}

// ListUsers returns users in registration order
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	ids, err := s.client.ZRange(ctx, KeyUserOrder, 0, -1).Result()
	if err != nil {
		return nil, domain.Persistence("list user ids", err)
	}
	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// UpdateRole rewrites the user record with a new role
func (s *Store) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	u.Role = role
	data, err := json.Marshal(toRecord(u))
	if err != nil {
		return domain.Persistence("encode user", err)
	}
	if err := s.client.Set(ctx, UserKey(id), data, 0).Err(); err != nil {
		return domain.Persistence("save user", err)
	}
	return nil
}
