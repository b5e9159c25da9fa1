package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store handles Redis operations for every dashboard table
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// ListServices returns the catalog in insertion order
func (s *Store) ListServices(ctx context.Context) ([]domain.Service, error) {
	names, err := s.client.ZRange(ctx, KeyServiceOrder, 0, -1).Result()
	if err != nil {
		return nil, domain.Persistence("list service names", err)
	}
	if len(names) == 0 {
		return []domain.Service{}, nil
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = ServiceKey(n)
	}
	raw, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, domain.Persistence("load services", err)
	}

	services := make([]domain.Service, 0, len(raw))
	for i, v := range raw {
		str, ok := v.(string)
		if !ok {
			// Order entry without a record: a delete raced this read
			continue
		}
		var svc domain.Service
		if err := json.Unmarshal([]byte(str), &svc); err != nil {
			return nil, domain.Persistence(fmt.Sprintf("decode service %q", names[i]), err)
		}
		services = append(services, svc)
	}
	return services, nil
}

// GetService retrieves a service by name
func (s *Store) GetService(ctx context.Context, name string) (domain.Service, error) {
	data, err := s.client.Get(ctx, ServiceKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Service{}, fmt.Errorf("service %q: %w", name, domain.ErrNotFound)
		}
		return domain.Service{}, domain.Persistence("get service", err)
	}

	var svc domain.Service
	if err := json.Unmarshal(data, &svc); err != nil {
		return domain.Service{}, domain.Persistence("decode service", err)
	}
	return svc, nil
}

// UpsertServices writes the whole batch in one MULTI/EXEC.
// New names get fresh order scores; existing names keep theirs (ZADD NX).
func (s *Store) UpsertServices(ctx context.Context, services []domain.Service) error {
	if len(services) == 0 {
		return nil
	}

	payloads := make([][]byte, len(services))
	for i, svc := range services {
		data, err := json.Marshal(svc)
		if err != nil {
			return domain.Persistence(fmt.Sprintf("encode service %q", svc.Name), err)
		}
		payloads[i] = data
	}

	top, err := s.client.IncrBy(ctx, KeyServiceSeq, int64(len(services))).Result()
	if err != nil {
		return domain.Persistence("reserve order scores", err)
	}
	base := top - int64(len(services))

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, svc := range services {
			pipe.Set(ctx, ServiceKey(svc.Name), payloads[i], 0)
			pipe.ZAddNX(ctx, KeyServiceOrder, redis.Z{Score: float64(base + int64(i) + 1), Member: svc.Name})
		}
		return nil
	})
	if err != nil {
		return domain.Persistence("save services", err)
	}
	return nil
}

// DeleteService removes a service; a missing name is not an error
func (s *Store) DeleteService(ctx context.Context, name string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, ServiceKey(name))
		pipe.ZRem(ctx, KeyServiceOrder, name)
		return nil
	})
	if err != nil {
		return domain.Persistence("delete service", err)
	}
	return nil
}
