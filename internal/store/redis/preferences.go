package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/ussm/internal/domain"
)

// AddFavourite relies on ZADD NX: zero members added means the pair exists
func (s *Store) AddFavourite(ctx context.Context, f domain.Favourite) error {
	seq, err := s.client.Incr(ctx, KeyFavouriteSeq).Result()
	if err != nil {
		return domain.Persistence("reserve favourite score", err)
	}
	added, err := s.client.ZAddNX(ctx, FavouritesKey(f.UserID), redis.Z{Score: float64(seq), Member: f.ServiceName}).Result()
	if err != nil {
		return domain.Persistence("add favourite", err)
	}
	if added == 0 {
		return domain.Conflictf("%q is already a favourite of %q", f.ServiceName, f.UserID)
	}
	return nil
}

// RemoveFavourite is idempotent
func (s *Store) RemoveFavourite(ctx context.Context, f domain.Favourite) error {
	if err := s.client.ZRem(ctx, FavouritesKey(f.UserID), f.ServiceName).Err(); err != nil {
		return domain.Persistence("remove favourite", err)
	}
	return nil
}

// ListFavourites returns favourites in the order they were added
func (s *Store) ListFavourites(ctx context.Context, userID string) ([]domain.Favourite, error) {
	names, err := s.client.ZRange(ctx, FavouritesKey(userID), 0, -1).Result()
	if err != nil {
		return nil, domain.Persistence("list favourites", err)
	}
	out := make([]domain.Favourite, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Favourite{UserID: userID, ServiceName: n})
	}
	return out, nil
}

// GetLayout returns the stored layout blob, or an empty layout
func (s *Store) GetLayout(ctx context.Context, userID string) ([]string, error) {
	data, err := s.client.Get(ctx, LayoutKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, domain.Persistence("get layout", err)
	}
	var layout []string
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, domain.Persistence("decode layout", err)
	}
	return layout, nil
}

// SaveLayout overwrites the user's layout
func (s *Store) SaveLayout(ctx context.Context, userID string, layout []string) error {
	if layout == nil {
		layout = []string{}
	}
	data, err := json.Marshal(layout)
	if err != nil {
		return domain.Persistence("encode layout", err)
	}
	if err := s.client.Set(ctx, LayoutKey(userID), data, 0).Err(); err != nil {
		return domain.Persistence("save layout", err)
	}
	return nil
}

// ResetLayout drops the layout so the user sees everything again
func (s *Store) ResetLayout(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, LayoutKey(userID)).Err(); err != nil {
		return domain.Persistence("reset layout", err)
	}
	return nil
}

// CreateShare uses HSETNX on the recipient hash so a pair is shared at most once
func (s *Store) CreateShare(ctx context.Context, b domain.SharedBoard) error {
	data, err := json.Marshal(b)
	if err != nil {
		return domain.Persistence("encode shared board", err)
	}
	created, err := s.client.HSetNX(ctx, SharesToKey(b.SharedWithUserID), b.OwnerUserID, data).Result()
	if err != nil {
		return domain.Persistence("create share", err)
	}
	if !created {
		return domain.Conflictf("board of %q is already shared with %q", b.OwnerUserID, b.SharedWithUserID)
	}
	return nil
}

// ListSharedWith returns every board shared with recipient, oldest first
func (s *Store) ListSharedWith(ctx context.Context, recipient string) ([]domain.SharedBoard, error) {
	raw, err := s.client.HGetAll(ctx, SharesToKey(recipient)).Result()
	if err != nil {
		return nil, domain.Persistence("list shares", err)
	}
	boards := make([]domain.SharedBoard, 0, len(raw))
	for owner, v := range raw {
		var b domain.SharedBoard
		if err := json.Unmarshal([]byte(v), &b); err != nil {
			return nil, domain.Persistence(fmt.Sprintf("decode share from %q", owner), err)
		}
		boards = append(boards, b)
	}
	sort.SliceStable(boards, func(i, j int) bool {
		if boards[i].CreatedAt.Equal(boards[j].CreatedAt) {
			return boards[i].OwnerUserID < boards[j].OwnerUserID
		}
		return boards[i].CreatedAt.Before(boards[j].CreatedAt)
	})
	return boards, nil
}

// DeleteShare revokes a share; revoking a missing share succeeds
func (s *Store) DeleteShare(ctx context.Context, owner, recipient string) error {
	if err := s.client.HDel(ctx, SharesToKey(recipient), owner).Err(); err != nil {
		return domain.Persistence("delete share", err)
	}
	return nil
}
