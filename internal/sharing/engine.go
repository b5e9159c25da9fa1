// Package sharing lets a user expose a frozen layout read-only to another user.
package sharing

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/logger"
	"github.com/MrSnakeDoc/ussm/internal/store"
)

// Deps is the slice of the store the engine reads and writes.
type Deps interface {
	store.Shares
	store.Catalog
}

type Engine struct {
	store Deps
	log   logger.Logger
	now   func() time.Time
}

func NewEngine(st Deps, log logger.Logger) *Engine {
	return &Engine{store: st, log: log, now: time.Now}
}

// RenderedBoard is a shared board resolved against the live catalog.
type RenderedBoard struct {
	domain.SharedBoard
	Services []domain.Service `json:"services"`
}

// Create stores a snapshot of layout shared by sess with recipient.
// A second share for the same ordered pair is rejected with ErrConflict.
func (e *Engine) Create(ctx context.Context, sess domain.SessionContext, recipient string, layout []string) (domain.SharedBoard, error) {
	owner := strings.TrimSpace(sess.UserID)
	recipient = strings.TrimSpace(recipient)
	if owner == "" || recipient == "" {
		return domain.SharedBoard{}, domain.Validationf("owner and recipient are required")
	}
	if owner == recipient {
		return domain.SharedBoard{}, domain.Validationf("cannot share a board with yourself")
	}

	board := domain.SharedBoard{
		OwnerUserID:      owner,
		SharedWithUserID: recipient,
		Layout:           slices.Clone(layout),
		CreatedAt:        e.now().UTC(),
	}
	if board.Layout == nil {
		board.Layout = []string{}
	}
	if err := e.store.CreateShare(ctx, board); err != nil {
		return domain.SharedBoard{}, err
	}

	e.log.Info("board shared",
		logger.String("owner", owner),
		logger.String("recipient", recipient),
		logger.Int("services", len(board.Layout)))
	return board, nil
}

// ListSharedWithMe returns every board shared with sess, oldest first.
func (e *Engine) ListSharedWithMe(ctx context.Context, sess domain.SessionContext) ([]domain.SharedBoard, error) {
	return e.store.ListSharedWith(ctx, sess.UserID)
}

// Render resolves the frozen names against catalog in snapshot order.
// Names missing from the catalog are omitted.
func Render(board domain.SharedBoard, catalog []domain.Service) RenderedBoard {
	idx := domain.IndexByName(catalog)
	out := RenderedBoard{SharedBoard: board, Services: make([]domain.Service, 0, len(board.Layout))}
	seen := make(map[string]struct{}, len(board.Layout))
	for _, name := range board.Layout {
		i, ok := idx[name]
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out.Services = append(out.Services, catalog[i])
	}
	return out
}

// SharedWithMe lists and renders every board shared with sess against one
// catalog snapshot.
func (e *Engine) SharedWithMe(ctx context.Context, sess domain.SessionContext) ([]RenderedBoard, error) {
	boards, err := e.ListSharedWithMe(ctx, sess)
	if err != nil {
		return nil, err
	}
	if len(boards) == 0 {
		return []RenderedBoard{}, nil
	}
	catalog, err := e.store.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RenderedBoard, len(boards))
	for i, b := range boards {
		out[i] = Render(b, catalog)
	}
	return out, nil
}

// Revoke removes the share from sess to recipient. Missing shares succeed.
func (e *Engine) Revoke(ctx context.Context, sess domain.SessionContext, recipient string) error {
	if sess.UserID == "" || recipient == "" {
		return domain.Validationf("owner and recipient are required")
	}
	if err := e.store.DeleteShare(ctx, sess.UserID, recipient); err != nil {
		return err
	}
	e.log.Info("share revoked",
		logger.String("owner", sess.UserID),
		logger.String("recipient", recipient))
	return nil
}
