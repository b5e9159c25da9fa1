package scheduler

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/ussm/internal/accounts"
	"github.com/MrSnakeDoc/ussm/internal/catalog"
	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/logger"
	"github.com/MrSnakeDoc/ussm/internal/sources/seed"
	"github.com/MrSnakeDoc/ussm/internal/store"
)

// Seeder fills an empty store on startup
type Seeder struct {
	catalog  store.Catalog
	writer   *catalog.Writer
	accounts *accounts.Service
	loader   *seed.Loader
	logger   logger.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(
	cat store.Catalog,
	writer *catalog.Writer,
	acc *accounts.Service,
	loader *seed.Loader,
	log logger.Logger,
) *Seeder {
	return &Seeder{
		catalog:  cat,
		writer:   writer,
		accounts: acc,
		loader:   loader,
		logger:   log,
	}
}

// Seed loads the seed file when the catalog is empty and registers the
// bootstrap users that do not exist yet.
func (sd *Seeder) Seed(ctx context.Context) error {
	existing, err := sd.catalog.ListServices(ctx)
	if err != nil {
		return err
	}

	file, err := sd.loader.Load()
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		services, err := seed.MapServices(file.Services)
		if err != nil {
			return err
		}
		if err := sd.writer.ApplyBatch(ctx, services); err != nil {
			return err
		}
		sd.logger.Info("seeded catalog", logger.Int("count", len(services)))
	} else {
		sd.logger.Info("catalog already populated, skipping seed",
			logger.Int("count", len(existing)))
	}

	users, skipped := seed.ValidUsers(file.Users)
	for _, name := range skipped {
		sd.logger.Warn("skipping incomplete seed user", logger.String("username", name))
	}
	for _, u := range users {
		_, err := sd.accounts.Register(ctx, u.Username, u.Password, domain.Role(u.Role))
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrConflict):
			sd.logger.Debug("seed user already exists", logger.String("username", u.Username))
		default:
			return err
		}
	}
	return nil
}
