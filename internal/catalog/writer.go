// Package catalog is the single write path into the service catalog.
//
// HTTP handlers, the health probe, the maintenance sweep and the seeder all
// go through Writer so the catalog invariants hold whoever writes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/logger"
	"github.com/MrSnakeDoc/ussm/internal/metrics"
	"github.com/MrSnakeDoc/ussm/internal/store"
)

// Patch is a partial service as sent by callers.
// Name, Type and Status are required; nil fields keep the stored value.
type Patch struct {
	Name             string
	Type             string
	Status           string
	URL              *string
	LastUpdated      *string
	MaintenanceStart *string
	MaintenanceEnd   *string
}

// PatchFrom turns a whole record into a patch that sets every field.
func PatchFrom(s domain.Service) Patch {
	return Patch{
		Name:             s.Name,
		Type:             string(s.Type),
		Status:           string(s.Status),
		URL:              &s.URL,
		LastUpdated:      &s.LastUpdated,
		MaintenanceStart: &s.MaintenanceStart,
		MaintenanceEnd:   &s.MaintenanceEnd,
	}
}

type Writer struct {
	store   store.Catalog
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Writer)

// WithClock overrides time.Now; tests use it.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Writer) { w.metrics = m }
}

func NewWriter(st store.Catalog, log logger.Logger, opts ...Option) *Writer {
	w := &Writer{store: st, log: log, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Merge applies p over existing (nil when the name is new) and returns the
// record to store. It never touches the store.
func (w *Writer) Merge(existing *domain.Service, p Patch) (domain.Service, error) {
	name := p.Name
	if strings.TrimSpace(name) == "" {
		return domain.Service{}, domain.Validationf("name is required")
	}
	if strings.TrimSpace(name) != name {
		return domain.Service{}, domain.Validationf("name %q has leading or trailing spaces", name)
	}
	if p.Type == "" || p.Status == "" {
		return domain.Service{}, domain.Validationf("type and status are required for %q", name)
	}
	typ, ok := domain.ParseServiceType(p.Type)
	if !ok {
		return domain.Service{}, domain.Validationf("unknown type %q", p.Type)
	}
	status, ok := domain.ParseStatus(p.Status)
	if !ok {
		return domain.Service{}, domain.Validationf("unknown status %q", p.Status)
	}

	var base domain.Service
	if existing != nil {
		base = *existing
	}

	out := domain.Service{
		Name:             name,
		Type:             typ,
		Status:           status,
		URL:              pick(p.URL, base.URL),
		MaintenanceStart: pick(p.MaintenanceStart, base.MaintenanceStart),
		MaintenanceEnd:   pick(p.MaintenanceEnd, base.MaintenanceEnd),
		LastUpdated:      pick(p.LastUpdated, ""),
	}
	if out.LastUpdated == "" {
		out.LastUpdated = domain.Stamp(w.now())
	}

	if out.Status == domain.StatusPlannedMaintenance && out.MaintenanceEnd != "" {
		if _, ok := domain.ParseTimestamp(out.MaintenanceEnd); !ok {
			w.log.Warn("maintenance end is not a timestamp, auto-expiry will skip it",
				logger.String("service", name),
				logger.String("maintenanceEnd", out.MaintenanceEnd))
		}
	}
	return out.Normalize(), nil
}

func pick(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return strings.TrimSpace(*v)
}

// Upsert merges p with the stored record of the same name and writes it.
// Applying the same patch twice leaves the catalog as applying it once.
func (w *Writer) Upsert(ctx context.Context, p Patch) (domain.Service, error) {
	var existing *domain.Service
	cur, err := w.store.GetService(ctx, p.Name)
	switch {
	case err == nil:
		existing = &cur
	case errors.Is(err, domain.ErrNotFound):
	default:
		return domain.Service{}, err
	}

	svc, err := w.Merge(existing, p)
	if err != nil {
		return domain.Service{}, err
	}

	err = w.store.UpsertServices(ctx, []domain.Service{svc})
	w.metrics.CatalogWrite("upsert", err)
	if err != nil {
		return domain.Service{}, err
	}

	w.log.Debug("service upserted",
		logger.String("service", svc.Name),
		logger.String("status", string(svc.Status)))
	return svc, nil
}

// ApplyBatch writes whole records in one all-or-nothing store call.
// Every record is validated and normalised first; one bad record rejects
// the batch. A later record with the same name wins.
func (w *Writer) ApplyBatch(ctx context.Context, services []domain.Service) error {
	if len(services) == 0 {
		return nil
	}

	batch := make([]domain.Service, 0, len(services))
	pos := make(map[string]int, len(services))
	for _, s := range services {
		svc, err := w.Merge(nil, PatchFrom(s))
		if err != nil {
			return fmt.Errorf("batch rejected: %w", err)
		}
		if i, dup := pos[svc.Name]; dup {
			batch[i] = svc
			continue
		}
		pos[svc.Name] = len(batch)
		batch = append(batch, svc)
	}

	err := w.store.UpsertServices(ctx, batch)
	w.metrics.CatalogWrite("batch", err)
	return err
}

// Delete removes a service by exact name. Unknown names succeed.
func (w *Writer) Delete(ctx context.Context, name string) error {
	if name == "" {
		return domain.Validationf("name is required")
	}
	err := w.store.DeleteService(ctx, name)
	w.metrics.CatalogWrite("delete", err)
	return err
}
