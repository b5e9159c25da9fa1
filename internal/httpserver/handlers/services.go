package handlers

import (
	"encoding/csv"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/ussm/internal/catalog"
	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ussm/internal/logger"
)

// upsertServiceRequest is a partial service; omitted optional fields keep
// their stored values.
type upsertServiceRequest struct {
	Name             string  `json:"name" validate:"required"`
	Type             string  `json:"type" validate:"required"`
	Status           string  `json:"status" validate:"required"`
	URL              *string `json:"url"`
	LastUpdated      *string `json:"lastUpdated"`
	MaintenanceStart *string `json:"maintenanceStart"`
	MaintenanceEnd   *string `json:"maintenanceEnd"`
}

// exportRow follows domain.ServiceColumns field for field.
type exportRow struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	Status           string `json:"status"`
	LastUpdated      string `json:"lastUpdated"`
	MaintenanceStart string `json:"maintenanceStart"`
	MaintenanceEnd   string `json:"maintenanceEnd"`
	URL              string `json:"url"`
}

func ListServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := d.Store.ListServices(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, services)
	}
}

// UpsertService creates or replaces a service by name and echoes the stored record.
func UpsertService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertServiceRequest
		if err := decode(r, d, &req); err != nil {
			writeError(w, r, d, err)
			return
		}

		svc, err := d.Catalog.Upsert(r.Context(), catalog.Patch{
			Name:             req.Name,
			Type:             req.Type,
			Status:           req.Status,
			URL:              req.URL,
			LastUpdated:      req.LastUpdated,
			MaintenanceStart: req.MaintenanceStart,
			MaintenanceEnd:   req.MaintenanceEnd,
		})
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, svc)
	}
}

// DeleteService succeeds whether or not the name exists.
func DeleteService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := pathParam(r, "name")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := d.Catalog.Delete(r.Context(), name); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeOK(w)
	}
}

// ExportServices writes the catalog in the fixed column order as JSON or CSV.
func ExportServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := d.Store.ListServices(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		format := strings.ToLower(r.URL.Query().Get("format"))
		switch format {
		case "", "json":
			rows := make([]exportRow, len(services))
			for i, s := range services {
				rows[i] = exportRow{
					Name:             s.Name,
					Type:             string(s.Type),
					Status:           string(s.Status),
					LastUpdated:      s.LastUpdated,
					MaintenanceStart: s.MaintenanceStart,
					MaintenanceEnd:   s.MaintenanceEnd,
					URL:              s.URL,
				}
			}
			w.Header().Set("Content-Disposition", `attachment; filename="services.json"`)
			writeJSON(w, http.StatusOK, rows)
		case "csv":
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", `attachment; filename="services.csv"`)
			cw := csv.NewWriter(w)
			_ = cw.Write(domain.ServiceColumns)
			for _, s := range services {
				_ = cw.Write(s.Row())
			}
			cw.Flush()
			if err := cw.Error(); err != nil {
				d.Logger.Warn("csv export interrupted", logger.Error(err))
			}
		default:
			writeError(w, r, d, domain.Validationf("unsupported export format %q", format))
		}
	}
}
