package domain

import (
	"strings"
)

// ServiceType tells whether a service is run in-house or by a third party.
type ServiceType string

const (
	TypeInternal ServiceType = "Internal"
	TypeExternal ServiceType = "External"
)

// Status is the operational state shown on a service card.
type Status string

const (
	StatusOperational        Status = "Operational"
	StatusPartialOutage      Status = "PartialOutage"
	StatusDown               Status = "Down"
	StatusPlannedMaintenance Status = "PlannedMaintenance"
	StatusUnderInvestigation Status = "UnderInvestigation"
)

// Statuses lists every known status in display order.
var Statuses = []Status{
	StatusOperational,
	StatusPartialOutage,
	StatusDown,
	StatusPlannedMaintenance,
	StatusUnderInvestigation,
}

// ServiceColumns is the column order of the service table.
// Bulk exports rely on it, so never reorder.
var ServiceColumns = []string{
	"name",
	"type",
	"status",
	"lastUpdated",
	"maintenanceStart",
	"maintenanceEnd",
	"url",
}

// Service represents one monitored system in the catalog.
//
// A Service is uniquely identified by its Name. There is no surrogate key:
// renaming a service is the same as deleting it and creating another one.
type Service struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// Name is the unique, case-sensitive key.
	// Example: "AWS", "Internal CRM"
	Name string `json:"name"`

	// ─────────────────────────────
	// Description
	// ─────────────────────────────

	Type ServiceType `json:"type"`
	URL  string      `json:"url"`

	// ─────────────────────────────
	// State
	// ─────────────────────────────

	Status Status `json:"status"`

	// LastUpdated is a display timestamp, usually "2006-01-02 15:04" in UTC+05:30.
	LastUpdated string `json:"lastUpdated"`

	// MaintenanceStart and MaintenanceEnd are only set while
	// Status is PlannedMaintenance.
	MaintenanceStart string `json:"maintenanceStart"`
	MaintenanceEnd   string `json:"maintenanceEnd"`
}

// Row returns the record values in ServiceColumns order.
func (s Service) Row() []string {
	return []string{
		s.Name,
		string(s.Type),
		string(s.Status),
		s.LastUpdated,
		s.MaintenanceStart,
		s.MaintenanceEnd,
		s.URL,
	}
}

// Normalize enforces the maintenance invariant: the window fields are
// cleared whenever the service is not under planned maintenance.
func (s Service) Normalize() Service {
	if s.Status != StatusPlannedMaintenance {
		s.MaintenanceStart = ""
		s.MaintenanceEnd = ""
	}
	return s
}

// ParseStatus maps user input to a Status. The legacy spaced spellings
// ("Partial Outage", "Planned Maintenance", ...) are accepted.
func ParseStatus(raw string) (Status, bool) {
	compact := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	for _, st := range Statuses {
		if strings.EqualFold(compact, string(st)) {
			return st, true
		}
	}
	return "", false
}

// ParseServiceType maps user input to a ServiceType.
func ParseServiceType(raw string) (ServiceType, bool) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.EqualFold(raw, string(TypeInternal)):
		return TypeInternal, true
	case strings.EqualFold(raw, string(TypeExternal)):
		return TypeExternal, true
	}
	return "", false
}

// IndexByName returns the position of every service keyed by name.
// Later duplicates never override the first occurrence.
func IndexByName(services []Service) map[string]int {
	idx := make(map[string]int, len(services))
	for i, s := range services {
		if _, ok := idx[s.Name]; !ok {
			idx[s.Name] = i
		}
	}
	return idx
}
