package seed

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/ussm/internal/domain"
)

// MapServices converts seed entries to services. Unknown types or statuses
// are reported instead of silently dropped.
func MapServices(props []ServiceProps) ([]domain.Service, error) {
	out := make([]domain.Service, 0, len(props))
	for i, p := range props {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("seed service #%d: name is required", i+1)
		}
		typ, ok := domain.ParseServiceType(p.Type)
		if !ok {
			return nil, fmt.Errorf("seed service %q: unknown type %q", name, p.Type)
		}
		status, ok := domain.ParseStatus(p.Status)
		if !ok {
			return nil, fmt.Errorf("seed service %q: unknown status %q", name, p.Status)
		}
		out = append(out, domain.Service{
			Name:             name,
			Type:             typ,
			Status:           status,
			URL:              strings.TrimSpace(p.URL),
			MaintenanceStart: p.MaintenanceStart,
			MaintenanceEnd:   p.MaintenanceEnd,
		}.Normalize())
	}
	return out, nil
}

// ValidUsers returns the users with a username, password and known role.
// Skipped entries are returned by name so the caller can log them.
func ValidUsers(props []UserProps) (valid []UserProps, skipped []string) {
	for _, u := range props {
		u.Username = strings.TrimSpace(u.Username)
		if _, ok := domain.ParseRole(u.Role); !ok || u.Username == "" || u.Password == "" {
			skipped = append(skipped, u.Username)
			continue
		}
		valid = append(valid, u)
	}
	return valid, skipped
}
