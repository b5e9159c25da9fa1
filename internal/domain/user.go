package domain

import "time"

// Role decides what a user can edit and how their dashboard is built.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
)

// ParseRole validates a role string.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleDeveloper, RoleUser:
		return Role(raw), true
	}
	return "", false
}

// CanEditCatalog reports whether the role may add, edit or delete services.
func (r Role) CanEditCatalog() bool {
	return r == RoleAdmin || r == RoleDeveloper
}

// User is a registered dashboard account.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
}

// SessionContext carries the caller identity into every reconciliation
// and sharing call.
type SessionContext struct {
	UserID string
	Role   Role
}

// Favourite is a (user, service name) pair.
type Favourite struct {
	UserID      string `json:"userId"`
	ServiceName string `json:"serviceName"`
}

// DashboardLayout is the ordered subset of service names a user picked.
// An empty layout means "show everything".
type DashboardLayout struct {
	UserID string   `json:"userId"`
	Layout []string `json:"layout"`
}

// SharedBoard is a frozen layout one user exposes read-only to another.
type SharedBoard struct {
	OwnerUserID      string    `json:"ownerUserId"`
	SharedWithUserID string    `json:"sharedWithUserId"`
	Layout           []string  `json:"layout"`
	CreatedAt        time.Time `json:"createdAt"`
}
