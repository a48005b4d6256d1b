// Package rbac defines roles, permissions, and scoped role assignments.
package rbac

import (
	"fmt"
	"strings"
)

// Role is an access role with a static numeric level.
type Role int

const (
	// RoleUnspecified represents an invalid role value.
	RoleUnspecified Role = iota
	// RoleViewer may read reports and appointments.
	RoleViewer
	// RoleStaff may view and work their own appointments.
	RoleStaff
	// RoleManager may manage scheduling and prospects.
	RoleManager
	// RoleAdmin may manage the business configuration.
	RoleAdmin
	// RoleOwner owns the business tenant.
	RoleOwner
	// RolePlatformAdmin administers the whole platform.
	RolePlatformAdmin
)

// Level returns the static ordering level for a role. Higher levels act on
// lower ones.
func (r Role) Level() int {
	switch r {
	case RolePlatformAdmin:
		return 100
	case RoleOwner:
		return 80
	case RoleAdmin:
		return 60
	case RoleManager:
		return 40
	case RoleStaff:
		return 20
	case RoleViewer:
		return 10
	default:
		return 0
	}
}

// CanActOn reports whether the actor role may act on the target role.
// The ordering is strict: no role can act on itself or above.
func CanActOn(actor, target Role) bool {
	if actor == RoleUnspecified || target == RoleUnspecified {
		return false
	}
	return actor.Level() > target.Level()
}

// RoleLabel returns a stable label for a role.
func RoleLabel(role Role) string {
	switch role {
	case RoleViewer:
		return "VIEWER"
	case RoleStaff:
		return "STAFF"
	case RoleManager:
		return "MANAGER"
	case RoleAdmin:
		return "ADMIN"
	case RoleOwner:
		return "OWNER"
	case RolePlatformAdmin:
		return "PLATFORM_ADMIN"
	default:
		return "UNSPECIFIED"
	}
}

// RoleFromLabel parses a string label into a Role.
// It trims whitespace and matches case-insensitively. Both short ("OWNER")
// and prefixed ("ROLE_OWNER") forms are accepted.
func RoleFromLabel(value string) (Role, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return RoleUnspecified, fmt.Errorf("role is required")
	}
	switch strings.ToUpper(trimmed) {
	case "VIEWER", "ROLE_VIEWER":
		return RoleViewer, nil
	case "STAFF", "ROLE_STAFF":
		return RoleStaff, nil
	case "MANAGER", "ROLE_MANAGER":
		return RoleManager, nil
	case "ADMIN", "ROLE_ADMIN":
		return RoleAdmin, nil
	case "OWNER", "ROLE_OWNER":
		return RoleOwner, nil
	case "PLATFORM_ADMIN", "ROLE_PLATFORM_ADMIN":
		return RolePlatformAdmin, nil
	default:
		return RoleUnspecified, fmt.Errorf("unknown role: %s", trimmed)
	}
}

// Roles lists all assignable roles in ascending level order.
func Roles() []Role {
	return []Role{RoleViewer, RoleStaff, RoleManager, RoleAdmin, RoleOwner, RolePlatformAdmin}
}
