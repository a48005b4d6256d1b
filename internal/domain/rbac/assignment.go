package rbac

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/platform/id"
)

var (
	// ErrInvalidRole indicates a missing or unknown role.
	ErrInvalidRole = apperrors.New(apperrors.CodeRBACInvalidRole, "role is required")
	// ErrPlatformScopeInvalid indicates a platform-admin grant scoped to a business.
	ErrPlatformScopeInvalid = apperrors.New(apperrors.CodeRBACPlatformScopeInvalid, "platform admin assignments cannot carry a business scope")
)

// Assignment grants one role to one user, optionally scoped and time-limited.
//
// BusinessID is empty for platform-scope assignments (PLATFORM_ADMIN only).
// LocationID and DepartmentID narrow the grant inside the business.
type Assignment struct {
	ID           string
	UserID       string
	BusinessID   string
	Role         Role
	LocationID   string
	DepartmentID string
	// ExpiresAt bounds time-limited grants; nil grants never expire.
	ExpiresAt *time.Time
	// GrantedBy records the user who issued the grant.
	GrantedBy string
	CreatedAt time.Time
}

// ActiveAt reports whether the assignment is in force at the given instant.
func (a Assignment) ActiveAt(now time.Time) bool {
	if a.ExpiresAt == nil {
		return true
	}
	return now.Before(*a.ExpiresAt)
}

// ScopeKey returns the uniqueness key of an assignment:
// one assignment per (user, business, role, location, department).
func (a Assignment) ScopeKey() string {
	return strings.Join([]string{a.UserID, a.BusinessID, RoleLabel(a.Role), a.LocationID, a.DepartmentID}, "/")
}

// CreateInput describes the data needed to grant a role.
type CreateInput struct {
	UserID       string
	BusinessID   string
	Role         Role
	LocationID   string
	DepartmentID string
	ExpiresAt    *time.Time
	GrantedBy    string
}

// CreateAssignment creates a role assignment with a generated ID.
func CreateAssignment(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Assignment, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" {
		return Assignment{}, fmt.Errorf("user id is required")
	}
	if input.Role == RoleUnspecified {
		return Assignment{}, ErrInvalidRole
	}
	input.BusinessID = strings.TrimSpace(input.BusinessID)
	if input.Role == RolePlatformAdmin && input.BusinessID != "" {
		return Assignment{}, ErrPlatformScopeInvalid
	}
	if input.Role != RolePlatformAdmin && input.BusinessID == "" {
		return Assignment{}, fmt.Errorf("business id is required for business-scoped roles")
	}

	assignmentID, err := idGenerator()
	if err != nil {
		return Assignment{}, fmt.Errorf("generate assignment id: %w", err)
	}

	return Assignment{
		ID:           assignmentID,
		UserID:       input.UserID,
		BusinessID:   input.BusinessID,
		Role:         input.Role,
		LocationID:   strings.TrimSpace(input.LocationID),
		DepartmentID: strings.TrimSpace(input.DepartmentID),
		ExpiresAt:    input.ExpiresAt,
		GrantedBy:    strings.TrimSpace(input.GrantedBy),
		CreatedAt:    now().UTC(),
	}, nil
}
