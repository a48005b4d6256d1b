package storage

import (
	"context"

	"github.com/plannio/plannio/internal/domain/rbac"
)

// AssignmentStore persists role assignment records.
type AssignmentStore interface {
	CreateAssignment(ctx context.Context, a rbac.Assignment) error
	GetAssignment(ctx context.Context, id string) (rbac.Assignment, error)
	DeleteAssignment(ctx context.Context, id string) error
	ListAssignmentsByBusiness(ctx context.Context, businessID string) ([]rbac.Assignment, error)
	ListAssignmentsByUser(ctx context.Context, userID string) ([]rbac.Assignment, error)

	// CountAssignmentsByRole returns per-role assignment counts for a business.
	CountAssignmentsByRole(ctx context.Context, businessID string) (map[rbac.Role]int, error)
}
