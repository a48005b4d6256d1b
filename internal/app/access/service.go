// Package access resolves authorization and manages role assignments.
package access

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/plannio/plannio/internal/analytics"
	"github.com/plannio/plannio/internal/auth"
	"github.com/plannio/plannio/internal/domain/rbac"
	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/platform/id"
	"github.com/plannio/plannio/internal/storage"
)

var (
	// ErrPermissionDenied indicates the caller lacks the required permission.
	ErrPermissionDenied = apperrors.New(apperrors.CodeRBACPermissionDenied, "permission denied")
	// ErrRoleNotActionable indicates the caller's role cannot act on the target role.
	ErrRoleNotActionable = apperrors.New(apperrors.CodeRBACRoleNotActionable, "role is not actionable by the caller")
	// ErrAssignmentExists indicates the same grant already exists.
	ErrAssignmentExists = apperrors.New(apperrors.CodeRBACAssignmentExists, "role assignment already exists")
)

// Service implements role management and the authorization check used by every
// other application service.
type Service struct {
	assignments storage.AssignmentStore
	analytics   *analytics.Emitter
	now         func() time.Time
	idGenerator func() (string, error)
}

// NewService creates an access service.
func NewService(assignments storage.AssignmentStore, emitter *analytics.Emitter, now func() time.Time, idGenerator func() (string, error)) *Service {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return &Service{
		assignments: assignments,
		analytics:   emitter,
		now:         now,
		idGenerator: idGenerator,
	}
}

// activeRoles returns the caller's active roles scoped to the business,
// including platform-scope assignments.
func (s *Service) activeRoles(ctx context.Context, principal auth.Principal, businessID string) ([]rbac.Role, error) {
	assignments, err := s.assignments.ListAssignmentsByUser(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("list user assignments: %w", err)
	}
	now := s.now().UTC()
	var roles []rbac.Role
	for _, assignment := range assignments {
		if !assignment.ActiveAt(now) {
			continue
		}
		if assignment.BusinessID != "" && assignment.BusinessID != businessID {
			continue
		}
		roles = append(roles, assignment.Role)
	}
	return roles, nil
}

// highestRole returns the caller's strongest active role for a business.
func (s *Service) highestRole(ctx context.Context, principal auth.Principal, businessID string) (rbac.Role, error) {
	if principal.PlatformAdmin {
		return rbac.RolePlatformAdmin, nil
	}
	roles, err := s.activeRoles(ctx, principal, businessID)
	if err != nil {
		return rbac.RoleUnspecified, err
	}
	highest := rbac.RoleUnspecified
	for _, role := range roles {
		if role.Level() > highest.Level() {
			highest = role
		}
	}
	return highest, nil
}

// Authorize checks that the principal holds the permission within the
// business. Platform admins pass every check.
func (s *Service) Authorize(ctx context.Context, principal auth.Principal, businessID string, permission rbac.Permission) error {
	if principal.UserID == "" {
		return apperrors.New(apperrors.CodeAuthUnauthenticated, "caller is not authenticated")
	}
	if principal.PlatformAdmin {
		return nil
	}
	roles, err := s.activeRoles(ctx, principal, businessID)
	if err != nil {
		return err
	}
	for _, role := range roles {
		if rbac.Allows(role, permission) {
			return nil
		}
	}
	return ErrPermissionDenied
}

// GrantRoleInput describes a role grant request.
type GrantRoleInput struct {
	UserID       string
	BusinessID   string
	Role         rbac.Role
	LocationID   string
	DepartmentID string
	ExpiresAt    *time.Time
}

// GrantRole grants a role to a user. The caller needs MANAGE_ROLES in the
// target business and a role strictly above the granted one; platform roles
// can only be granted by platform admins.
func (s *Service) GrantRole(ctx context.Context, principal auth.Principal, input GrantRoleInput) (rbac.Assignment, error) {
	if input.Role == rbac.RolePlatformAdmin {
		if !principal.PlatformAdmin {
			return rbac.Assignment{}, ErrPermissionDenied
		}
	} else {
		if err := s.Authorize(ctx, principal, input.BusinessID, rbac.PermManageRoles); err != nil {
			return rbac.Assignment{}, err
		}
		actorRole, err := s.highestRole(ctx, principal, input.BusinessID)
		if err != nil {
			return rbac.Assignment{}, err
		}
		if !rbac.CanActOn(actorRole, input.Role) {
			return rbac.Assignment{}, ErrRoleNotActionable
		}
	}

	assignment, err := rbac.CreateAssignment(rbac.CreateInput{
		UserID:       input.UserID,
		BusinessID:   input.BusinessID,
		Role:         input.Role,
		LocationID:   input.LocationID,
		DepartmentID: input.DepartmentID,
		ExpiresAt:    input.ExpiresAt,
		GrantedBy:    principal.UserID,
	}, s.now, s.idGenerator)
	if err != nil {
		return rbac.Assignment{}, err
	}

	if err := s.assignments.CreateAssignment(ctx, assignment); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return rbac.Assignment{}, ErrAssignmentExists
		}
		return rbac.Assignment{}, apperrors.Wrap(apperrors.CodeRBACSaveError, "save role assignment", err)
	}

	s.audit(ctx, assignment.BusinessID, principal.UserID, "role.granted", assignment.ID, map[string]string{
		"user_id": assignment.UserID,
		"role":    rbac.RoleLabel(assignment.Role),
	})
	return assignment, nil
}

// GrantInitialOwner bootstraps the OWNER assignment for a freshly created
// business. No permission check: the business has no role holders yet.
func (s *Service) GrantInitialOwner(ctx context.Context, userID, businessID string) (rbac.Assignment, error) {
	assignment, err := rbac.CreateAssignment(rbac.CreateInput{
		UserID:     userID,
		BusinessID: businessID,
		Role:       rbac.RoleOwner,
		GrantedBy:  userID,
	}, s.now, s.idGenerator)
	if err != nil {
		return rbac.Assignment{}, err
	}
	if err := s.assignments.CreateAssignment(ctx, assignment); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return rbac.Assignment{}, ErrAssignmentExists
		}
		return rbac.Assignment{}, apperrors.Wrap(apperrors.CodeRBACSaveError, "save role assignment", err)
	}
	s.audit(ctx, businessID, userID, "role.granted", assignment.ID, map[string]string{
		"user_id": userID,
		"role":    rbac.RoleLabel(rbac.RoleOwner),
	})
	return assignment, nil
}

// RevokeRole removes a role assignment. The caller needs MANAGE_ROLES in the
// assignment's business and a role strictly above the revoked one.
func (s *Service) RevokeRole(ctx context.Context, principal auth.Principal, assignmentID string) error {
	assignment, err := s.assignments.GetAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "role assignment not found")
		}
		return fmt.Errorf("get role assignment: %w", err)
	}

	if assignment.Role == rbac.RolePlatformAdmin {
		if !principal.PlatformAdmin {
			return ErrPermissionDenied
		}
	} else {
		if err := s.Authorize(ctx, principal, assignment.BusinessID, rbac.PermManageRoles); err != nil {
			return err
		}
		actorRole, err := s.highestRole(ctx, principal, assignment.BusinessID)
		if err != nil {
			return err
		}
		if !rbac.CanActOn(actorRole, assignment.Role) {
			return ErrRoleNotActionable
		}
	}

	if err := s.assignments.DeleteAssignment(ctx, assignment.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "role assignment not found")
		}
		return fmt.Errorf("delete role assignment: %w", err)
	}

	s.audit(ctx, assignment.BusinessID, principal.UserID, "role.revoked", assignment.ID, map[string]string{
		"user_id": assignment.UserID,
		"role":    rbac.RoleLabel(assignment.Role),
	})
	return nil
}

// ListAssignments returns all role assignments of a business.
func (s *Service) ListAssignments(ctx context.Context, principal auth.Principal, businessID string) ([]rbac.Assignment, error) {
	if err := s.Authorize(ctx, principal, businessID, rbac.PermManageRoles); err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListAssignmentsByBusiness(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list business assignments: %w", err)
	}
	return assignments, nil
}

// ListUserAssignments returns the caller's own assignments, or any user's when
// called by a platform admin.
func (s *Service) ListUserAssignments(ctx context.Context, principal auth.Principal, userID string) ([]rbac.Assignment, error) {
	if userID != principal.UserID && !principal.PlatformAdmin {
		return nil, ErrPermissionDenied
	}
	assignments, err := s.assignments.ListAssignmentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user assignments: %w", err)
	}
	return assignments, nil
}

// ContextStatistics returns active assignment counts per role for a business.
func (s *Service) ContextStatistics(ctx context.Context, principal auth.Principal, businessID string) (map[rbac.Role]int, error) {
	if err := s.Authorize(ctx, principal, businessID, rbac.PermManageRoles); err != nil {
		return nil, err
	}
	counts, err := s.assignments.CountAssignmentsByRole(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("count assignments by role: %w", err)
	}
	return counts, nil
}

func (s *Service) audit(ctx context.Context, businessID, actorID, action, entityID string, metadata map[string]string) {
	// Platform-scope grants carry no business to audit against.
	if businessID == "" {
		return
	}
	err := s.analytics.Emit(ctx, analytics.Event{
		BusinessID: businessID,
		ActorID:    actorID,
		Action:     action,
		Entity:     "role_assignment",
		EntityID:   entityID,
		Metadata:   metadata,
	})
	if err != nil {
		log.Printf("access: emit audit event: %v", err)
	}
}
