package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/plannio/plannio/internal/domain/rbac"
	"github.com/plannio/plannio/internal/storage"
)

const assignmentColumns = `id, user_id, business_id, role, location_id,
       department_id, expires_at, granted_by, created_at`

func scanAssignment(row interface{ Scan(...any) error }) (rbac.Assignment, error) {
	var a rbac.Assignment
	var role int
	var expiresAt sql.NullInt64
	var createdAt int64
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.BusinessID,
		&role,
		&a.LocationID,
		&a.DepartmentID,
		&expiresAt,
		&a.GrantedBy,
		&createdAt,
	); err != nil {
		return rbac.Assignment{}, err
	}
	a.Role = rbac.Role(role)
	a.ExpiresAt = fromNullMillis(expiresAt)
	a.CreatedAt = fromMillis(createdAt)
	return a, nil
}

// CreateAssignment inserts one role assignment record.
func (s *Store) CreateAssignment(ctx context.Context, a rbac.Assignment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("assignment id is required")
	}
	if strings.TrimSpace(a.UserID) == "" {
		return fmt.Errorf("user id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO role_assignments (
		   id, user_id, business_id, role, location_id,
		   department_id, expires_at, granted_by, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.UserID,
		a.BusinessID,
		int(a.Role),
		a.LocationID,
		a.DepartmentID,
		toNullMillis(a.ExpiresAt),
		a.GrantedBy,
		toMillis(a.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create role assignment: %w", err)
	}
	return nil
}

// GetAssignment returns one role assignment by ID.
func (s *Store) GetAssignment(ctx context.Context, id string) (rbac.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return rbac.Assignment{}, err
	}
	if err := s.ready(); err != nil {
		return rbac.Assignment{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return rbac.Assignment{}, fmt.Errorf("assignment id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+assignmentColumns+` FROM role_assignments WHERE id = ?`,
		id,
	)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rbac.Assignment{}, storage.ErrNotFound
		}
		return rbac.Assignment{}, fmt.Errorf("get role assignment: %w", err)
	}
	return a, nil
}

// DeleteAssignment removes one role assignment by ID.
func (s *Store) DeleteAssignment(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM role_assignments WHERE id = ?`,
		strings.TrimSpace(id),
	)
	if err != nil {
		return fmt.Errorf("delete role assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete role assignment: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) listAssignments(ctx context.Context, column, value string) ([]rbac.Assignment, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+assignmentColumns+` FROM role_assignments
		  WHERE `+column+` = ?
		  ORDER BY id ASC`,
		value,
	)
	if err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	defer rows.Close()

	var assignments []rbac.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("list role assignments: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	return assignments, nil
}

// ListAssignmentsByBusiness returns all assignments scoped to a business.
func (s *Store) ListAssignmentsByBusiness(ctx context.Context, businessID string) ([]rbac.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return nil, fmt.Errorf("business id is required")
	}
	return s.listAssignments(ctx, "business_id", businessID)
}

// ListAssignmentsByUser returns all assignments held by a user.
func (s *Store) ListAssignmentsByUser(ctx context.Context, userID string) ([]rbac.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.listAssignments(ctx, "user_id", userID)
}

// CountAssignmentsByRole returns per-role assignment counts for a business.
func (s *Store) CountAssignmentsByRole(ctx context.Context, businessID string) (map[rbac.Role]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT role, COUNT(*) FROM role_assignments WHERE business_id = ? GROUP BY role`,
		strings.TrimSpace(businessID),
	)
	if err != nil {
		return nil, fmt.Errorf("count role assignments: %w", err)
	}
	defer rows.Close()

	counts := make(map[rbac.Role]int)
	for rows.Next() {
		var role, count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("count role assignments: %w", err)
		}
		counts[rbac.Role(role)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count role assignments: %w", err)
	}
	return counts, nil
}

var _ storage.AssignmentStore = (*Store)(nil)
