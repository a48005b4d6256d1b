package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/plannio/plannio/internal/domain/staff"
	"github.com/plannio/plannio/internal/storage"
)

const staffColumns = `id, business_id, display_name, email, role_label, active,
       created_at, updated_at`

func scanStaff(row interface{ Scan(...any) error }) (staff.Member, error) {
	var m staff.Member
	var active int
	var createdAt, updatedAt int64
	if err := row.Scan(
		&m.ID,
		&m.BusinessID,
		&m.DisplayName,
		&m.Email,
		&m.RoleLabel,
		&active,
		&createdAt,
		&updatedAt,
	); err != nil {
		return staff.Member{}, err
	}
	m.Active = active != 0
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	return m, nil
}

// CreateStaff inserts one staff member record.
func (s *Store) CreateStaff(ctx context.Context, m staff.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("staff id is required")
	}
	if strings.TrimSpace(m.BusinessID) == "" {
		return fmt.Errorf("business id is required")
	}

	active := 0
	if m.Active {
		active = 1
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO staff (
		   id, business_id, display_name, email, role_label, active,
		   created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.BusinessID,
		m.DisplayName,
		m.Email,
		m.RoleLabel,
		active,
		toMillis(m.CreatedAt),
		toMillis(m.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// GetStaff returns one staff member scoped by business.
func (s *Store) GetStaff(ctx context.Context, businessID, id string) (staff.Member, error) {
	if err := ctx.Err(); err != nil {
		return staff.Member{}, err
	}
	if err := s.ready(); err != nil {
		return staff.Member{}, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+staffColumns+` FROM staff WHERE business_id = ? AND id = ?`,
		strings.TrimSpace(businessID),
		strings.TrimSpace(id),
	)
	m, err := scanStaff(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return staff.Member{}, storage.ErrNotFound
		}
		return staff.Member{}, fmt.Errorf("get staff: %w", err)
	}
	return m, nil
}

// UpdateStaff updates one staff member record.
func (s *Store) UpdateStaff(ctx context.Context, m staff.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	active := 0
	if m.Active {
		active = 1
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE staff
		    SET display_name = ?, email = ?, role_label = ?, active = ?, updated_at = ?
		  WHERE business_id = ? AND id = ?`,
		m.DisplayName,
		m.Email,
		m.RoleLabel,
		active,
		toMillis(m.UpdatedAt),
		m.BusinessID,
		m.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("update staff: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteStaff removes one staff member scoped by business.
func (s *Store) DeleteStaff(ctx context.Context, businessID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM staff WHERE business_id = ? AND id = ?`,
		strings.TrimSpace(businessID),
		strings.TrimSpace(id),
	)
	if err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListStaff returns one page of staff records ordered by ID.
func (s *Store) ListStaff(ctx context.Context, businessID string, pageSize int, pageToken string) (storage.StaffPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.StaffPage{}, err
	}
	if err := s.ready(); err != nil {
		return storage.StaffPage{}, err
	}
	if pageSize <= 0 {
		return storage.StaffPage{}, fmt.Errorf("page size must be greater than zero")
	}
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return storage.StaffPage{}, fmt.Errorf("business id is required")
	}
	pageToken = strings.TrimSpace(pageToken)

	var (
		rows *sql.Rows
		err  error
	)
	if pageToken == "" {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT `+staffColumns+` FROM staff
			  WHERE business_id = ?
			  ORDER BY id ASC LIMIT ?`,
			businessID,
			pageSize+1,
		)
	} else {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT `+staffColumns+` FROM staff
			  WHERE business_id = ? AND id > ?
			  ORDER BY id ASC LIMIT ?`,
			businessID,
			pageToken,
			pageSize+1,
		)
	}
	if err != nil {
		return storage.StaffPage{}, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	page := storage.StaffPage{Members: make([]staff.Member, 0, pageSize)}
	for rows.Next() {
		m, err := scanStaff(rows)
		if err != nil {
			return storage.StaffPage{}, fmt.Errorf("list staff: %w", err)
		}
		page.Members = append(page.Members, m)
	}
	if err := rows.Err(); err != nil {
		return storage.StaffPage{}, fmt.Errorf("list staff: %w", err)
	}
	if len(page.Members) > pageSize {
		page.NextPageToken = page.Members[pageSize-1].ID
		page.Members = page.Members[:pageSize]
	}
	return page, nil
}

// CountStaff counts staff members of a business.
func (s *Store) CountStaff(ctx context.Context, businessID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}

	var count int
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM staff WHERE business_id = ?`,
		strings.TrimSpace(businessID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count staff: %w", err)
	}
	return count, nil
}

var _ storage.StaffStore = (*Store)(nil)
