package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/plannio/plannio/internal/domain/prospect"
	"github.com/plannio/plannio/internal/storage"
)

const prospectColumns = `id, business_id, name, email, phone, source, stage,
       estimated_value, notes, owner_staff_id, created_at, updated_at, closed_at`

func scanProspect(row interface{ Scan(...any) error }) (prospect.Prospect, error) {
	var p prospect.Prospect
	var stage int
	var estimatedValue string
	var createdAt, updatedAt int64
	var closedAt sql.NullInt64
	if err := row.Scan(
		&p.ID,
		&p.BusinessID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.Source,
		&stage,
		&estimatedValue,
		&p.Notes,
		&p.OwnerStaffID,
		&createdAt,
		&updatedAt,
		&closedAt,
	); err != nil {
		return prospect.Prospect{}, err
	}
	value, err := parseDecimal(estimatedValue, "prospect estimated value")
	if err != nil {
		return prospect.Prospect{}, err
	}
	p.Stage = prospect.Stage(stage)
	p.EstimatedValue = value
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	p.ClosedAt = fromNullMillis(closedAt)
	return p, nil
}

// CreateProspect inserts one prospect record.
func (s *Store) CreateProspect(ctx context.Context, p prospect.Prospect) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("prospect id is required")
	}
	if strings.TrimSpace(p.BusinessID) == "" {
		return fmt.Errorf("business id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO prospects (
		   id, business_id, name, email, phone, source, stage,
		   estimated_value, notes, owner_staff_id, created_at, updated_at, closed_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.BusinessID,
		p.Name,
		p.Email,
		p.Phone,
		p.Source,
		int(p.Stage),
		p.EstimatedValue.String(),
		p.Notes,
		p.OwnerStaffID,
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
		toNullMillis(p.ClosedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create prospect: %w", err)
	}
	return nil
}

// GetProspect returns one prospect scoped by business.
func (s *Store) GetProspect(ctx context.Context, businessID, id string) (prospect.Prospect, error) {
	if err := ctx.Err(); err != nil {
		return prospect.Prospect{}, err
	}
	if err := s.ready(); err != nil {
		return prospect.Prospect{}, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+prospectColumns+` FROM prospects WHERE business_id = ? AND id = ?`,
		strings.TrimSpace(businessID),
		strings.TrimSpace(id),
	)
	p, err := scanProspect(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return prospect.Prospect{}, storage.ErrNotFound
		}
		return prospect.Prospect{}, fmt.Errorf("get prospect: %w", err)
	}
	return p, nil
}

// UpdateProspect updates one prospect record.
func (s *Store) UpdateProspect(ctx context.Context, p prospect.Prospect) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE prospects
		    SET name = ?, email = ?, phone = ?, source = ?, stage = ?,
		        estimated_value = ?, notes = ?, owner_staff_id = ?,
		        updated_at = ?, closed_at = ?
		  WHERE business_id = ? AND id = ?`,
		p.Name,
		p.Email,
		p.Phone,
		p.Source,
		int(p.Stage),
		p.EstimatedValue.String(),
		p.Notes,
		p.OwnerStaffID,
		toMillis(p.UpdatedAt),
		toNullMillis(p.ClosedAt),
		p.BusinessID,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update prospect: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update prospect: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteProspect removes one prospect scoped by business.
func (s *Store) DeleteProspect(ctx context.Context, businessID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM prospects WHERE business_id = ? AND id = ?`,
		strings.TrimSpace(businessID),
		strings.TrimSpace(id),
	)
	if err != nil {
		return fmt.Errorf("delete prospect: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete prospect: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListProspects returns one page of prospect records ordered by ID.
func (s *Store) ListProspects(ctx context.Context, businessID string, filter storage.ProspectFilter, pageSize int, pageToken string) (storage.ProspectPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.ProspectPage{}, err
	}
	if err := s.ready(); err != nil {
		return storage.ProspectPage{}, err
	}
	if pageSize <= 0 {
		return storage.ProspectPage{}, fmt.Errorf("page size must be greater than zero")
	}
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return storage.ProspectPage{}, fmt.Errorf("business id is required")
	}

	query := `SELECT ` + prospectColumns + ` FROM prospects WHERE business_id = ?`
	args := []any{businessID}
	if filter.Stage != prospect.StageUnspecified {
		query += ` AND stage = ?`
		args = append(args, int(filter.Stage))
	}
	if ownerStaffID := strings.TrimSpace(filter.OwnerStaffID); ownerStaffID != "" {
		query += ` AND owner_staff_id = ?`
		args = append(args, ownerStaffID)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		query += ` AND (name LIKE ? COLLATE NOCASE OR email LIKE ? COLLATE NOCASE)`
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	if pageToken = strings.TrimSpace(pageToken); pageToken != "" {
		query += ` AND id > ?`
		args = append(args, pageToken)
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return storage.ProspectPage{}, fmt.Errorf("list prospects: %w", err)
	}
	defer rows.Close()

	page := storage.ProspectPage{Prospects: make([]prospect.Prospect, 0, pageSize)}
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return storage.ProspectPage{}, fmt.Errorf("list prospects: %w", err)
		}
		page.Prospects = append(page.Prospects, p)
	}
	if err := rows.Err(); err != nil {
		return storage.ProspectPage{}, fmt.Errorf("list prospects: %w", err)
	}
	if len(page.Prospects) > pageSize {
		page.NextPageToken = page.Prospects[pageSize-1].ID
		page.Prospects = page.Prospects[:pageSize]
	}
	return page, nil
}

// ProspectStatsByStage aggregates prospects per pipeline stage. Estimated
// values are stored as decimal text, so the sum happens here rather than in
// SQL to avoid float drift.
func (s *Store) ProspectStatsByStage(ctx context.Context, businessID string) (map[prospect.Stage]storage.StageStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT stage, estimated_value FROM prospects WHERE business_id = ?`,
		strings.TrimSpace(businessID),
	)
	if err != nil {
		return nil, fmt.Errorf("prospect stats by stage: %w", err)
	}
	defer rows.Close()

	stats := make(map[prospect.Stage]storage.StageStats)
	for rows.Next() {
		var stage int
		var rawValue string
		if err := rows.Scan(&stage, &rawValue); err != nil {
			return nil, fmt.Errorf("prospect stats by stage: %w", err)
		}
		value, err := parseDecimal(rawValue, "prospect estimated value")
		if err != nil {
			return nil, fmt.Errorf("prospect stats by stage: %w", err)
		}
		entry := stats[prospect.Stage(stage)]
		entry.Count++
		entry.EstimatedValue = entry.EstimatedValue.Add(value)
		stats[prospect.Stage(stage)] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("prospect stats by stage: %w", err)
	}
	return stats, nil
}

var _ storage.ProspectStore = (*Store)(nil)
