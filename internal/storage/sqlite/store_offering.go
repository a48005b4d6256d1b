package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/plannio/plannio/internal/domain/offering"
	"github.com/plannio/plannio/internal/storage"
)

const serviceColumns = `id, business_id, name, description, duration_minutes,
       price_amount, currency, active, created_at, updated_at`

func scanService(row interface{ Scan(...any) error }) (offering.Service, error) {
	var svc offering.Service
	var price string
	var active int
	var createdAt, updatedAt int64
	if err := row.Scan(
		&svc.ID,
		&svc.BusinessID,
		&svc.Name,
		&svc.Description,
		&svc.DurationMinutes,
		&price,
		&svc.Currency,
		&active,
		&createdAt,
		&updatedAt,
	); err != nil {
		return offering.Service{}, err
	}
	priceAmount, err := parseDecimal(price, "service price")
	if err != nil {
		return offering.Service{}, err
	}
	svc.PriceAmount = priceAmount
	svc.Active = active != 0
	svc.CreatedAt = fromMillis(createdAt)
	svc.UpdatedAt = fromMillis(updatedAt)
	return svc, nil
}

// CreateService inserts one bookable service record.
func (s *Store) CreateService(ctx context.Context, svc offering.Service) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(svc.ID) == "" {
		return fmt.Errorf("service id is required")
	}
	if strings.TrimSpace(svc.BusinessID) == "" {
		return fmt.Errorf("business id is required")
	}

	active := 0
	if svc.Active {
		active = 1
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO services (
		   id, business_id, name, description, duration_minutes,
		   price_amount, currency, active, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		svc.ID,
		svc.BusinessID,
		svc.Name,
		svc.Description,
		svc.DurationMinutes,
		svc.PriceAmount.String(),
		svc.Currency,
		active,
		toMillis(svc.CreatedAt),
		toMillis(svc.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

// GetService returns one service scoped by business.
func (s *Store) GetService(ctx context.Context, businessID, id string) (offering.Service, error) {
	if err := ctx.Err(); err != nil {
		return offering.Service{}, err
	}
	if err := s.ready(); err != nil {
		return offering.Service{}, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+serviceColumns+` FROM services WHERE business_id = ? AND id = ?`,
		strings.TrimSpace(businessID),
		strings.TrimSpace(id),
	)
	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return offering.Service{}, storage.ErrNotFound
		}
		return offering.Service{}, fmt.Errorf("get service: %w", err)
	}
	return svc, nil
}

// UpdateService updates one service record.
func (s *Store) UpdateService(ctx context.Context, svc offering.Service) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	active := 0
	if svc.Active {
		active = 1
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE services
		    SET name = ?, description = ?, duration_minutes = ?,
		        price_amount = ?, currency = ?, active = ?, updated_at = ?
		  WHERE business_id = ? AND id = ?`,
		svc.Name,
		svc.Description,
		svc.DurationMinutes,
		svc.PriceAmount.String(),
		svc.Currency,
		active,
		toMillis(svc.UpdatedAt),
		svc.BusinessID,
		svc.ID,
	)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteService removes one service scoped by business.
func (s *Store) DeleteService(ctx context.Context, businessID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM services WHERE business_id = ? AND id = ?`,
		strings.TrimSpace(businessID),
		strings.TrimSpace(id),
	)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListServices returns one page of service records ordered by ID.
func (s *Store) ListServices(ctx context.Context, businessID string, activeOnly bool, pageSize int, pageToken string) (storage.ServicePage, error) {
	if err := ctx.Err(); err != nil {
		return storage.ServicePage{}, err
	}
	if err := s.ready(); err != nil {
		return storage.ServicePage{}, err
	}
	if pageSize <= 0 {
		return storage.ServicePage{}, fmt.Errorf("page size must be greater than zero")
	}
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return storage.ServicePage{}, fmt.Errorf("business id is required")
	}

	query := `SELECT ` + serviceColumns + ` FROM services WHERE business_id = ?`
	args := []any{businessID}
	if activeOnly {
		query += ` AND active = 1`
	}
	if pageToken = strings.TrimSpace(pageToken); pageToken != "" {
		query += ` AND id > ?`
		args = append(args, pageToken)
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return storage.ServicePage{}, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	page := storage.ServicePage{Services: make([]offering.Service, 0, pageSize)}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return storage.ServicePage{}, fmt.Errorf("list services: %w", err)
		}
		page.Services = append(page.Services, svc)
	}
	if err := rows.Err(); err != nil {
		return storage.ServicePage{}, fmt.Errorf("list services: %w", err)
	}
	if len(page.Services) > pageSize {
		page.NextPageToken = page.Services[pageSize-1].ID
		page.Services = page.Services[:pageSize]
	}
	return page, nil
}

// CountServices counts bookable services of a business.
func (s *Store) CountServices(ctx context.Context, businessID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}

	var count int
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM services WHERE business_id = ?`,
		strings.TrimSpace(businessID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count services: %w", err)
	}
	return count, nil
}

var _ storage.ServiceStore = (*Store)(nil)
