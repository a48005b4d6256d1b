package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/plannio/plannio/internal/domain/business"
	"github.com/plannio/plannio/internal/storage"
)

const businessColumns = `id, name, sector_id, locale, timezone, status,
       contact_email, contact_phone, created_at, updated_at`

// CreateBusiness inserts one business record.
func (s *Store) CreateBusiness(ctx context.Context, b business.Business) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("business id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO businesses (
		   id, name, sector_id, locale, timezone, status,
		   contact_email, contact_phone, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.Name,
		b.SectorID,
		b.Locale,
		b.Timezone,
		int(b.Status),
		b.ContactEmail,
		b.ContactPhone,
		toMillis(b.CreatedAt),
		toMillis(b.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create business: %w", err)
	}
	return nil
}

func scanBusiness(row interface{ Scan(...any) error }) (business.Business, error) {
	var b business.Business
	var status int
	var createdAt, updatedAt int64
	if err := row.Scan(
		&b.ID,
		&b.Name,
		&b.SectorID,
		&b.Locale,
		&b.Timezone,
		&status,
		&b.ContactEmail,
		&b.ContactPhone,
		&createdAt,
		&updatedAt,
	); err != nil {
		return business.Business{}, err
	}
	b.Status = business.Status(status)
	b.CreatedAt = fromMillis(createdAt)
	b.UpdatedAt = fromMillis(updatedAt)
	return b, nil
}

// GetBusiness returns one business by ID.
func (s *Store) GetBusiness(ctx context.Context, id string) (business.Business, error) {
	if err := ctx.Err(); err != nil {
		return business.Business{}, err
	}
	if err := s.ready(); err != nil {
		return business.Business{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return business.Business{}, fmt.Errorf("business id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = ?`,
		id,
	)
	b, err := scanBusiness(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return business.Business{}, storage.ErrNotFound
		}
		return business.Business{}, fmt.Errorf("get business: %w", err)
	}
	return b, nil
}

// UpdateBusiness updates one business record.
func (s *Store) UpdateBusiness(ctx context.Context, b business.Business) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("business id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE businesses
		    SET name = ?, sector_id = ?, locale = ?, timezone = ?, status = ?,
		        contact_email = ?, contact_phone = ?, updated_at = ?
		  WHERE id = ?`,
		b.Name,
		b.SectorID,
		b.Locale,
		b.Timezone,
		int(b.Status),
		b.ContactEmail,
		b.ContactPhone,
		toMillis(b.UpdatedAt),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("update business: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update business: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func businessFilterClauses(filter storage.BusinessFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Status != business.StatusUnspecified {
		clauses = append(clauses, "status = ?")
		args = append(args, int(filter.Status))
	}
	if sectorID := strings.TrimSpace(filter.SectorID); sectorID != "" {
		clauses = append(clauses, "sector_id = ?")
		args = append(args, sectorID)
	}
	if query := strings.TrimSpace(filter.Query); query != "" {
		clauses = append(clauses, "name LIKE ? COLLATE NOCASE")
		args = append(args, "%"+query+"%")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return strings.Join(clauses, " AND "), args
}

// ListBusinesses returns one page of business records ordered by ID.
func (s *Store) ListBusinesses(ctx context.Context, filter storage.BusinessFilter, pageSize int, pageToken string) (storage.BusinessPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.BusinessPage{}, err
	}
	if err := s.ready(); err != nil {
		return storage.BusinessPage{}, err
	}
	if pageSize <= 0 {
		return storage.BusinessPage{}, fmt.Errorf("page size must be greater than zero")
	}
	pageToken = strings.TrimSpace(pageToken)

	where, args := businessFilterClauses(filter)
	if pageToken != "" {
		if where != "" {
			where += " AND "
		}
		where += "id > ?"
		args = append(args, pageToken)
	}
	query := `SELECT ` + businessColumns + ` FROM businesses`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return storage.BusinessPage{}, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	page := storage.BusinessPage{Businesses: make([]business.Business, 0, pageSize)}
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return storage.BusinessPage{}, fmt.Errorf("list businesses: %w", err)
		}
		page.Businesses = append(page.Businesses, b)
	}
	if err := rows.Err(); err != nil {
		return storage.BusinessPage{}, fmt.Errorf("list businesses: %w", err)
	}
	if len(page.Businesses) > pageSize {
		page.NextPageToken = page.Businesses[pageSize-1].ID
		page.Businesses = page.Businesses[:pageSize]
	}
	return page, nil
}

// CountBusinesses counts businesses matching the filter.
func (s *Store) CountBusinesses(ctx context.Context, filter storage.BusinessFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}

	where, args := businessFilterClauses(filter)
	query := `SELECT COUNT(*) FROM businesses`
	if where != "" {
		query += ` WHERE ` + where
	}

	var count int
	if err := s.sqlDB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count businesses: %w", err)
	}
	return count, nil
}

// CreateSector inserts one sector record.
func (s *Store) CreateSector(ctx context.Context, sector business.Sector) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(sector.ID) == "" {
		return fmt.Errorf("sector id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO business_sectors (id, name, description, created_at)
		 VALUES (?, ?, ?, ?)`,
		sector.ID,
		sector.Name,
		sector.Description,
		toMillis(sector.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create sector: %w", err)
	}
	return nil
}

// GetSector returns one sector by ID.
func (s *Store) GetSector(ctx context.Context, id string) (business.Sector, error) {
	if err := ctx.Err(); err != nil {
		return business.Sector{}, err
	}
	if err := s.ready(); err != nil {
		return business.Sector{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return business.Sector{}, fmt.Errorf("sector id is required")
	}

	var sector business.Sector
	var createdAt int64
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, description, created_at FROM business_sectors WHERE id = ?`,
		id,
	).Scan(&sector.ID, &sector.Name, &sector.Description, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return business.Sector{}, storage.ErrNotFound
		}
		return business.Sector{}, fmt.Errorf("get sector: %w", err)
	}
	sector.CreatedAt = fromMillis(createdAt)
	return sector, nil
}

// ListSectors returns all sectors ordered by name.
func (s *Store) ListSectors(ctx context.Context) ([]business.Sector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, name, description, created_at FROM business_sectors ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	defer rows.Close()

	var sectors []business.Sector
	for rows.Next() {
		var sector business.Sector
		var createdAt int64
		if err := rows.Scan(&sector.ID, &sector.Name, &sector.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("list sectors: %w", err)
		}
		sector.CreatedAt = fromMillis(createdAt)
		sectors = append(sectors, sector)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	return sectors, nil
}

var (
	_ storage.BusinessStore = (*Store)(nil)
	_ storage.SectorStore   = (*Store)(nil)
)
