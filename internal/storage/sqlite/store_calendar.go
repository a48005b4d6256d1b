package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/plannio/plannio/internal/domain/calendar"
	"github.com/plannio/plannio/internal/storage"
)

const calendarColumns = `id, business_id, name, kind, staff_id, timezone, active,
       created_at, updated_at`

func scanCalendar(row interface{ Scan(...any) error }) (calendar.Calendar, error) {
	var c calendar.Calendar
	var kind, active int
	var createdAt, updatedAt int64
	if err := row.Scan(
		&c.ID,
		&c.BusinessID,
		&c.Name,
		&kind,
		&c.StaffID,
		&c.Timezone,
		&active,
		&createdAt,
		&updatedAt,
	); err != nil {
		return calendar.Calendar{}, err
	}
	c.Kind = calendar.Kind(kind)
	c.Active = active != 0
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}

func insertCalendarHours(ctx context.Context, tx *sql.Tx, calendarID string, hours calendar.WeekHours) error {
	for day := 0; day < 7; day++ {
		for _, iv := range hours[day] {
			_, err := tx.ExecContext(
				ctx,
				`INSERT INTO calendar_hours (calendar_id, weekday, start_minute, end_minute)
				 VALUES (?, ?, ?, ?)`,
				calendarID,
				day,
				iv.StartMinute,
				iv.EndMinute,
			)
			if err != nil {
				return fmt.Errorf("insert calendar hours: %w", err)
			}
		}
	}
	return nil
}

func (s *Store) loadCalendarHours(ctx context.Context, calendarID string) (calendar.WeekHours, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT weekday, start_minute, end_minute
		   FROM calendar_hours
		  WHERE calendar_id = ?
		  ORDER BY weekday ASC, start_minute ASC`,
		calendarID,
	)
	if err != nil {
		return calendar.WeekHours{}, fmt.Errorf("load calendar hours: %w", err)
	}
	defer rows.Close()

	var hours calendar.WeekHours
	for rows.Next() {
		var weekday int
		var iv calendar.Interval
		if err := rows.Scan(&weekday, &iv.StartMinute, &iv.EndMinute); err != nil {
			return calendar.WeekHours{}, fmt.Errorf("load calendar hours: %w", err)
		}
		if weekday < 0 || weekday > 6 {
			return calendar.WeekHours{}, fmt.Errorf("load calendar hours: weekday %d out of range", weekday)
		}
		hours[weekday] = append(hours[weekday], iv)
	}
	if err := rows.Err(); err != nil {
		return calendar.WeekHours{}, fmt.Errorf("load calendar hours: %w", err)
	}
	return hours, nil
}

// CreateCalendar inserts one calendar record and its working hours.
func (s *Store) CreateCalendar(ctx context.Context, c calendar.Calendar) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("calendar id is required")
	}
	if strings.TrimSpace(c.BusinessID) == "" {
		return fmt.Errorf("business id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create calendar: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	active := 0
	if c.Active {
		active = 1
	}
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO calendars (
		   id, business_id, name, kind, staff_id, timezone, active,
		   created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.BusinessID,
		c.Name,
		int(c.Kind),
		c.StaffID,
		c.Timezone,
		active,
		toMillis(c.CreatedAt),
		toMillis(c.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create calendar: %w", err)
	}
	if err := insertCalendarHours(ctx, tx, c.ID, c.Hours); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create calendar: %w", err)
	}
	return nil
}

// GetCalendar returns one calendar with its working hours, scoped by business.
func (s *Store) GetCalendar(ctx context.Context, businessID, id string) (calendar.Calendar, error) {
	if err := ctx.Err(); err != nil {
		return calendar.Calendar{}, err
	}
	if err := s.ready(); err != nil {
		return calendar.Calendar{}, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+calendarColumns+` FROM calendars WHERE business_id = ? AND id = ?`,
		strings.TrimSpace(businessID),
		strings.TrimSpace(id),
	)
	c, err := scanCalendar(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return calendar.Calendar{}, storage.ErrNotFound
		}
		return calendar.Calendar{}, fmt.Errorf("get calendar: %w", err)
	}
	hours, err := s.loadCalendarHours(ctx, c.ID)
	if err != nil {
		return calendar.Calendar{}, err
	}
	c.Hours = hours
	return c, nil
}

// UpdateCalendar updates one calendar record, replacing its working hours.
func (s *Store) UpdateCalendar(ctx context.Context, c calendar.Calendar) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update calendar: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	active := 0
	if c.Active {
		active = 1
	}
	result, err := tx.ExecContext(
		ctx,
		`UPDATE calendars
		    SET name = ?, kind = ?, staff_id = ?, timezone = ?, active = ?, updated_at = ?
		  WHERE business_id = ? AND id = ?`,
		c.Name,
		int(c.Kind),
		c.StaffID,
		c.Timezone,
		active,
		toMillis(c.UpdatedAt),
		c.BusinessID,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update calendar: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update calendar: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_hours WHERE calendar_id = ?`, c.ID); err != nil {
		return fmt.Errorf("update calendar: %w", err)
	}
	if err := insertCalendarHours(ctx, tx, c.ID, c.Hours); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update calendar: %w", err)
	}
	return nil
}

// DeleteCalendar removes one calendar and its working hours, scoped by business.
func (s *Store) DeleteCalendar(ctx context.Context, businessID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM calendars WHERE business_id = ? AND id = ?`,
		strings.TrimSpace(businessID),
		strings.TrimSpace(id),
	)
	if err != nil {
		return fmt.Errorf("delete calendar: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete calendar: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListCalendars returns one page of calendar records with working hours,
// ordered by ID.
func (s *Store) ListCalendars(ctx context.Context, businessID string, pageSize int, pageToken string) (storage.CalendarPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.CalendarPage{}, err
	}
	if err := s.ready(); err != nil {
		return storage.CalendarPage{}, err
	}
	if pageSize <= 0 {
		return storage.CalendarPage{}, fmt.Errorf("page size must be greater than zero")
	}
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return storage.CalendarPage{}, fmt.Errorf("business id is required")
	}
	pageToken = strings.TrimSpace(pageToken)

	var (
		rows *sql.Rows
		err  error
	)
	if pageToken == "" {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT `+calendarColumns+` FROM calendars
			  WHERE business_id = ?
			  ORDER BY id ASC LIMIT ?`,
			businessID,
			pageSize+1,
		)
	} else {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT `+calendarColumns+` FROM calendars
			  WHERE business_id = ? AND id > ?
			  ORDER BY id ASC LIMIT ?`,
			businessID,
			pageToken,
			pageSize+1,
		)
	}
	if err != nil {
		return storage.CalendarPage{}, fmt.Errorf("list calendars: %w", err)
	}
	defer rows.Close()

	page := storage.CalendarPage{Calendars: make([]calendar.Calendar, 0, pageSize)}
	for rows.Next() {
		c, err := scanCalendar(rows)
		if err != nil {
			return storage.CalendarPage{}, fmt.Errorf("list calendars: %w", err)
		}
		page.Calendars = append(page.Calendars, c)
	}
	if err := rows.Err(); err != nil {
		return storage.CalendarPage{}, fmt.Errorf("list calendars: %w", err)
	}
	if len(page.Calendars) > pageSize {
		page.NextPageToken = page.Calendars[pageSize-1].ID
		page.Calendars = page.Calendars[:pageSize]
	}
	for i := range page.Calendars {
		hours, err := s.loadCalendarHours(ctx, page.Calendars[i].ID)
		if err != nil {
			return storage.CalendarPage{}, err
		}
		page.Calendars[i].Hours = hours
	}
	return page, nil
}

// CountCalendars counts calendars of a business.
func (s *Store) CountCalendars(ctx context.Context, businessID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}

	var count int
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM calendars WHERE business_id = ?`,
		strings.TrimSpace(businessID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count calendars: %w", err)
	}
	return count, nil
}

var _ storage.CalendarStore = (*Store)(nil)
