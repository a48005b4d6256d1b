package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/plannio/plannio/internal/domain/appointment"
	"github.com/plannio/plannio/internal/storage"
)

const appointmentColumns = `id, business_id, calendar_id, service_id, staff_id,
       customer_name, customer_email, customer_phone,
       start_time, end_time, status, notes, cancel_reason,
       cancelled_at, reminded_at, created_at, updated_at`

func scanAppointment(row interface{ Scan(...any) error }) (appointment.Appointment, error) {
	var a appointment.Appointment
	var status int
	var startTime, endTime, createdAt, updatedAt int64
	var cancelledAt, remindedAt sql.NullInt64
	if err := row.Scan(
		&a.ID,
		&a.BusinessID,
		&a.CalendarID,
		&a.ServiceID,
		&a.StaffID,
		&a.Customer.Name,
		&a.Customer.Email,
		&a.Customer.Phone,
		&startTime,
		&endTime,
		&status,
		&a.Notes,
		&a.CancelReason,
		&cancelledAt,
		&remindedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return appointment.Appointment{}, err
	}
	a.StartTime = fromMillis(startTime)
	a.EndTime = fromMillis(endTime)
	a.Status = appointment.Status(status)
	a.CancelledAt = fromNullMillis(cancelledAt)
	a.RemindedAt = fromNullMillis(remindedAt)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return a, nil
}

// CreateAppointment inserts one appointment record.
func (s *Store) CreateAppointment(ctx context.Context, a appointment.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("appointment id is required")
	}
	if strings.TrimSpace(a.BusinessID) == "" {
		return fmt.Errorf("business id is required")
	}
	if strings.TrimSpace(a.CalendarID) == "" {
		return fmt.Errorf("calendar id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO appointments (
		   id, business_id, calendar_id, service_id, staff_id,
		   customer_name, customer_email, customer_phone,
		   start_time, end_time, status, notes, cancel_reason,
		   cancelled_at, reminded_at, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.BusinessID,
		a.CalendarID,
		a.ServiceID,
		a.StaffID,
		a.Customer.Name,
		a.Customer.Email,
		a.Customer.Phone,
		toMillis(a.StartTime),
		toMillis(a.EndTime),
		int(a.Status),
		a.Notes,
		a.CancelReason,
		toNullMillis(a.CancelledAt),
		toNullMillis(a.RemindedAt),
		toMillis(a.CreatedAt),
		toMillis(a.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// GetAppointment returns one appointment scoped by business.
func (s *Store) GetAppointment(ctx context.Context, businessID, id string) (appointment.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return appointment.Appointment{}, err
	}
	if err := s.ready(); err != nil {
		return appointment.Appointment{}, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE business_id = ? AND id = ?`,
		strings.TrimSpace(businessID),
		strings.TrimSpace(id),
	)
	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appointment.Appointment{}, storage.ErrNotFound
		}
		return appointment.Appointment{}, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

// UpdateAppointment updates one appointment record.
func (s *Store) UpdateAppointment(ctx context.Context, a appointment.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE appointments
		    SET calendar_id = ?, service_id = ?, staff_id = ?,
		        customer_name = ?, customer_email = ?, customer_phone = ?,
		        start_time = ?, end_time = ?, status = ?, notes = ?,
		        cancel_reason = ?, cancelled_at = ?, reminded_at = ?, updated_at = ?
		  WHERE business_id = ? AND id = ?`,
		a.CalendarID,
		a.ServiceID,
		a.StaffID,
		a.Customer.Name,
		a.Customer.Email,
		a.Customer.Phone,
		toMillis(a.StartTime),
		toMillis(a.EndTime),
		int(a.Status),
		a.Notes,
		a.CancelReason,
		toNullMillis(a.CancelledAt),
		toNullMillis(a.RemindedAt),
		toMillis(a.UpdatedAt),
		a.BusinessID,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListAppointments returns one page of appointment records ordered by ID,
// which doubles as the keyset page token.
func (s *Store) ListAppointments(ctx context.Context, businessID string, filter storage.AppointmentFilter, pageSize int, pageToken string) (storage.AppointmentPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.AppointmentPage{}, err
	}
	if err := s.ready(); err != nil {
		return storage.AppointmentPage{}, err
	}
	if pageSize <= 0 {
		return storage.AppointmentPage{}, fmt.Errorf("page size must be greater than zero")
	}
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return storage.AppointmentPage{}, fmt.Errorf("business id is required")
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE business_id = ?`
	args := []any{businessID}
	if calendarID := strings.TrimSpace(filter.CalendarID); calendarID != "" {
		query += ` AND calendar_id = ?`
		args = append(args, calendarID)
	}
	if staffID := strings.TrimSpace(filter.StaffID); staffID != "" {
		query += ` AND staff_id = ?`
		args = append(args, staffID)
	}
	if serviceID := strings.TrimSpace(filter.ServiceID); serviceID != "" {
		query += ` AND service_id = ?`
		args = append(args, serviceID)
	}
	if filter.Status != appointment.StatusUnspecified {
		query += ` AND status = ?`
		args = append(args, int(filter.Status))
	}
	if !filter.From.IsZero() {
		query += ` AND start_time >= ?`
		args = append(args, toMillis(filter.From))
	}
	if !filter.To.IsZero() {
		query += ` AND start_time < ?`
		args = append(args, toMillis(filter.To))
	}
	if pageToken = strings.TrimSpace(pageToken); pageToken != "" {
		query += ` AND id > ?`
		args = append(args, pageToken)
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return storage.AppointmentPage{}, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	page := storage.AppointmentPage{Appointments: make([]appointment.Appointment, 0, pageSize)}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return storage.AppointmentPage{}, fmt.Errorf("list appointments: %w", err)
		}
		page.Appointments = append(page.Appointments, a)
	}
	if err := rows.Err(); err != nil {
		return storage.AppointmentPage{}, fmt.Errorf("list appointments: %w", err)
	}
	if len(page.Appointments) > pageSize {
		page.NextPageToken = page.Appointments[pageSize-1].ID
		page.Appointments = page.Appointments[:pageSize]
	}
	return page, nil
}

// FindConflictingAppointments returns blocking appointments overlapping the
// half-open [start, end) window on one calendar.
func (s *Store) FindConflictingAppointments(ctx context.Context, calendarID string, start, end time.Time, excludeID string) ([]appointment.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	calendarID = strings.TrimSpace(calendarID)
	if calendarID == "" {
		return nil, fmt.Errorf("calendar id is required")
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("start must precede end")
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments
	  WHERE calendar_id = ?
	    AND status IN (?, ?)
	    AND start_time < ?
	    AND end_time > ?`
	args := []any{
		calendarID,
		int(appointment.StatusPending),
		int(appointment.StatusConfirmed),
		toMillis(end),
		toMillis(start),
	}
	if excludeID = strings.TrimSpace(excludeID); excludeID != "" {
		query += ` AND id <> ?`
		args = append(args, excludeID)
	}
	query += ` ORDER BY start_time ASC`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find conflicting appointments: %w", err)
	}
	defer rows.Close()

	var conflicts []appointment.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("find conflicting appointments: %w", err)
		}
		conflicts = append(conflicts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find conflicting appointments: %w", err)
	}
	return conflicts, nil
}

// CountAppointmentsCreatedBetween counts quota-relevant appointments a business
// created within [from, to). Only pending, confirmed and completed appointments
// count against quota.
func (s *Store) CountAppointmentsCreatedBetween(ctx context.Context, businessID string, from, to time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}

	var count int
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM appointments
		  WHERE business_id = ?
		    AND created_at >= ? AND created_at < ?
		    AND status IN (?, ?, ?)`,
		strings.TrimSpace(businessID),
		toMillis(from),
		toMillis(to),
		int(appointment.StatusPending),
		int(appointment.StatusConfirmed),
		int(appointment.StatusCompleted),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count appointments: %w", err)
	}
	return count, nil
}

// ListDueReminders returns confirmed, unreminded appointments starting within
// [now, now+leadWindow), oldest first.
func (s *Store) ListDueReminders(ctx context.Context, now time.Time, leadWindow time.Duration, limit int) ([]appointment.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	if leadWindow <= 0 {
		return nil, fmt.Errorf("lead window must be greater than zero")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		  WHERE status = ?
		    AND reminded_at IS NULL
		    AND start_time >= ? AND start_time < ?
		  ORDER BY start_time ASC
		  LIMIT ?`,
		int(appointment.StatusConfirmed),
		toMillis(now),
		toMillis(now.Add(leadWindow)),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	defer rows.Close()

	var due []appointment.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("list due reminders: %w", err)
		}
		due = append(due, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return due, nil
}

var _ storage.AppointmentStore = (*Store)(nil)
