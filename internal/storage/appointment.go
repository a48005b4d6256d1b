package storage

import (
	"context"
	"time"

	"github.com/plannio/plannio/internal/domain/appointment"
)

// AppointmentFilter narrows appointment listings. Zero fields are ignored.
type AppointmentFilter struct {
	CalendarID string
	StaffID    string
	ServiceID  string
	Status     appointment.Status
	// From and To bound the appointment start time, half-open [From, To).
	From time.Time
	To   time.Time
}

// AppointmentPage stores one page of appointment records.
type AppointmentPage struct {
	Appointments  []appointment.Appointment
	NextPageToken string
}

// AppointmentStore persists appointment records.
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, a appointment.Appointment) error
	GetAppointment(ctx context.Context, businessID, id string) (appointment.Appointment, error)
	UpdateAppointment(ctx context.Context, a appointment.Appointment) error
	ListAppointments(ctx context.Context, businessID string, filter AppointmentFilter, pageSize int, pageToken string) (AppointmentPage, error)

	// FindConflictingAppointments returns blocking appointments on the calendar
	// whose [start, end) window overlaps the given one. excludeID skips one
	// appointment, used when rescheduling.
	FindConflictingAppointments(ctx context.Context, calendarID string, start, end time.Time, excludeID string) ([]appointment.Appointment, error)

	// CountAppointmentsCreatedBetween counts quota-relevant appointments a
	// business created within [from, to). Cancelled and no-show appointments
	// are excluded.
	CountAppointmentsCreatedBetween(ctx context.Context, businessID string, from, to time.Time) (int, error)

	// ListDueReminders returns confirmed, unreminded appointments starting
	// within [now, now+leadWindow).
	ListDueReminders(ctx context.Context, now time.Time, leadWindow time.Duration, limit int) ([]appointment.Appointment, error)
}
