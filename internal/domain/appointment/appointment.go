// Package appointment defines booked appointments and their lifecycle rules.
package appointment

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/platform/id"
)

// Status describes the lifecycle of an appointment.
type Status int

const (
	// StatusUnspecified represents an invalid appointment status value.
	StatusUnspecified Status = iota
	// StatusPending indicates the appointment awaits confirmation.
	StatusPending
	// StatusConfirmed indicates the appointment is confirmed.
	StatusConfirmed
	// StatusCompleted indicates the appointment took place. Terminal.
	StatusCompleted
	// StatusCancelled indicates the appointment was cancelled. Terminal.
	StatusCancelled
	// StatusNoShow indicates the customer did not show up. Terminal.
	StatusNoShow
)

// ClockSkewAllowance tolerates small clock drift when rejecting bookings in
// the past.
const ClockSkewAllowance = time.Minute

var (
	// ErrEmptyCustomerName indicates a missing customer name.
	ErrEmptyCustomerName = apperrors.New(apperrors.CodeAppointmentCustomerNameEmpty, "customer name is required")
	// ErrInvalidTimeRange indicates a start at or after the end.
	ErrInvalidTimeRange = apperrors.New(apperrors.CodeAppointmentInvalidTimeRange, "appointment start must precede end")
	// ErrStartInPast indicates a booking start before the current time.
	ErrStartInPast = apperrors.New(apperrors.CodeAppointmentStartInPast, "appointment start is in the past")
	// ErrEmptyCancelReason indicates a cancellation without a reason.
	ErrEmptyCancelReason = apperrors.New(apperrors.CodeAppointmentCancelReasonEmpty, "cancellation reason is required")
)

// Customer holds the contact details captured at booking time.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// Appointment represents one booked time range on a calendar.
type Appointment struct {
	ID         string
	BusinessID string
	CalendarID string
	ServiceID  string
	// StaffID is derived from the calendar when its kind is STAFF.
	StaffID  string
	Customer Customer
	// StartTime and EndTime are UTC; EndTime is StartTime plus the service
	// duration at booking time.
	StartTime    time.Time
	EndTime      time.Time
	Status       Status
	Notes        string
	CancelReason string
	CancelledAt  *time.Time
	RemindedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Blocking reports whether an appointment in this status blocks its time
// range on the calendar. Terminal statuses never block.
func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Overlaps reports whether two half-open [start, end) ranges intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// CreateInput describes the data needed to book an appointment.
type CreateInput struct {
	BusinessID string
	CalendarID string
	ServiceID  string
	StaffID    string
	Customer   Customer
	StartTime  time.Time
	Duration   time.Duration
	Notes      string
}

// Create books a new appointment with a generated ID and timestamps.
// The appointment starts in PENDING.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Appointment, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.Customer.Name = strings.TrimSpace(input.Customer.Name)
	if input.Customer.Name == "" {
		return Appointment{}, ErrEmptyCustomerName
	}
	input.Customer.Email = strings.ToLower(strings.TrimSpace(input.Customer.Email))
	input.Customer.Phone = strings.TrimSpace(input.Customer.Phone)

	if input.Duration <= 0 {
		return Appointment{}, ErrInvalidTimeRange
	}
	start := input.StartTime.UTC()
	end := start.Add(input.Duration)
	current := now().UTC()
	if start.Before(current.Add(-ClockSkewAllowance)) {
		return Appointment{}, ErrStartInPast
	}

	appointmentID, err := idGenerator()
	if err != nil {
		return Appointment{}, fmt.Errorf("generate appointment id: %w", err)
	}

	return Appointment{
		ID:         appointmentID,
		BusinessID: strings.TrimSpace(input.BusinessID),
		CalendarID: strings.TrimSpace(input.CalendarID),
		ServiceID:  strings.TrimSpace(input.ServiceID),
		StaffID:    strings.TrimSpace(input.StaffID),
		Customer:   input.Customer,
		StartTime:  start,
		EndTime:    end,
		Status:     StatusPending,
		Notes:      strings.TrimSpace(input.Notes),
		CreatedAt:  current,
		UpdatedAt:  current,
	}, nil
}

func transitionError(from, to Status) error {
	fromStatus := StatusLabel(from)
	toStatus := StatusLabel(to)
	return apperrors.WithMetadata(
		apperrors.CodeAppointmentInvalidStatusTransition,
		fmt.Sprintf("appointment status transition not allowed: %s -> %s", fromStatus, toStatus),
		map[string]string{"FromStatus": fromStatus, "ToStatus": toStatus},
	)
}

// Confirm moves a PENDING appointment to CONFIRMED.
func Confirm(appt Appointment, now func() time.Time) (Appointment, error) {
	if now == nil {
		now = time.Now
	}
	if appt.Status != StatusPending {
		return Appointment{}, transitionError(appt.Status, StatusConfirmed)
	}
	appt.Status = StatusConfirmed
	appt.UpdatedAt = now().UTC()
	return appt, nil
}

// Cancel cancels a PENDING or CONFIRMED appointment, recording the reason.
func Cancel(appt Appointment, reason string, now func() time.Time) (Appointment, error) {
	if now == nil {
		now = time.Now
	}
	if !appt.Status.Blocking() {
		return Appointment{}, transitionError(appt.Status, StatusCancelled)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Appointment{}, ErrEmptyCancelReason
	}
	cancelledAt := now().UTC()
	appt.Status = StatusCancelled
	appt.CancelReason = reason
	appt.CancelledAt = &cancelledAt
	appt.UpdatedAt = cancelledAt
	return appt, nil
}

// Complete moves a CONFIRMED appointment to COMPLETED.
func Complete(appt Appointment, now func() time.Time) (Appointment, error) {
	if now == nil {
		now = time.Now
	}
	if appt.Status != StatusConfirmed {
		return Appointment{}, transitionError(appt.Status, StatusCompleted)
	}
	appt.Status = StatusCompleted
	appt.UpdatedAt = now().UTC()
	return appt, nil
}

// MarkNoShow moves a CONFIRMED appointment to NO_SHOW.
func MarkNoShow(appt Appointment, now func() time.Time) (Appointment, error) {
	if now == nil {
		now = time.Now
	}
	if appt.Status != StatusConfirmed {
		return Appointment{}, transitionError(appt.Status, StatusNoShow)
	}
	appt.Status = StatusNoShow
	appt.UpdatedAt = now().UTC()
	return appt, nil
}

// Reschedule moves a PENDING or CONFIRMED appointment to a new time range.
// A confirmed appointment returns to PENDING and must be re-confirmed.
func Reschedule(appt Appointment, start time.Time, duration time.Duration, now func() time.Time) (Appointment, error) {
	if now == nil {
		now = time.Now
	}
	if !appt.Status.Blocking() {
		return Appointment{}, transitionError(appt.Status, StatusPending)
	}
	if duration <= 0 {
		return Appointment{}, ErrInvalidTimeRange
	}
	current := now().UTC()
	newStart := start.UTC()
	if newStart.Before(current.Add(-ClockSkewAllowance)) {
		return Appointment{}, ErrStartInPast
	}
	appt.StartTime = newStart
	appt.EndTime = newStart.Add(duration)
	appt.Status = StatusPending
	appt.RemindedAt = nil
	appt.UpdatedAt = current
	return appt, nil
}

// StatusLabel returns a stable label for an appointment status.
func StatusLabel(status Status) string {
	switch status {
	case StatusPending:
		return "PENDING"
	case StatusConfirmed:
		return "CONFIRMED"
	case StatusCompleted:
		return "COMPLETED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusNoShow:
		return "NO_SHOW"
	default:
		return "UNSPECIFIED"
	}
}

// StatusFromLabel parses a string label into a Status.
// It trims whitespace and matches case-insensitively. Both short ("PENDING")
// and prefixed ("APPOINTMENT_STATUS_PENDING") forms are accepted.
func StatusFromLabel(value string) (Status, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return StatusUnspecified, fmt.Errorf("appointment status is required")
	}
	switch strings.ToUpper(trimmed) {
	case "PENDING", "APPOINTMENT_STATUS_PENDING":
		return StatusPending, nil
	case "CONFIRMED", "APPOINTMENT_STATUS_CONFIRMED":
		return StatusConfirmed, nil
	case "COMPLETED", "APPOINTMENT_STATUS_COMPLETED":
		return StatusCompleted, nil
	case "CANCELLED", "APPOINTMENT_STATUS_CANCELLED":
		return StatusCancelled, nil
	case "NO_SHOW", "APPOINTMENT_STATUS_NO_SHOW":
		return StatusNoShow, nil
	default:
		return StatusUnspecified, fmt.Errorf("unknown appointment status: %s", trimmed)
	}
}
