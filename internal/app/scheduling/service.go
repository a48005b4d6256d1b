// Package scheduling books appointments and walks them through their
// lifecycle.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/plannio/plannio/internal/analytics"
	"github.com/plannio/plannio/internal/app/access"
	appbilling "github.com/plannio/plannio/internal/app/billing"
	"github.com/plannio/plannio/internal/auth"
	"github.com/plannio/plannio/internal/domain/appointment"
	"github.com/plannio/plannio/internal/domain/business"
	"github.com/plannio/plannio/internal/domain/calendar"
	"github.com/plannio/plannio/internal/domain/offering"
	"github.com/plannio/plannio/internal/domain/rbac"
	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/platform/id"
	"github.com/plannio/plannio/internal/storage"
)

var (
	// ErrConflict indicates the requested range overlaps a blocking
	// appointment on the same calendar.
	ErrConflict = apperrors.New(apperrors.CodeAppointmentConflict, "appointment conflicts with an existing booking")
	// ErrOutsideWorkingHours indicates the requested range is not covered by
	// the calendar's working hours.
	ErrOutsideWorkingHours = apperrors.New(apperrors.CodeAppointmentOutsideWorkingHours, "appointment is outside working hours")
)

// Service implements the appointment booking use-cases.
type Service struct {
	appointments storage.AppointmentStore
	calendars    storage.CalendarStore
	services     storage.ServiceStore
	businesses   storage.BusinessStore
	access       *access.Service
	billing      *appbilling.Service
	analytics    *analytics.Emitter
	now          func() time.Time
	idGenerator  func() (string, error)
}

// NewService creates a scheduling service.
func NewService(
	appointments storage.AppointmentStore,
	calendars storage.CalendarStore,
	services storage.ServiceStore,
	businesses storage.BusinessStore,
	accessService *access.Service,
	billingService *appbilling.Service,
	emitter *analytics.Emitter,
	now func() time.Time,
	idGenerator func() (string, error),
) *Service {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return &Service{
		appointments: appointments,
		calendars:    calendars,
		services:     services,
		businesses:   businesses,
		access:       accessService,
		billing:      billingService,
		analytics:    emitter,
		now:          now,
		idGenerator:  idGenerator,
	}
}

// BookInput describes an appointment booking request.
type BookInput struct {
	CalendarID string
	ServiceID  string
	Customer   appointment.Customer
	StartTime  time.Time
	Notes      string
}

// BookAppointment books a new appointment. The end time is the start plus the
// service duration; staff is derived from the calendar. The booking must fall
// inside working hours, must not overlap a blocking appointment, and counts
// against the subscription's appointment quota.
func (s *Service) BookAppointment(ctx context.Context, principal auth.Principal, businessID string, input BookInput) (appointment.Appointment, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageAppointments); err != nil {
		return appointment.Appointment{}, err
	}
	if _, err := s.loadActiveBusiness(ctx, businessID); err != nil {
		return appointment.Appointment{}, err
	}
	svc, err := s.loadActiveService(ctx, businessID, input.ServiceID)
	if err != nil {
		return appointment.Appointment{}, err
	}
	cal, err := s.loadActiveCalendar(ctx, businessID, input.CalendarID)
	if err != nil {
		return appointment.Appointment{}, err
	}
	if err := s.billing.CheckAppointmentQuota(ctx, businessID); err != nil {
		return appointment.Appointment{}, err
	}

	booked, err := appointment.Create(appointment.CreateInput{
		BusinessID: businessID,
		CalendarID: cal.ID,
		ServiceID:  svc.ID,
		StaffID:    cal.StaffID,
		Customer:   input.Customer,
		StartTime:  input.StartTime,
		Duration:   svc.Duration(),
		Notes:      input.Notes,
	}, s.now, s.idGenerator)
	if err != nil {
		return appointment.Appointment{}, err
	}

	if err := s.checkAvailability(ctx, cal, booked.StartTime, booked.EndTime, ""); err != nil {
		return appointment.Appointment{}, err
	}
	if err := s.appointments.CreateAppointment(ctx, booked); err != nil {
		return appointment.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "appointment.booked", booked.ID, map[string]string{
		"calendar_id": booked.CalendarID,
		"service_id":  booked.ServiceID,
		"start_time":  booked.StartTime.Format(time.RFC3339),
	})
	return booked, nil
}

// ConfirmAppointment confirms a pending appointment.
func (s *Service) ConfirmAppointment(ctx context.Context, principal auth.Principal, businessID, appointmentID string) (appointment.Appointment, error) {
	return s.transition(ctx, principal, businessID, appointmentID, "appointment.confirmed", func(appt appointment.Appointment) (appointment.Appointment, error) {
		return appointment.Confirm(appt, s.now)
	})
}

// CompleteAppointment marks a confirmed appointment as completed.
func (s *Service) CompleteAppointment(ctx context.Context, principal auth.Principal, businessID, appointmentID string) (appointment.Appointment, error) {
	return s.transition(ctx, principal, businessID, appointmentID, "appointment.completed", func(appt appointment.Appointment) (appointment.Appointment, error) {
		return appointment.Complete(appt, s.now)
	})
}

// MarkNoShow marks a confirmed appointment as a no-show.
func (s *Service) MarkNoShow(ctx context.Context, principal auth.Principal, businessID, appointmentID string) (appointment.Appointment, error) {
	return s.transition(ctx, principal, businessID, appointmentID, "appointment.no_show", func(appt appointment.Appointment) (appointment.Appointment, error) {
		return appointment.MarkNoShow(appt, s.now)
	})
}

// CancelAppointment cancels a blocking appointment, recording the reason.
func (s *Service) CancelAppointment(ctx context.Context, principal auth.Principal, businessID, appointmentID, reason string) (appointment.Appointment, error) {
	return s.transition(ctx, principal, businessID, appointmentID, "appointment.cancelled", func(appt appointment.Appointment) (appointment.Appointment, error) {
		return appointment.Cancel(appt, reason, s.now)
	})
}

// RescheduleAppointment moves an appointment to a new start time, keeping the
// service duration. The appointment returns to PENDING and its reminder state
// is cleared.
func (s *Service) RescheduleAppointment(ctx context.Context, principal auth.Principal, businessID, appointmentID string, start time.Time) (appointment.Appointment, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageAppointments); err != nil {
		return appointment.Appointment{}, err
	}
	appt, err := s.loadAppointment(ctx, businessID, appointmentID)
	if err != nil {
		return appointment.Appointment{}, err
	}
	svc, err := s.loadActiveService(ctx, businessID, appt.ServiceID)
	if err != nil {
		return appointment.Appointment{}, err
	}
	cal, err := s.loadActiveCalendar(ctx, businessID, appt.CalendarID)
	if err != nil {
		return appointment.Appointment{}, err
	}

	moved, err := appointment.Reschedule(appt, start, svc.Duration(), s.now)
	if err != nil {
		return appointment.Appointment{}, err
	}
	if err := s.checkAvailability(ctx, cal, moved.StartTime, moved.EndTime, moved.ID); err != nil {
		return appointment.Appointment{}, err
	}
	if err := s.appointments.UpdateAppointment(ctx, moved); err != nil {
		return appointment.Appointment{}, fmt.Errorf("update appointment: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "appointment.rescheduled", moved.ID, map[string]string{
		"start_time": moved.StartTime.Format(time.RFC3339),
	})
	return moved, nil
}

// UpdateAppointmentInput carries the fields mutable after booking.
type UpdateAppointmentInput struct {
	Notes    string
	Customer appointment.Customer
}

// UpdateAppointment updates notes and customer contact details. Times and
// status move through the dedicated operations.
func (s *Service) UpdateAppointment(ctx context.Context, principal auth.Principal, businessID, appointmentID string, input UpdateAppointmentInput) (appointment.Appointment, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageAppointments); err != nil {
		return appointment.Appointment{}, err
	}
	appt, err := s.loadAppointment(ctx, businessID, appointmentID)
	if err != nil {
		return appointment.Appointment{}, err
	}

	name := input.Customer.Name
	if name == "" {
		name = appt.Customer.Name
	}
	appt.Customer = appointment.Customer{
		Name:  name,
		Email: input.Customer.Email,
		Phone: input.Customer.Phone,
	}
	appt.Notes = input.Notes
	appt.UpdatedAt = s.now().UTC()

	if err := s.appointments.UpdateAppointment(ctx, appt); err != nil {
		return appointment.Appointment{}, fmt.Errorf("update appointment: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "appointment.updated", appt.ID, nil)
	return appt, nil
}

// GetAppointment returns one appointment of a business.
func (s *Service) GetAppointment(ctx context.Context, principal auth.Principal, businessID, appointmentID string) (appointment.Appointment, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermViewAppointments); err != nil {
		return appointment.Appointment{}, err
	}
	return s.loadAppointment(ctx, businessID, appointmentID)
}

// ListAppointments returns one page of appointments matching the filter.
func (s *Service) ListAppointments(ctx context.Context, principal auth.Principal, businessID string, filter storage.AppointmentFilter, pageSize int, pageToken string) (storage.AppointmentPage, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermViewAppointments); err != nil {
		return storage.AppointmentPage{}, err
	}
	return s.appointments.ListAppointments(ctx, businessID, filter, pageSize, pageToken)
}

// Slot is one bookable time range.
type Slot struct {
	Start time.Time
	End   time.Time
}

// ListAvailableSlots generates the open slots of one calendar day for a
// service: working-hour intervals in the calendar's timezone, stepped by the
// service duration, minus blocking appointments and past times.
func (s *Service) ListAvailableSlots(ctx context.Context, principal auth.Principal, businessID, calendarID, serviceID string, day time.Time) ([]Slot, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermViewAppointments); err != nil {
		return nil, err
	}
	svc, err := s.loadActiveService(ctx, businessID, serviceID)
	if err != nil {
		return nil, err
	}
	cal, err := s.loadActiveCalendar(ctx, businessID, calendarID)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cal.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cal.Timezone, err)
	}
	local := day.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	intervals := cal.Hours[int(midnight.Weekday())]
	if cal.Hours.IsZero() {
		// Calendars without configured hours are open around the clock.
		intervals = []calendar.Interval{{StartMinute: 0, EndMinute: calendar.MinutesPerDay}}
	}
	if len(intervals) == 0 {
		return nil, nil
	}

	dayStart := midnight.UTC()
	dayEnd := midnight.AddDate(0, 0, 1).UTC()
	busy, err := s.appointments.FindConflictingAppointments(ctx, cal.ID, dayStart, dayEnd, "")
	if err != nil {
		return nil, fmt.Errorf("find conflicting appointments: %w", err)
	}

	duration := svc.Duration()
	earliest := s.now().UTC().Add(-appointment.ClockSkewAllowance)
	var slots []Slot
	for _, iv := range intervals {
		start := midnight.Add(time.Duration(iv.StartMinute) * time.Minute)
		end := midnight.Add(time.Duration(iv.EndMinute) * time.Minute)
		for cursor := start; !cursor.Add(duration).After(end); cursor = cursor.Add(duration) {
			slotStart := cursor.UTC()
			slotEnd := cursor.Add(duration).UTC()
			if slotStart.Before(earliest) {
				continue
			}
			if slotTaken(busy, slotStart, slotEnd) {
				continue
			}
			slots = append(slots, Slot{Start: slotStart, End: slotEnd})
		}
	}
	return slots, nil
}

func slotTaken(busy []appointment.Appointment, start, end time.Time) bool {
	for _, appt := range busy {
		if appointment.Overlaps(start, end, appt.StartTime, appt.EndTime) {
			return true
		}
	}
	return false
}

// checkAvailability enforces working hours and overlap rules for a range on a
// calendar.
func (s *Service) checkAvailability(ctx context.Context, cal calendar.Calendar, start, end time.Time, excludeID string) error {
	if !cal.Hours.IsZero() {
		covered, err := cal.Hours.Covers(start, end, cal.Timezone)
		if err != nil {
			return fmt.Errorf("check working hours: %w", err)
		}
		if !covered {
			return ErrOutsideWorkingHours
		}
	}
	conflicts, err := s.appointments.FindConflictingAppointments(ctx, cal.ID, start, end, excludeID)
	if err != nil {
		return fmt.Errorf("find conflicting appointments: %w", err)
	}
	if len(conflicts) > 0 {
		return ErrConflict
	}
	return nil
}

func (s *Service) transition(ctx context.Context, principal auth.Principal, businessID, appointmentID, action string, apply func(appointment.Appointment) (appointment.Appointment, error)) (appointment.Appointment, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageAppointments); err != nil {
		return appointment.Appointment{}, err
	}
	appt, err := s.loadAppointment(ctx, businessID, appointmentID)
	if err != nil {
		return appointment.Appointment{}, err
	}
	updated, err := apply(appt)
	if err != nil {
		return appointment.Appointment{}, err
	}
	if err := s.appointments.UpdateAppointment(ctx, updated); err != nil {
		return appointment.Appointment{}, fmt.Errorf("update appointment: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, action, updated.ID, map[string]string{
		"status": appointment.StatusLabel(updated.Status),
	})
	return updated, nil
}

func (s *Service) loadAppointment(ctx context.Context, businessID, appointmentID string) (appointment.Appointment, error) {
	appt, err := s.appointments.GetAppointment(ctx, businessID, appointmentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return appointment.Appointment{}, apperrors.New(apperrors.CodeNotFound, "appointment not found")
		}
		return appointment.Appointment{}, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (s *Service) loadActiveBusiness(ctx context.Context, businessID string) (business.Business, error) {
	b, err := s.businesses.GetBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return business.Business{}, apperrors.New(apperrors.CodeNotFound, "business not found")
		}
		return business.Business{}, fmt.Errorf("get business: %w", err)
	}
	if b.Status != business.StatusActive {
		return business.Business{}, apperrors.New(apperrors.CodeBusinessSuspended, "business is not active")
	}
	return b, nil
}

func (s *Service) loadActiveService(ctx context.Context, businessID, serviceID string) (offering.Service, error) {
	svc, err := s.services.GetService(ctx, businessID, serviceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return offering.Service{}, apperrors.New(apperrors.CodeNotFound, "service not found")
		}
		return offering.Service{}, fmt.Errorf("get service: %w", err)
	}
	if !svc.Active {
		return offering.Service{}, apperrors.New(apperrors.CodeServiceInactive, "service is inactive")
	}
	return svc, nil
}

func (s *Service) loadActiveCalendar(ctx context.Context, businessID, calendarID string) (calendar.Calendar, error) {
	cal, err := s.calendars.GetCalendar(ctx, businessID, calendarID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return calendar.Calendar{}, apperrors.New(apperrors.CodeNotFound, "calendar not found")
		}
		return calendar.Calendar{}, fmt.Errorf("get calendar: %w", err)
	}
	if !cal.Active {
		return calendar.Calendar{}, apperrors.New(apperrors.CodeCalendarInactive, "calendar is inactive")
	}
	return cal, nil
}

func (s *Service) audit(ctx context.Context, businessID, actorID, action, entityID string, metadata map[string]string) {
	err := s.analytics.Emit(ctx, analytics.Event{
		BusinessID: businessID,
		ActorID:    actorID,
		Action:     action,
		Entity:     "appointment",
		EntityID:   entityID,
		Metadata:   metadata,
	})
	if err != nil {
		log.Printf("scheduling: emit audit event: %v", err)
	}
}
