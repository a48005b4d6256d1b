package scheduling

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/plannio/plannio/internal/app/access"
	appbilling "github.com/plannio/plannio/internal/app/billing"
	"github.com/plannio/plannio/internal/auth"
	"github.com/plannio/plannio/internal/domain/appointment"
	"github.com/plannio/plannio/internal/domain/billing"
	"github.com/plannio/plannio/internal/domain/business"
	"github.com/plannio/plannio/internal/domain/calendar"
	"github.com/plannio/plannio/internal/domain/offering"
	"github.com/plannio/plannio/internal/domain/rbac"
	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/storage"
)

// fixedNow is a Tuesday, 09:00 UTC.
func fixedNow() time.Time {
	return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
}

var owner = auth.Principal{UserID: "user-owner"}

type testEnv struct {
	svc          *Service
	appointments *fakeAppointmentStore
	calendars    *fakeCalendarStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	var hours calendar.WeekHours
	// Open Tuesdays 09:00 to 17:00 UTC.
	hours[time.Tuesday] = []calendar.Interval{{StartMinute: 9 * 60, EndMinute: 17 * 60}}

	env := &testEnv{
		appointments: newFakeAppointmentStore(),
		calendars: &fakeCalendarStore{calendars: map[string]calendar.Calendar{
			"cal-1": {
				ID:         "cal-1",
				BusinessID: "biz-1",
				Name:       "Chair 1",
				Kind:       calendar.KindStaff,
				StaffID:    "staff-1",
				Timezone:   "UTC",
				Active:     true,
				Hours:      hours,
			},
			"cal-closed": {
				ID:         "cal-closed",
				BusinessID: "biz-1",
				Name:       "Retired",
				Kind:       calendar.KindRoom,
				Timezone:   "UTC",
				Active:     false,
			},
		}},
	}
	services := &fakeServiceStore{services: map[string]offering.Service{
		"svc-1": {
			ID:              "svc-1",
			BusinessID:      "biz-1",
			Name:            "Cut",
			DurationMinutes: 60,
			Active:          true,
		},
		"svc-off": {
			ID:              "svc-off",
			BusinessID:      "biz-1",
			Name:            "Legacy",
			DurationMinutes: 30,
			Active:          false,
		},
	}}
	businesses := &fixedBusinessStore{business: business.Business{
		ID:       "biz-1",
		Name:     "Salon",
		Timezone: "UTC",
		Status:   business.StatusActive,
	}}
	subscriptions := &fakeSubscriptionStore{subscription: billing.Subscription{
		BusinessID: "biz-1",
		PlanCode:   billing.PlanGrowth,
		Status:     billing.StatusActive,
		CycleStart: fixedNow().Add(-24 * time.Hour),
		CycleEnd:   fixedNow().Add(29 * 24 * time.Hour),
	}}
	assignments := &fakeAssignmentStore{assignments: []rbac.Assignment{
		{ID: "a-owner", UserID: "user-owner", BusinessID: "biz-1", Role: rbac.RoleOwner},
		{ID: "a-viewer", UserID: "user-viewer", BusinessID: "biz-1", Role: rbac.RoleViewer},
	}}

	counter := 0
	idGen := func() (string, error) {
		counter++
		return fmt.Sprintf("appt-%03d", counter), nil
	}
	accessSvc := access.NewService(assignments, nil, fixedNow, idGen)
	billingSvc := appbilling.NewService(subscriptions, fakeCycleStore{}, nil, nil, env.appointments, accessSvc, nil, fixedNow, idGen)
	env.svc = NewService(env.appointments, env.calendars, services, businesses, accessSvc, billingSvc, nil, fixedNow, idGen)
	return env
}

func book(t *testing.T, env *testEnv, start time.Time) appointment.Appointment {
	t.Helper()
	appt, err := env.svc.BookAppointment(context.Background(), owner, "biz-1", BookInput{
		CalendarID: "cal-1",
		ServiceID:  "svc-1",
		Customer:   appointment.Customer{Name: "Noa Martin"},
		StartTime:  start,
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return appt
}

func TestBookAppointment(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	start := fixedNow().Add(time.Hour)
	appt := book(t, env, start)

	if appt.Status != appointment.StatusPending {
		t.Fatalf("status = %v", appt.Status)
	}
	if appt.StaffID != "staff-1" {
		t.Fatalf("staff = %q, want derived from calendar", appt.StaffID)
	}
	if !appt.EndTime.Equal(start.Add(time.Hour)) {
		t.Fatalf("end = %v, want start plus service duration", appt.EndTime)
	}
}

func TestBookAppointmentRejectsConflicts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	start := fixedNow().Add(time.Hour)
	book(t, env, start)

	// Exact overlap and partial overlap both collide.
	for _, offset := range []time.Duration{0, 30 * time.Minute, -30 * time.Minute} {
		_, err := env.svc.BookAppointment(context.Background(), owner, "biz-1", BookInput{
			CalendarID: "cal-1",
			ServiceID:  "svc-1",
			Customer:   appointment.Customer{Name: "Late Comer"},
			StartTime:  start.Add(offset),
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("offset %v err = %v, want conflict", offset, err)
		}
	}

	// Back to back is fine: ranges are half-open.
	if _, err := env.svc.BookAppointment(context.Background(), owner, "biz-1", BookInput{
		CalendarID: "cal-1",
		ServiceID:  "svc-1",
		Customer:   appointment.Customer{Name: "Next Up"},
		StartTime:  start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("adjacent booking: %v", err)
	}
}

func TestBookAppointmentEnforcesWorkingHours(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	// 18:00 on an open day is past closing.
	_, err := env.svc.BookAppointment(context.Background(), owner, "biz-1", BookInput{
		CalendarID: "cal-1",
		ServiceID:  "svc-1",
		Customer:   appointment.Customer{Name: "Night Owl"},
		StartTime:  fixedNow().Add(9 * time.Hour),
	})
	if !errors.Is(err, ErrOutsideWorkingHours) {
		t.Fatalf("err = %v, want outside working hours", err)
	}

	// Wednesday has no hours at all.
	_, err = env.svc.BookAppointment(context.Background(), owner, "biz-1", BookInput{
		CalendarID: "cal-1",
		ServiceID:  "svc-1",
		Customer:   appointment.Customer{Name: "Wrong Day"},
		StartTime:  fixedNow().Add(25 * time.Hour),
	})
	if !errors.Is(err, ErrOutsideWorkingHours) {
		t.Fatalf("err = %v, want outside working hours", err)
	}
}

func TestBookAppointmentGuards(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	cases := []struct {
		name  string
		input BookInput
		code  apperrors.Code
	}{
		{
			name:  "inactive service",
			input: BookInput{CalendarID: "cal-1", ServiceID: "svc-off", Customer: appointment.Customer{Name: "x"}, StartTime: fixedNow().Add(time.Hour)},
			code:  apperrors.CodeServiceInactive,
		},
		{
			name:  "inactive calendar",
			input: BookInput{CalendarID: "cal-closed", ServiceID: "svc-1", Customer: appointment.Customer{Name: "x"}, StartTime: fixedNow().Add(time.Hour)},
			code:  apperrors.CodeCalendarInactive,
		},
		{
			name:  "unknown calendar",
			input: BookInput{CalendarID: "ghost", ServiceID: "svc-1", Customer: appointment.Customer{Name: "x"}, StartTime: fixedNow().Add(time.Hour)},
			code:  apperrors.CodeNotFound,
		},
		{
			name:  "start in past",
			input: BookInput{CalendarID: "cal-1", ServiceID: "svc-1", Customer: appointment.Customer{Name: "x"}, StartTime: fixedNow().Add(-time.Hour)},
			code:  apperrors.CodeAppointmentStartInPast,
		},
		{
			name:  "missing customer",
			input: BookInput{CalendarID: "cal-1", ServiceID: "svc-1", StartTime: fixedNow().Add(time.Hour)},
			code:  apperrors.CodeAppointmentCustomerNameEmpty,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := env.svc.BookAppointment(context.Background(), owner, "biz-1", tc.input)
			if apperrors.CodeOf(err) != tc.code {
				t.Fatalf("err = %v, want %s", err, tc.code)
			}
		})
	}

	// Viewers cannot book.
	if _, err := env.svc.BookAppointment(context.Background(), auth.Principal{UserID: "user-viewer"}, "biz-1", BookInput{
		CalendarID: "cal-1", ServiceID: "svc-1", Customer: appointment.Customer{Name: "x"}, StartTime: fixedNow().Add(time.Hour),
	}); !errors.Is(err, access.ErrPermissionDenied) {
		t.Fatalf("viewer err = %v", err)
	}
}

func TestAppointmentLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	appt := book(t, env, fixedNow().Add(time.Hour))

	confirmed, err := env.svc.ConfirmAppointment(context.Background(), owner, "biz-1", appt.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != appointment.StatusConfirmed {
		t.Fatalf("status = %v", confirmed.Status)
	}

	// Double confirm is an invalid transition.
	if _, err := env.svc.ConfirmAppointment(context.Background(), owner, "biz-1", appt.ID); apperrors.CodeOf(err) != apperrors.CodeAppointmentInvalidStatusTransition {
		t.Fatalf("double confirm err = %v", err)
	}

	completed, err := env.svc.CompleteAppointment(context.Background(), owner, "biz-1", appt.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != appointment.StatusCompleted {
		t.Fatalf("status = %v", completed.Status)
	}

	// Terminal states cannot be cancelled.
	if _, err := env.svc.CancelAppointment(context.Background(), owner, "biz-1", appt.ID, "changed plans"); apperrors.CodeOf(err) != apperrors.CodeAppointmentInvalidStatusTransition {
		t.Fatalf("cancel completed err = %v", err)
	}
}

func TestCancelAppointmentRequiresReason(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	appt := book(t, env, fixedNow().Add(time.Hour))

	if _, err := env.svc.CancelAppointment(context.Background(), owner, "biz-1", appt.ID, "  "); apperrors.CodeOf(err) != apperrors.CodeAppointmentCancelReasonEmpty {
		t.Fatalf("err = %v, want reason required", err)
	}
	cancelled, err := env.svc.CancelAppointment(context.Background(), owner, "biz-1", appt.ID, "customer called")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != appointment.StatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("cancelled = %+v", cancelled)
	}
}

func TestRescheduleAppointment(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	first := book(t, env, fixedNow().Add(time.Hour))
	second := book(t, env, fixedNow().Add(3*time.Hour))

	if _, err := env.svc.ConfirmAppointment(context.Background(), owner, "biz-1", first.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// Moving onto the other booking collides.
	if _, err := env.svc.RescheduleAppointment(context.Background(), owner, "biz-1", first.ID, second.StartTime); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}

	moved, err := env.svc.RescheduleAppointment(context.Background(), owner, "biz-1", first.ID, fixedNow().Add(5*time.Hour))
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if moved.Status != appointment.StatusPending {
		t.Fatalf("status = %v, want back to pending", moved.Status)
	}
	if moved.RemindedAt != nil {
		t.Fatal("reminder state must reset")
	}

	// Rescheduling over its own old range is allowed.
	if _, err := env.svc.RescheduleAppointment(context.Background(), owner, "biz-1", first.ID, moved.StartTime.Add(30*time.Minute)); err != nil {
		t.Fatalf("self overlap: %v", err)
	}
}

func TestBookAppointmentEnforcesQuota(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	// Pre-fill the cycle with enough bookings to exhaust the GROWTH quota.
	for i := 0; i < 1000; i++ {
		env.appointments.appointments[fmt.Sprintf("seed-%d", i)] = appointment.Appointment{
			ID:         fmt.Sprintf("seed-%d", i),
			BusinessID: "biz-1",
			CalendarID: "cal-other",
			Status:     appointment.StatusCompleted,
			CreatedAt:  fixedNow().Add(-time.Hour),
		}
	}
	_, err := env.svc.BookAppointment(context.Background(), owner, "biz-1", BookInput{
		CalendarID: "cal-1",
		ServiceID:  "svc-1",
		Customer:   appointment.Customer{Name: "Over Quota"},
		StartTime:  fixedNow().Add(time.Hour),
	})
	if apperrors.CodeOf(err) != apperrors.CodePlanLimitAppointmentsExceeded {
		t.Fatalf("err = %v, want quota exceeded", err)
	}
}

func TestUpdateAppointmentKeepsTimes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	appt := book(t, env, fixedNow().Add(time.Hour))

	updated, err := env.svc.UpdateAppointment(context.Background(), owner, "biz-1", appt.ID, UpdateAppointmentInput{
		Notes:    "bring photos",
		Customer: appointment.Customer{Name: "Noa Martin", Phone: "+33 1 23 45 67 89"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Notes != "bring photos" || updated.Customer.Phone == "" {
		t.Fatalf("updated = %+v", updated)
	}
	if !updated.StartTime.Equal(appt.StartTime) || updated.Status != appt.Status {
		t.Fatal("update must not touch schedule or status")
	}
}

func TestListAppointmentsFilters(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	first := book(t, env, fixedNow().Add(time.Hour))
	book(t, env, fixedNow().Add(3*time.Hour))
	if _, err := env.svc.ConfirmAppointment(context.Background(), owner, "biz-1", first.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	page, err := env.svc.ListAppointments(context.Background(), owner, "biz-1", storage.AppointmentFilter{
		Status: appointment.StatusConfirmed,
	}, 10, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Appointments) != 1 || page.Appointments[0].ID != first.ID {
		t.Fatalf("appointments = %+v", page.Appointments)
	}
}

func TestListAvailableSlots(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	// Block 11:00 to 12:00.
	book(t, env, fixedNow().Add(2*time.Hour))

	slots, err := env.svc.ListAvailableSlots(context.Background(), owner, "biz-1", "cal-1", "svc-1", fixedNow())
	if err != nil {
		t.Fatalf("slots: %v", err)
	}

	// Open 09:00 to 17:00, 60 minute service: eight hourly slots, minus the
	// booked 11:00 slot. 09:00 itself is still bookable at 09:00 sharp.
	want := []time.Time{
		fixedNow(),
		fixedNow().Add(1 * time.Hour),
		fixedNow().Add(3 * time.Hour),
		fixedNow().Add(4 * time.Hour),
		fixedNow().Add(5 * time.Hour),
		fixedNow().Add(6 * time.Hour),
		fixedNow().Add(7 * time.Hour),
	}
	if len(slots) != len(want) {
		t.Fatalf("slots = %d, want %d: %+v", len(slots), len(want), slots)
	}
	for i, slot := range slots {
		if !slot.Start.Equal(want[i]) {
			t.Fatalf("slot %d start = %v, want %v", i, slot.Start, want[i])
		}
		if !slot.End.Equal(want[i].Add(time.Hour)) {
			t.Fatalf("slot %d end = %v", i, slot.End)
		}
	}
}

func TestListAvailableSlotsSkipsPast(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	slots, err := env.svc.ListAvailableSlots(context.Background(), owner, "biz-1", "cal-1", "svc-1", fixedNow())
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	for _, slot := range slots {
		if slot.Start.Before(fixedNow().Add(-appointment.ClockSkewAllowance)) {
			t.Fatalf("slot %v is in the past", slot.Start)
		}
	}
}
