package scheduling

import (
	"context"
	"sort"
	"time"

	"github.com/plannio/plannio/internal/domain/appointment"
	"github.com/plannio/plannio/internal/domain/billing"
	"github.com/plannio/plannio/internal/domain/business"
	"github.com/plannio/plannio/internal/domain/calendar"
	"github.com/plannio/plannio/internal/domain/offering"
	"github.com/plannio/plannio/internal/domain/rbac"
	"github.com/plannio/plannio/internal/storage"
)

type fakeAppointmentStore struct {
	appointments map[string]appointment.Appointment
}

func newFakeAppointmentStore() *fakeAppointmentStore {
	return &fakeAppointmentStore{appointments: make(map[string]appointment.Appointment)}
}

func (f *fakeAppointmentStore) CreateAppointment(_ context.Context, a appointment.Appointment) error {
	f.appointments[a.ID] = a
	return nil
}

func (f *fakeAppointmentStore) GetAppointment(_ context.Context, businessID, id string) (appointment.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok || a.BusinessID != businessID {
		return appointment.Appointment{}, storage.ErrNotFound
	}
	return a, nil
}

func (f *fakeAppointmentStore) UpdateAppointment(_ context.Context, a appointment.Appointment) error {
	if _, ok := f.appointments[a.ID]; !ok {
		return storage.ErrNotFound
	}
	f.appointments[a.ID] = a
	return nil
}

func (f *fakeAppointmentStore) ListAppointments(_ context.Context, businessID string, filter storage.AppointmentFilter, pageSize int, pageToken string) (storage.AppointmentPage, error) {
	var out []appointment.Appointment
	for _, a := range f.appointments {
		if a.BusinessID != businessID {
			continue
		}
		if filter.CalendarID != "" && a.CalendarID != filter.CalendarID {
			continue
		}
		if filter.Status != appointment.StatusUnspecified && a.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && a.StartTime.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !a.StartTime.Before(filter.To) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return storage.AppointmentPage{Appointments: out}, nil
}

func (f *fakeAppointmentStore) FindConflictingAppointments(_ context.Context, calendarID string, start, end time.Time, excludeID string) ([]appointment.Appointment, error) {
	var out []appointment.Appointment
	for _, a := range f.appointments {
		if a.CalendarID != calendarID || a.ID == excludeID {
			continue
		}
		if !a.Status.Blocking() {
			continue
		}
		if appointment.Overlaps(start, end, a.StartTime, a.EndTime) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentStore) CountAppointmentsCreatedBetween(_ context.Context, businessID string, from, to time.Time) (int, error) {
	count := 0
	for _, a := range f.appointments {
		if a.BusinessID != businessID || a.Status == appointment.StatusCancelled {
			continue
		}
		if !a.CreatedAt.Before(from) && a.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (f *fakeAppointmentStore) ListDueReminders(_ context.Context, now time.Time, leadWindow time.Duration, limit int) ([]appointment.Appointment, error) {
	var out []appointment.Appointment
	for _, a := range f.appointments {
		if a.Status != appointment.StatusConfirmed || a.RemindedAt != nil {
			continue
		}
		if a.StartTime.Before(now) || !a.StartTime.Before(now.Add(leadWindow)) {
			continue
		}
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fixedBusinessStore struct {
	business business.Business
}

func (f *fixedBusinessStore) CreateBusiness(context.Context, business.Business) error { return nil }
func (f *fixedBusinessStore) GetBusiness(_ context.Context, id string) (business.Business, error) {
	if id != f.business.ID {
		return business.Business{}, storage.ErrNotFound
	}
	return f.business, nil
}
func (f *fixedBusinessStore) UpdateBusiness(context.Context, business.Business) error { return nil }
func (f *fixedBusinessStore) ListBusinesses(context.Context, storage.BusinessFilter, int, string) (storage.BusinessPage, error) {
	return storage.BusinessPage{}, nil
}
func (f *fixedBusinessStore) CountBusinesses(context.Context, storage.BusinessFilter) (int, error) {
	return 0, nil
}

type fakeCalendarStore struct {
	calendars map[string]calendar.Calendar
}

func (f *fakeCalendarStore) CreateCalendar(_ context.Context, c calendar.Calendar) error {
	f.calendars[c.ID] = c
	return nil
}

func (f *fakeCalendarStore) GetCalendar(_ context.Context, businessID, id string) (calendar.Calendar, error) {
	c, ok := f.calendars[id]
	if !ok || c.BusinessID != businessID {
		return calendar.Calendar{}, storage.ErrNotFound
	}
	return c, nil
}

func (f *fakeCalendarStore) UpdateCalendar(_ context.Context, c calendar.Calendar) error {
	f.calendars[c.ID] = c
	return nil
}

func (f *fakeCalendarStore) DeleteCalendar(_ context.Context, businessID, id string) error {
	delete(f.calendars, id)
	return nil
}

func (f *fakeCalendarStore) ListCalendars(context.Context, string, int, string) (storage.CalendarPage, error) {
	return storage.CalendarPage{}, nil
}

func (f *fakeCalendarStore) CountCalendars(_ context.Context, businessID string) (int, error) {
	return len(f.calendars), nil
}

type fakeServiceStore struct {
	services map[string]offering.Service
}

func (f *fakeServiceStore) CreateService(_ context.Context, s offering.Service) error {
	f.services[s.ID] = s
	return nil
}

func (f *fakeServiceStore) GetService(_ context.Context, businessID, id string) (offering.Service, error) {
	s, ok := f.services[id]
	if !ok || s.BusinessID != businessID {
		return offering.Service{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeServiceStore) UpdateService(_ context.Context, s offering.Service) error {
	f.services[s.ID] = s
	return nil
}

func (f *fakeServiceStore) DeleteService(_ context.Context, businessID, id string) error {
	delete(f.services, id)
	return nil
}

func (f *fakeServiceStore) ListServices(context.Context, string, bool, int, string) (storage.ServicePage, error) {
	return storage.ServicePage{}, nil
}

func (f *fakeServiceStore) CountServices(_ context.Context, businessID string) (int, error) {
	return len(f.services), nil
}

type fakeAssignmentStore struct {
	assignments []rbac.Assignment
}

func (f *fakeAssignmentStore) CreateAssignment(_ context.Context, a rbac.Assignment) error {
	f.assignments = append(f.assignments, a)
	return nil
}

func (f *fakeAssignmentStore) GetAssignment(context.Context, string) (rbac.Assignment, error) {
	return rbac.Assignment{}, storage.ErrNotFound
}

func (f *fakeAssignmentStore) DeleteAssignment(context.Context, string) error {
	return storage.ErrNotFound
}

func (f *fakeAssignmentStore) ListAssignmentsByBusiness(context.Context, string) ([]rbac.Assignment, error) {
	return nil, nil
}

func (f *fakeAssignmentStore) ListAssignmentsByUser(_ context.Context, userID string) ([]rbac.Assignment, error) {
	var out []rbac.Assignment
	for _, a := range f.assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentStore) CountAssignmentsByRole(context.Context, string) (map[rbac.Role]int, error) {
	return nil, nil
}

type fakeSubscriptionStore struct {
	subscription billing.Subscription
}

func (f *fakeSubscriptionStore) CreateSubscription(context.Context, billing.Subscription) error {
	return nil
}

func (f *fakeSubscriptionStore) GetSubscription(_ context.Context, businessID string) (billing.Subscription, error) {
	if businessID != f.subscription.BusinessID {
		return billing.Subscription{}, storage.ErrNotFound
	}
	return f.subscription, nil
}

func (f *fakeSubscriptionStore) UpdateSubscription(_ context.Context, s billing.Subscription) error {
	f.subscription = s
	return nil
}

func (f *fakeSubscriptionStore) ListDueSubscriptions(context.Context, time.Time, int) ([]billing.Subscription, error) {
	return nil, nil
}

type fakeCycleStore struct{}

func (fakeCycleStore) CreateCycle(context.Context, billing.Cycle) error { return nil }
func (fakeCycleStore) ListCycles(context.Context, string, int, string) (storage.CyclePage, error) {
	return storage.CyclePage{}, nil
}
