package directory

import (
	"context"
	"sort"
	"time"

	"github.com/plannio/plannio/internal/domain/billing"
	"github.com/plannio/plannio/internal/domain/business"
	"github.com/plannio/plannio/internal/domain/calendar"
	"github.com/plannio/plannio/internal/domain/offering"
	"github.com/plannio/plannio/internal/domain/rbac"
	"github.com/plannio/plannio/internal/domain/staff"
	"github.com/plannio/plannio/internal/storage"
)

type fakeBusinessStore struct {
	businesses map[string]business.Business
}

func newFakeBusinessStore() *fakeBusinessStore {
	return &fakeBusinessStore{businesses: make(map[string]business.Business)}
}

func (f *fakeBusinessStore) CreateBusiness(_ context.Context, b business.Business) error {
	if _, ok := f.businesses[b.ID]; ok {
		return storage.ErrAlreadyExists
	}
	f.businesses[b.ID] = b
	return nil
}

func (f *fakeBusinessStore) GetBusiness(_ context.Context, id string) (business.Business, error) {
	b, ok := f.businesses[id]
	if !ok {
		return business.Business{}, storage.ErrNotFound
	}
	return b, nil
}

func (f *fakeBusinessStore) UpdateBusiness(_ context.Context, b business.Business) error {
	if _, ok := f.businesses[b.ID]; !ok {
		return storage.ErrNotFound
	}
	f.businesses[b.ID] = b
	return nil
}

func (f *fakeBusinessStore) ListBusinesses(_ context.Context, filter storage.BusinessFilter, pageSize int, pageToken string) (storage.BusinessPage, error) {
	var out []business.Business
	for _, b := range f.businesses {
		if filter.Status != business.StatusUnspecified && b.Status != filter.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return storage.BusinessPage{Businesses: out}, nil
}

func (f *fakeBusinessStore) CountBusinesses(_ context.Context, filter storage.BusinessFilter) (int, error) {
	page, _ := f.ListBusinesses(context.Background(), filter, 0, "")
	return len(page.Businesses), nil
}

type fakeSectorStore struct {
	sectors map[string]business.Sector
}

func newFakeSectorStore() *fakeSectorStore {
	return &fakeSectorStore{sectors: make(map[string]business.Sector)}
}

func (f *fakeSectorStore) CreateSector(_ context.Context, s business.Sector) error {
	for _, existing := range f.sectors {
		if existing.Name == s.Name {
			return storage.ErrAlreadyExists
		}
	}
	f.sectors[s.ID] = s
	return nil
}

func (f *fakeSectorStore) GetSector(_ context.Context, id string) (business.Sector, error) {
	s, ok := f.sectors[id]
	if !ok {
		return business.Sector{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeSectorStore) ListSectors(_ context.Context) ([]business.Sector, error) {
	var out []business.Sector
	for _, s := range f.sectors {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeStaffStore struct {
	members map[string]staff.Member
}

func newFakeStaffStore() *fakeStaffStore {
	return &fakeStaffStore{members: make(map[string]staff.Member)}
}

func (f *fakeStaffStore) emailTaken(m staff.Member) bool {
	if m.Email == "" {
		return false
	}
	for _, existing := range f.members {
		if existing.ID != m.ID && existing.BusinessID == m.BusinessID && existing.Email == m.Email {
			return true
		}
	}
	return false
}

func (f *fakeStaffStore) CreateStaff(_ context.Context, m staff.Member) error {
	if f.emailTaken(m) {
		return storage.ErrAlreadyExists
	}
	f.members[m.ID] = m
	return nil
}

func (f *fakeStaffStore) GetStaff(_ context.Context, businessID, id string) (staff.Member, error) {
	m, ok := f.members[id]
	if !ok || m.BusinessID != businessID {
		return staff.Member{}, storage.ErrNotFound
	}
	return m, nil
}

func (f *fakeStaffStore) UpdateStaff(_ context.Context, m staff.Member) error {
	if _, ok := f.members[m.ID]; !ok {
		return storage.ErrNotFound
	}
	if f.emailTaken(m) {
		return storage.ErrAlreadyExists
	}
	f.members[m.ID] = m
	return nil
}

func (f *fakeStaffStore) DeleteStaff(_ context.Context, businessID, id string) error {
	m, ok := f.members[id]
	if !ok || m.BusinessID != businessID {
		return storage.ErrNotFound
	}
	delete(f.members, id)
	return nil
}

func (f *fakeStaffStore) ListStaff(_ context.Context, businessID string, pageSize int, pageToken string) (storage.StaffPage, error) {
	var out []staff.Member
	for _, m := range f.members {
		if m.BusinessID == businessID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return storage.StaffPage{Members: out}, nil
}

func (f *fakeStaffStore) CountStaff(_ context.Context, businessID string) (int, error) {
	count := 0
	for _, m := range f.members {
		if m.BusinessID == businessID {
			count++
		}
	}
	return count, nil
}

type fakeServiceStore struct {
	services map[string]offering.Service
}

func newFakeServiceStore() *fakeServiceStore {
	return &fakeServiceStore{services: make(map[string]offering.Service)}
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
	if _, ok := f.services[s.ID]; !ok {
		return storage.ErrNotFound
	}
	f.services[s.ID] = s
	return nil
}

func (f *fakeServiceStore) DeleteService(_ context.Context, businessID, id string) error {
	s, ok := f.services[id]
	if !ok || s.BusinessID != businessID {
		return storage.ErrNotFound
	}
	delete(f.services, id)
	return nil
}

func (f *fakeServiceStore) ListServices(_ context.Context, businessID string, activeOnly bool, pageSize int, pageToken string) (storage.ServicePage, error) {
	var out []offering.Service
	for _, s := range f.services {
		if s.BusinessID != businessID {
			continue
		}
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return storage.ServicePage{Services: out}, nil
}

func (f *fakeServiceStore) CountServices(_ context.Context, businessID string) (int, error) {
	count := 0
	for _, s := range f.services {
		if s.BusinessID == businessID {
			count++
		}
	}
	return count, nil
}

type fakeCalendarStore struct {
	calendars map[string]calendar.Calendar
}

func newFakeCalendarStore() *fakeCalendarStore {
	return &fakeCalendarStore{calendars: make(map[string]calendar.Calendar)}
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
	if _, ok := f.calendars[c.ID]; !ok {
		return storage.ErrNotFound
	}
	f.calendars[c.ID] = c
	return nil
}

func (f *fakeCalendarStore) DeleteCalendar(_ context.Context, businessID, id string) error {
	c, ok := f.calendars[id]
	if !ok || c.BusinessID != businessID {
		return storage.ErrNotFound
	}
	delete(f.calendars, id)
	return nil
}

func (f *fakeCalendarStore) ListCalendars(_ context.Context, businessID string, pageSize int, pageToken string) (storage.CalendarPage, error) {
	var out []calendar.Calendar
	for _, c := range f.calendars {
		if c.BusinessID == businessID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return storage.CalendarPage{Calendars: out}, nil
}

func (f *fakeCalendarStore) CountCalendars(_ context.Context, businessID string) (int, error) {
	count := 0
	for _, c := range f.calendars {
		if c.BusinessID == businessID {
			count++
		}
	}
	return count, nil
}

type fakeAssignmentStore struct {
	assignments map[string]rbac.Assignment
}

func newFakeAssignmentStore() *fakeAssignmentStore {
	return &fakeAssignmentStore{assignments: make(map[string]rbac.Assignment)}
}

func (f *fakeAssignmentStore) CreateAssignment(_ context.Context, a rbac.Assignment) error {
	for _, existing := range f.assignments {
		if existing.ScopeKey() == a.ScopeKey() {
			return storage.ErrAlreadyExists
		}
	}
	f.assignments[a.ID] = a
	return nil
}

func (f *fakeAssignmentStore) GetAssignment(_ context.Context, id string) (rbac.Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return rbac.Assignment{}, storage.ErrNotFound
	}
	return a, nil
}

func (f *fakeAssignmentStore) DeleteAssignment(_ context.Context, id string) error {
	if _, ok := f.assignments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.assignments, id)
	return nil
}

func (f *fakeAssignmentStore) ListAssignmentsByBusiness(_ context.Context, businessID string) ([]rbac.Assignment, error) {
	var out []rbac.Assignment
	for _, a := range f.assignments {
		if a.BusinessID == businessID {
			out = append(out, a)
		}
	}
	return out, nil
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

func (f *fakeAssignmentStore) CountAssignmentsByRole(_ context.Context, businessID string) (map[rbac.Role]int, error) {
	counts := make(map[rbac.Role]int)
	for _, a := range f.assignments {
		if a.BusinessID == businessID {
			counts[a.Role]++
		}
	}
	return counts, nil
}

type fakeSubscriptionStore struct {
	subscriptions map[string]billing.Subscription
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{subscriptions: make(map[string]billing.Subscription)}
}

func (f *fakeSubscriptionStore) CreateSubscription(_ context.Context, s billing.Subscription) error {
	if _, ok := f.subscriptions[s.BusinessID]; ok {
		return storage.ErrAlreadyExists
	}
	f.subscriptions[s.BusinessID] = s
	return nil
}

func (f *fakeSubscriptionStore) GetSubscription(_ context.Context, businessID string) (billing.Subscription, error) {
	s, ok := f.subscriptions[businessID]
	if !ok {
		return billing.Subscription{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeSubscriptionStore) UpdateSubscription(_ context.Context, s billing.Subscription) error {
	if _, ok := f.subscriptions[s.BusinessID]; !ok {
		return storage.ErrNotFound
	}
	f.subscriptions[s.BusinessID] = s
	return nil
}

func (f *fakeSubscriptionStore) ListDueSubscriptions(_ context.Context, now time.Time, limit int) ([]billing.Subscription, error) {
	return nil, nil
}

type fakeCycleStore struct {
	cycles []billing.Cycle
}

func (f *fakeCycleStore) CreateCycle(_ context.Context, c billing.Cycle) error {
	f.cycles = append(f.cycles, c)
	return nil
}

func (f *fakeCycleStore) ListCycles(_ context.Context, businessID string, pageSize int, pageToken string) (storage.CyclePage, error) {
	var out []billing.Cycle
	for _, c := range f.cycles {
		if c.BusinessID == businessID {
			out = append(out, c)
		}
	}
	return storage.CyclePage{Cycles: out}, nil
}
