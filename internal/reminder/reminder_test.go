package reminder

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/plannio/plannio/internal/domain/appointment"
	"github.com/plannio/plannio/internal/storage"
)

func fixedNow() time.Time {
	return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
}

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

func (f *fakeAppointmentStore) ListAppointments(context.Context, string, storage.AppointmentFilter, int, string) (storage.AppointmentPage, error) {
	return storage.AppointmentPage{}, nil
}

func (f *fakeAppointmentStore) FindConflictingAppointments(context.Context, string, time.Time, time.Time, string) ([]appointment.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentStore) CountAppointmentsCreatedBetween(context.Context, string, time.Time, time.Time) (int, error) {
	return 0, nil
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
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type recordingNotifier struct {
	notified []string
	failFor  map[string]error
}

func (n *recordingNotifier) Notify(_ context.Context, a appointment.Appointment) error {
	if err, ok := n.failFor[a.ID]; ok {
		return err
	}
	n.notified = append(n.notified, a.ID)
	return nil
}

func seedAppointment(store *fakeAppointmentStore, id string, status appointment.Status, start time.Time) {
	store.appointments[id] = appointment.Appointment{
		ID:         id,
		BusinessID: "biz-1",
		CalendarID: "cal-1",
		Customer:   appointment.Customer{Name: "Dana Cruz"},
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		Status:     status,
	}
}

func TestTickDispatchesDueReminders(t *testing.T) {
	t.Parallel()

	store := newFakeAppointmentStore()
	seedAppointment(store, "appt-due", appointment.StatusConfirmed, fixedNow().Add(2*time.Hour))
	seedAppointment(store, "appt-far", appointment.StatusConfirmed, fixedNow().Add(48*time.Hour))
	seedAppointment(store, "appt-pending", appointment.StatusPending, fixedNow().Add(2*time.Hour))

	notifier := &recordingNotifier{}
	daemon := NewDaemon(store, nil, notifier, Config{LeadWindow: 24 * time.Hour}, fixedNow)

	if err := daemon.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != "appt-due" {
		t.Fatalf("notified = %v", notifier.notified)
	}
	if store.appointments["appt-due"].RemindedAt == nil {
		t.Fatal("dispatched reminder must be marked")
	}
	if store.appointments["appt-far"].RemindedAt != nil {
		t.Fatal("appointment outside the lead window must not be marked")
	}

	// A second tick finds nothing new.
	if err := daemon.tick(context.Background()); err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if len(notifier.notified) != 1 {
		t.Fatalf("notified = %v after second tick", notifier.notified)
	}
}

func TestTickRetriesThenDrops(t *testing.T) {
	t.Parallel()

	store := newFakeAppointmentStore()
	seedAppointment(store, "appt-flaky", appointment.StatusConfirmed, fixedNow().Add(time.Hour))

	notifier := &recordingNotifier{failFor: map[string]error{"appt-flaky": errors.New("smtp down")}}
	daemon := NewDaemon(store, nil, notifier, Config{LeadWindow: 24 * time.Hour, MaxAttempts: 3}, fixedNow)

	// Two failed ticks keep the reminder eligible.
	for attempt := 1; attempt <= 2; attempt++ {
		if err := daemon.tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", attempt, err)
		}
		if store.appointments["appt-flaky"].RemindedAt != nil {
			t.Fatalf("attempt %d must not mark the reminder", attempt)
		}
	}

	// The third failure exhausts the budget and drops it.
	if err := daemon.tick(context.Background()); err != nil {
		t.Fatalf("third tick: %v", err)
	}
	if store.appointments["appt-flaky"].RemindedAt == nil {
		t.Fatal("exhausted reminder must be dropped")
	}
	if len(notifier.notified) != 0 {
		t.Fatalf("notified = %v", notifier.notified)
	}
}

func TestTickRespectsBatchSize(t *testing.T) {
	t.Parallel()

	store := newFakeAppointmentStore()
	for _, id := range []string{"appt-a", "appt-b", "appt-c"} {
		seedAppointment(store, id, appointment.StatusConfirmed, fixedNow().Add(time.Hour))
	}

	notifier := &recordingNotifier{}
	daemon := NewDaemon(store, nil, notifier, Config{LeadWindow: 24 * time.Hour, BatchSize: 2}, fixedNow)

	if err := daemon.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(notifier.notified) != 2 {
		t.Fatalf("notified = %v, want batch of 2", notifier.notified)
	}

	if err := daemon.tick(context.Background()); err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if len(notifier.notified) != 3 {
		t.Fatalf("notified = %v, want remaining reminder", notifier.notified)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	store := newFakeAppointmentStore()
	daemon := NewDaemon(store, nil, &recordingNotifier{}, Config{PollInterval: 5 * time.Millisecond}, fixedNow)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := daemon.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("run err = %v", err)
	}
}
