package directory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plannio/plannio/internal/app/access"
	appbilling "github.com/plannio/plannio/internal/app/billing"
	"github.com/plannio/plannio/internal/auth"
	"github.com/plannio/plannio/internal/domain/billing"
	"github.com/plannio/plannio/internal/domain/business"
	"github.com/plannio/plannio/internal/domain/calendar"
	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/storage"
)

func fixedNow() time.Time {
	return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
}

type testEnv struct {
	svc           *Service
	businesses    *fakeBusinessStore
	sectors       *fakeSectorStore
	staff         *fakeStaffStore
	services      *fakeServiceStore
	calendars     *fakeCalendarStore
	subscriptions *fakeSubscriptionStore
	cycles        *fakeCycleStore
	assignments   *fakeAssignmentStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		businesses:    newFakeBusinessStore(),
		sectors:       newFakeSectorStore(),
		staff:         newFakeStaffStore(),
		services:      newFakeServiceStore(),
		calendars:     newFakeCalendarStore(),
		subscriptions: newFakeSubscriptionStore(),
		cycles:        &fakeCycleStore{},
		assignments:   newFakeAssignmentStore(),
	}
	counter := 0
	idGen := func() (string, error) {
		counter++
		return fmt.Sprintf("id-%03d", counter), nil
	}
	accessSvc := access.NewService(env.assignments, nil, fixedNow, idGen)
	billingSvc := appbilling.NewService(
		env.subscriptions,
		env.cycles,
		env.staff,
		env.calendars,
		nil,
		accessSvc,
		nil,
		fixedNow,
		idGen,
	)
	env.svc = NewService(
		env.businesses,
		env.sectors,
		env.staff,
		env.services,
		env.calendars,
		accessSvc,
		billingSvc,
		nil,
		fixedNow,
		idGen,
	)
	return env
}

var founder = auth.Principal{UserID: "user-founder"}

func createBusiness(t *testing.T, env *testEnv) business.Business {
	t.Helper()
	created, err := env.svc.CreateBusiness(context.Background(), founder, CreateBusinessInput{
		Name:     "Salon Lumière",
		Timezone: "Europe/Paris",
	})
	if err != nil {
		t.Fatalf("create business: %v", err)
	}
	return created
}

func TestCreateBusinessBootstrapsTenant(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	created := createBusiness(t, env)

	if created.Status != business.StatusActive {
		t.Fatalf("status = %v", created.Status)
	}
	if created.Locale != "en-US" || created.Timezone != "Europe/Paris" {
		t.Fatalf("defaults = %q %q", created.Locale, created.Timezone)
	}

	subscription, ok := env.subscriptions.subscriptions[created.ID]
	if !ok || subscription.Status != billing.StatusTrialing || subscription.PlanCode != billing.PlanFree {
		t.Fatalf("subscription = %+v", subscription)
	}
	if len(env.cycles.cycles) != 1 || env.cycles.cycles[0].Reason != billing.CycleReasonTrialStart {
		t.Fatalf("cycles = %+v", env.cycles.cycles)
	}

	// The founder can immediately manage the business.
	if _, err := env.svc.GetBusiness(context.Background(), founder, created.ID); err != nil {
		t.Fatalf("founder get: %v", err)
	}
	if _, err := env.svc.CreateStaff(context.Background(), founder, created.ID, CreateStaffInput{DisplayName: "Avery"}); err != nil {
		t.Fatalf("founder create staff: %v", err)
	}
}

func TestCreateBusinessRequiresAuthAndSector(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if _, err := env.svc.CreateBusiness(context.Background(), auth.Principal{}, CreateBusinessInput{Name: "x"}); apperrors.CodeOf(err) != apperrors.CodeAuthUnauthenticated {
		t.Fatalf("anonymous err = %v", err)
	}
	if _, err := env.svc.CreateBusiness(context.Background(), founder, CreateBusinessInput{Name: "x", SectorID: "missing"}); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("missing sector err = %v", err)
	}
}

func TestGetBusinessHidesForeignTenants(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	created := createBusiness(t, env)

	_, err := env.svc.GetBusiness(context.Background(), auth.Principal{UserID: "stranger"}, created.ID)
	if apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("stranger err = %v, want not found", err)
	}
	if _, err := env.svc.GetBusiness(context.Background(), auth.Principal{UserID: "ops", PlatformAdmin: true}, created.ID); err != nil {
		t.Fatalf("platform admin get: %v", err)
	}
}

func TestSearchBusinessesIsPlatformScoped(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	createBusiness(t, env)

	if _, err := env.svc.SearchBusinesses(context.Background(), founder, storage.BusinessFilter{}, 10, ""); !errors.Is(err, access.ErrPermissionDenied) {
		t.Fatal("owner search must be denied")
	}
	page, err := env.svc.SearchBusinesses(context.Background(), auth.Principal{UserID: "ops", PlatformAdmin: true}, storage.BusinessFilter{}, 10, "")
	if err != nil {
		t.Fatalf("platform search: %v", err)
	}
	if len(page.Businesses) != 1 {
		t.Fatalf("businesses = %d, want 1", len(page.Businesses))
	}
}

func TestTransitionBusinessArchiveCancelsSubscription(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	created := createBusiness(t, env)

	archived, err := env.svc.TransitionBusiness(context.Background(), founder, created.ID, business.StatusArchived)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if archived.Status != business.StatusArchived {
		t.Fatalf("status = %v", archived.Status)
	}
	if env.subscriptions.subscriptions[created.ID].Status != billing.StatusCancelled {
		t.Fatalf("subscription = %+v, want cancelled", env.subscriptions.subscriptions[created.ID])
	}

	// Archived is terminal.
	if _, err := env.svc.TransitionBusiness(context.Background(), founder, created.ID, business.StatusActive); apperrors.CodeOf(err) != apperrors.CodeBusinessInvalidStatusTransition {
		t.Fatalf("unarchive err = %v", err)
	}
}

func TestCreateStaffEnforcesPlanLimit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	created := createBusiness(t, env)

	// FREE allows two staff members.
	for i := 0; i < 2; i++ {
		if _, err := env.svc.CreateStaff(context.Background(), founder, created.ID, CreateStaffInput{
			DisplayName: fmt.Sprintf("Member %d", i),
		}); err != nil {
			t.Fatalf("create staff %d: %v", i, err)
		}
	}
	_, err := env.svc.CreateStaff(context.Background(), founder, created.ID, CreateStaffInput{DisplayName: "One Too Many"})
	if apperrors.CodeOf(err) != apperrors.CodePlanLimitStaffExceeded {
		t.Fatalf("err = %v, want staff limit exceeded", err)
	}
}

func TestStaffEmailConflict(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	created := createBusiness(t, env)

	if _, err := env.svc.CreateStaff(context.Background(), founder, created.ID, CreateStaffInput{
		DisplayName: "Avery",
		Email:       "avery@example.com",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := env.svc.CreateStaff(context.Background(), founder, created.ID, CreateStaffInput{
		DisplayName: "Imposter",
		Email:       "AVERY@example.com",
	})
	if apperrors.CodeOf(err) != apperrors.CodeAlreadyExists {
		t.Fatalf("err = %v, want already exists", err)
	}
}

func TestCreateCalendarInheritsBusinessTimezone(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	created := createBusiness(t, env)

	cal, err := env.svc.CreateCalendar(context.Background(), founder, created.ID, CreateCalendarInput{
		Name: "Front Room",
		Kind: calendar.KindRoom,
	})
	if err != nil {
		t.Fatalf("create calendar: %v", err)
	}
	if cal.Timezone != "Europe/Paris" {
		t.Fatalf("timezone = %q, want business default", cal.Timezone)
	}

	// FREE allows a single calendar.
	_, err = env.svc.CreateCalendar(context.Background(), founder, created.ID, CreateCalendarInput{
		Name: "Back Room",
		Kind: calendar.KindRoom,
	})
	if apperrors.CodeOf(err) != apperrors.CodePlanLimitCalendarsExceeded {
		t.Fatalf("err = %v, want calendar limit exceeded", err)
	}
}

func TestCreateCalendarValidatesStaffBinding(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	created := createBusiness(t, env)

	_, err := env.svc.CreateCalendar(context.Background(), founder, created.ID, CreateCalendarInput{
		Name:    "Chair 1",
		Kind:    calendar.KindStaff,
		StaffID: "ghost",
	})
	if apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestUpdateCalendarHours(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	created := createBusiness(t, env)
	cal, err := env.svc.CreateCalendar(context.Background(), founder, created.ID, CreateCalendarInput{
		Name: "Front Room",
		Kind: calendar.KindRoom,
	})
	if err != nil {
		t.Fatalf("create calendar: %v", err)
	}

	var hours calendar.WeekHours
	hours[time.Monday] = []calendar.Interval{{StartMinute: 9 * 60, EndMinute: 17 * 60}}
	updated, err := env.svc.UpdateCalendarHours(context.Background(), founder, created.ID, cal.ID, hours)
	if err != nil {
		t.Fatalf("update hours: %v", err)
	}
	if len(updated.Hours[time.Monday]) != 1 {
		t.Fatalf("hours = %+v", updated.Hours)
	}

	hours[time.Monday] = []calendar.Interval{{StartMinute: 17 * 60, EndMinute: 9 * 60}}
	if _, err := env.svc.UpdateCalendarHours(context.Background(), founder, created.ID, cal.ID, hours); apperrors.CodeOf(err) != apperrors.CodeCalendarInvalidHours {
		t.Fatalf("err = %v, want invalid hours", err)
	}
}

func TestServiceLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	created := createBusiness(t, env)

	svc, err := env.svc.CreateService(context.Background(), founder, created.ID, CreateServiceInput{
		Name:            "Cut & Style",
		DurationMinutes: 45,
		PriceAmount:     decimal.RequireFromString("35"),
	})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	if svc.Currency != "EUR" || !svc.Active {
		t.Fatalf("service = %+v", svc)
	}

	updated, err := env.svc.UpdateService(context.Background(), founder, created.ID, svc.ID, UpdateServiceInput{
		Name:            "Cut & Style",
		DurationMinutes: 60,
		PriceAmount:     decimal.RequireFromString("40"),
		Active:          false,
	})
	if err != nil {
		t.Fatalf("update service: %v", err)
	}
	if updated.DurationMinutes != 60 || updated.Active {
		t.Fatalf("updated = %+v", updated)
	}

	page, err := env.svc.ListServices(context.Background(), founder, created.ID, true, 10, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Services) != 0 {
		t.Fatalf("active services = %d, want 0", len(page.Services))
	}

	if err := env.svc.DeleteService(context.Background(), founder, created.ID, svc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := env.svc.DeleteService(context.Background(), founder, created.ID, svc.ID); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("double delete err = %v", err)
	}
}

func TestCreateSectorIsPlatformScoped(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if _, err := env.svc.CreateSector(context.Background(), founder, "Coiffure", ""); !errors.Is(err, access.ErrPermissionDenied) {
		t.Fatalf("owner err = %v", err)
	}
	ops := auth.Principal{UserID: "ops", PlatformAdmin: true}
	if _, err := env.svc.CreateSector(context.Background(), ops, "Coiffure", "Hair salons"); err != nil {
		t.Fatalf("create sector: %v", err)
	}
	if _, err := env.svc.CreateSector(context.Background(), ops, "Coiffure", ""); apperrors.CodeOf(err) != apperrors.CodeAlreadyExists {
		t.Fatalf("duplicate err = %v", err)
	}

	sectors, err := env.svc.ListSectors(context.Background())
	if err != nil || len(sectors) != 1 {
		t.Fatalf("sectors = %v, err = %v", sectors, err)
	}
}

func TestBusinessStatistics(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	created := createBusiness(t, env)
	if _, err := env.svc.CreateStaff(context.Background(), founder, created.ID, CreateStaffInput{DisplayName: "Avery"}); err != nil {
		t.Fatalf("create staff: %v", err)
	}
	if _, err := env.svc.CreateService(context.Background(), founder, created.ID, CreateServiceInput{
		Name:            "Cut",
		DurationMinutes: 30,
	}); err != nil {
		t.Fatalf("create service: %v", err)
	}

	stats, err := env.svc.BusinessStatistics(context.Background(), founder, created.ID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.StaffCount != 1 || stats.ServiceCount != 1 || stats.CalendarCount != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}
