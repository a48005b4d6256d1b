// Package seed loads deterministic demo data into local stores for
// development and manual testing.
package seed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plannio/plannio/internal/analytics"
	"github.com/plannio/plannio/internal/app/access"
	appbilling "github.com/plannio/plannio/internal/app/billing"
	"github.com/plannio/plannio/internal/app/crm"
	"github.com/plannio/plannio/internal/app/directory"
	"github.com/plannio/plannio/internal/app/scheduling"
	"github.com/plannio/plannio/internal/auth"
	"github.com/plannio/plannio/internal/domain/appointment"
	"github.com/plannio/plannio/internal/domain/calendar"
	"github.com/plannio/plannio/internal/domain/prospect"
	bboltstore "github.com/plannio/plannio/internal/storage/bbolt"
	"github.com/plannio/plannio/internal/storage/sqlite"
)

// Config locates the stores the seeder writes to.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `env:"PLANNIO_DB_PATH" envDefault:"plannio.db"`
	// EventsPath is the bbolt audit event file.
	EventsPath string `env:"PLANNIO_EVENTS_PATH" envDefault:"events.db"`
}

// Result counts the records the seeder created.
type Result struct {
	Sectors      int
	Businesses   int
	Staff        int
	Services     int
	Calendars    int
	Appointments int
	Prospects    int
}

// newIDGenerator returns a counter-backed ID generator so reseeding the same
// empty stores produces the same IDs.
func newIDGenerator() func() (string, error) {
	var mu sync.Mutex
	var n int
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("seed-%06d", n), nil
	}
}

type sectorSpec struct {
	name        string
	description string
	business    businessSpec
}

type businessSpec struct {
	name     string
	owner    string
	timezone string
	staff    []string
	services []serviceSpec
}

type serviceSpec struct {
	name     string
	minutes  int
	price    int64
	currency string
}

var demoSectors = []sectorSpec{
	{
		name:        "Beauty & Wellness",
		description: "Salons, barbershops and spas",
		business: businessSpec{
			name:     "Corte Fino",
			owner:    "demo-owner-corte",
			timezone: "America/Sao_Paulo",
			staff:    []string{"Bianca Ramos", "Otavio Lima"},
			services: []serviceSpec{
				{name: "Haircut", minutes: 60, price: 90, currency: "BRL"},
				{name: "Beard Trim", minutes: 30, price: 45, currency: "BRL"},
			},
		},
	},
	{
		name:        "Health",
		description: "Clinics and private practices",
		business: businessSpec{
			name:     "Clinique Lumière",
			owner:    "demo-owner-lumiere",
			timezone: "Europe/Paris",
			staff:    []string{"Camille Roy", "Hugo Martin"},
			services: []serviceSpec{
				{name: "Consultation", minutes: 30, price: 70, currency: "EUR"},
				{name: "Follow-up", minutes: 15, price: 40, currency: "EUR"},
			},
		},
	},
	{
		name:        "Fitness",
		description: "Gyms, trainers and studios",
		business: businessSpec{
			name:     "Ironworks Gym",
			owner:    "demo-owner-ironworks",
			timezone: "America/New_York",
			staff:    []string{"Maya Chen", "Derek Ortiz"},
			services: []serviceSpec{
				{name: "Personal Training", minutes: 60, price: 80, currency: "USD"},
				{name: "Assessment", minutes: 45, price: 50, currency: "USD"},
			},
		},
	},
}

// weekdayHours opens Monday through Friday from 09:00 to 17:00.
func weekdayHours() calendar.WeekHours {
	var hours calendar.WeekHours
	interval := calendar.Interval{StartMinute: 9 * 60, EndMinute: 17 * 60}
	for day := time.Monday; day <= time.Friday; day++ {
		hours[day] = []calendar.Interval{interval}
	}
	return hours
}

// nextMonday returns the first Monday strictly after now, at midnight in the
// given location. Bookings must land inside the calendar's local working
// hours, so the day is anchored in its timezone.
func nextMonday(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	for day.Weekday() != time.Monday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// Run opens the stores, loads the demo data set and closes them again.
func Run(ctx context.Context, cfg Config) (Result, error) {
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return Result{}, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	events, err := bboltstore.Open(cfg.EventsPath)
	if err != nil {
		return Result{}, fmt.Errorf("open event store: %w", err)
	}
	defer events.Close()

	idGen := newIDGenerator()
	emitter := analytics.NewEmitter(events, nil)
	accessSvc := access.NewService(db, emitter, nil, idGen)
	billingSvc := appbilling.NewService(db, db, db, db, db, accessSvc, emitter, nil, idGen)
	directorySvc := directory.NewService(db, db, db, db, db, accessSvc, billingSvc, emitter, nil, idGen)
	schedulingSvc := scheduling.NewService(db, db, db, db, accessSvc, billingSvc, emitter, nil, idGen)
	crmSvc := crm.NewService(db, accessSvc, emitter, nil, idGen)

	loader := &loader{
		access:     accessSvc,
		billing:    billingSvc,
		directory:  directorySvc,
		scheduling: schedulingSvc,
		crm:        crmSvc,
	}
	return loader.run(ctx)
}

type loader struct {
	access     *access.Service
	billing    *appbilling.Service
	directory  *directory.Service
	scheduling *scheduling.Service
	crm        *crm.Service

	result Result
}

func (l *loader) run(ctx context.Context) (Result, error) {
	admin := auth.Principal{UserID: "demo-admin", PlatformAdmin: true}

	for _, spec := range demoSectors {
		sector, err := l.directory.CreateSector(ctx, admin, spec.name, spec.description)
		if err != nil {
			return Result{}, fmt.Errorf("create sector %s: %w", spec.name, err)
		}
		l.result.Sectors++

		if err := l.seedBusiness(ctx, sector.ID, spec.business); err != nil {
			return Result{}, err
		}
	}
	return l.result, nil
}

func (l *loader) seedBusiness(ctx context.Context, sectorID string, spec businessSpec) error {
	owner := auth.Principal{UserID: spec.owner}

	b, err := l.directory.CreateBusiness(ctx, owner, directory.CreateBusinessInput{
		Name:     spec.name,
		SectorID: sectorID,
		Timezone: spec.timezone,
	})
	if err != nil {
		return fmt.Errorf("create business %s: %w", spec.name, err)
	}
	l.result.Businesses++

	// STARTER leaves room for the staff and calendars below.
	if _, _, err := l.billing.ChangePlan(ctx, owner, b.ID, "STARTER"); err != nil {
		return fmt.Errorf("upgrade %s to STARTER: %w", spec.name, err)
	}

	var firstStaff string
	for i, name := range spec.staff {
		member, err := l.directory.CreateStaff(ctx, owner, b.ID, directory.CreateStaffInput{
			DisplayName: name,
			RoleLabel:   "Specialist",
		})
		if err != nil {
			return fmt.Errorf("create staff %s: %w", name, err)
		}
		if i == 0 {
			firstStaff = member.ID
		}
		l.result.Staff++
	}

	var firstService string
	for i, svc := range spec.services {
		created, err := l.directory.CreateService(ctx, owner, b.ID, directory.CreateServiceInput{
			Name:            svc.name,
			DurationMinutes: svc.minutes,
			PriceAmount:     decimal.NewFromInt(svc.price),
			Currency:        svc.currency,
		})
		if err != nil {
			return fmt.Errorf("create service %s: %w", svc.name, err)
		}
		if i == 0 {
			firstService = created.ID
		}
		l.result.Services++
	}

	front, err := l.directory.CreateCalendar(ctx, owner, b.ID, directory.CreateCalendarInput{
		Name:  "Front Desk",
		Kind:  calendar.KindBusiness,
		Hours: weekdayHours(),
	})
	if err != nil {
		return fmt.Errorf("create calendar for %s: %w", spec.name, err)
	}
	l.result.Calendars++

	if _, err := l.directory.CreateCalendar(ctx, owner, b.ID, directory.CreateCalendarInput{
		Name:    spec.staff[0],
		Kind:    calendar.KindStaff,
		StaffID: firstStaff,
		Hours:   weekdayHours(),
	}); err != nil {
		return fmt.Errorf("create staff calendar for %s: %w", spec.name, err)
	}
	l.result.Calendars++

	if err := l.seedAppointments(ctx, owner, b.ID, front.ID, firstService, spec.timezone); err != nil {
		return err
	}
	return l.seedProspects(ctx, owner, b.ID, firstStaff)
}

// seedAppointments books one appointment per lifecycle status, on consecutive
// hours of the next open Monday.
func (l *loader) seedAppointments(ctx context.Context, owner auth.Principal, businessID, calendarID, serviceID, timezone string) error {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("load timezone %s: %w", timezone, err)
	}
	monday := nextMonday(time.Now(), loc)

	customers := []struct {
		name string
		hour int
	}{
		{"Alice Nunes", 9},
		{"Bruno Costa", 10},
		{"Carla Diaz", 11},
		{"Daniel Reis", 12},
		{"Elisa Prado", 13},
	}

	var booked []string
	for _, c := range customers {
		appt, err := l.scheduling.BookAppointment(ctx, owner, businessID, scheduling.BookInput{
			CalendarID: calendarID,
			ServiceID:  serviceID,
			Customer:   appointment.Customer{Name: c.name},
			StartTime:  monday.Add(time.Duration(c.hour) * time.Hour),
		})
		if err != nil {
			return fmt.Errorf("book appointment for %s: %w", c.name, err)
		}
		booked = append(booked, appt.ID)
		l.result.Appointments++
	}

	// First stays PENDING; walk the rest through the other statuses.
	if _, err := l.scheduling.ConfirmAppointment(ctx, owner, businessID, booked[1]); err != nil {
		return fmt.Errorf("confirm appointment: %w", err)
	}
	if _, err := l.scheduling.ConfirmAppointment(ctx, owner, businessID, booked[2]); err != nil {
		return fmt.Errorf("confirm appointment: %w", err)
	}
	if _, err := l.scheduling.CompleteAppointment(ctx, owner, businessID, booked[2]); err != nil {
		return fmt.Errorf("complete appointment: %w", err)
	}
	if _, err := l.scheduling.CancelAppointment(ctx, owner, businessID, booked[3], "customer request"); err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}
	if _, err := l.scheduling.ConfirmAppointment(ctx, owner, businessID, booked[4]); err != nil {
		return fmt.Errorf("confirm appointment: %w", err)
	}
	if _, err := l.scheduling.MarkNoShow(ctx, owner, businessID, booked[4]); err != nil {
		return fmt.Errorf("mark no-show: %w", err)
	}
	return nil
}

// seedProspects creates one prospect per pipeline stage.
func (l *loader) seedProspects(ctx context.Context, owner auth.Principal, businessID, ownerStaffID string) error {
	stages := []struct {
		name string
		path []prospect.Stage
	}{
		{"Fernanda Alves", nil},
		{"Gustavo Telles", []prospect.Stage{prospect.StageQualified}},
		{"Helena Brum", []prospect.Stage{prospect.StageQualified, prospect.StageProposal}},
		{"Igor Santana", []prospect.Stage{prospect.StageQualified, prospect.StageProposal, prospect.StageNegotiation}},
		{"Julia Matos", []prospect.Stage{prospect.StageQualified, prospect.StageProposal, prospect.StageNegotiation, prospect.StageClosedWon}},
		{"Kleber Dias", []prospect.Stage{prospect.StageClosedLost}},
	}

	for i, s := range stages {
		created, err := l.crm.CreateProspect(ctx, owner, businessID, crm.CreateProspectInput{
			Name:           s.name,
			Source:         "referral",
			EstimatedValue: decimal.NewFromInt(int64(100 * (i + 1))),
			OwnerStaffID:   ownerStaffID,
		})
		if err != nil {
			return fmt.Errorf("create prospect %s: %w", s.name, err)
		}
		l.result.Prospects++

		for _, stage := range s.path {
			if _, err := l.crm.TransitionProspect(ctx, owner, businessID, created.ID, stage); err != nil {
				return fmt.Errorf("advance prospect %s: %w", s.name, err)
			}
		}
	}
	return nil
}
