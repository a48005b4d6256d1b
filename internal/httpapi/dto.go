package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	appbilling "github.com/plannio/plannio/internal/app/billing"
	"github.com/plannio/plannio/internal/app/directory"
	"github.com/plannio/plannio/internal/app/scheduling"
	"github.com/plannio/plannio/internal/domain/appointment"
	billingdomain "github.com/plannio/plannio/internal/domain/billing"
	"github.com/plannio/plannio/internal/domain/business"
	"github.com/plannio/plannio/internal/domain/calendar"
	"github.com/plannio/plannio/internal/domain/offering"
	"github.com/plannio/plannio/internal/domain/prospect"
	"github.com/plannio/plannio/internal/domain/rbac"
	"github.com/plannio/plannio/internal/domain/staff"
	"github.com/plannio/plannio/internal/storage"
)

type businessPayload struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SectorID     string    `json:"sector_id,omitempty"`
	Locale       string    `json:"locale"`
	Timezone     string    `json:"timezone"`
	Status       string    `json:"status"`
	ContactEmail string    `json:"contact_email,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toBusinessPayload(b business.Business) businessPayload {
	return businessPayload{
		ID:           b.ID,
		Name:         b.Name,
		SectorID:     b.SectorID,
		Locale:       b.Locale,
		Timezone:     b.Timezone,
		Status:       business.StatusLabel(b.Status),
		ContactEmail: b.ContactEmail,
		ContactPhone: b.ContactPhone,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

type businessPagePayload struct {
	Businesses    []businessPayload `json:"businesses"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

func toBusinessPagePayload(page storage.BusinessPage) businessPagePayload {
	out := businessPagePayload{Businesses: make([]businessPayload, 0, len(page.Businesses)), NextPageToken: page.NextPageToken}
	for _, b := range page.Businesses {
		out.Businesses = append(out.Businesses, toBusinessPayload(b))
	}
	return out
}

type sectorPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toSectorPayload(s business.Sector) sectorPayload {
	return sectorPayload{ID: s.ID, Name: s.Name, Description: s.Description, CreatedAt: s.CreatedAt}
}

type statisticsPayload struct {
	StaffCount    int `json:"staff_count"`
	ServiceCount  int `json:"service_count"`
	CalendarCount int `json:"calendar_count"`
}

func toStatisticsPayload(s directory.Statistics) statisticsPayload {
	return statisticsPayload{StaffCount: s.StaffCount, ServiceCount: s.ServiceCount, CalendarCount: s.CalendarCount}
}

type staffPayload struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"business_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	RoleLabel   string    `json:"role_label,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toStaffPayload(m staff.Member) staffPayload {
	return staffPayload{
		ID:          m.ID,
		BusinessID:  m.BusinessID,
		DisplayName: m.DisplayName,
		Email:       m.Email,
		RoleLabel:   m.RoleLabel,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type staffPagePayload struct {
	Staff         []staffPayload `json:"staff"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

func toStaffPagePayload(page storage.StaffPage) staffPagePayload {
	out := staffPagePayload{Staff: make([]staffPayload, 0, len(page.Members)), NextPageToken: page.NextPageToken}
	for _, m := range page.Members {
		out.Staff = append(out.Staff, toStaffPayload(m))
	}
	return out
}

type servicePayload struct {
	ID              string          `json:"id"`
	BusinessID      string          `json:"business_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	DurationMinutes int             `json:"duration_minutes"`
	PriceAmount     decimal.Decimal `json:"price_amount"`
	Currency        string          `json:"currency"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toServicePayload(svc offering.Service) servicePayload {
	return servicePayload{
		ID:              svc.ID,
		BusinessID:      svc.BusinessID,
		Name:            svc.Name,
		Description:     svc.Description,
		DurationMinutes: svc.DurationMinutes,
		PriceAmount:     svc.PriceAmount,
		Currency:        svc.Currency,
		Active:          svc.Active,
		CreatedAt:       svc.CreatedAt,
		UpdatedAt:       svc.UpdatedAt,
	}
}

type servicePagePayload struct {
	Services      []servicePayload `json:"services"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

func toServicePagePayload(page storage.ServicePage) servicePagePayload {
	out := servicePagePayload{Services: make([]servicePayload, 0, len(page.Services)), NextPageToken: page.NextPageToken}
	for _, svc := range page.Services {
		out.Services = append(out.Services, toServicePayload(svc))
	}
	return out
}

type intervalPayload struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// weekHoursPayload indexes days Sunday through Saturday, matching
// time.Weekday.
type weekHoursPayload [7][]intervalPayload

func toWeekHoursPayload(hours calendar.WeekHours) weekHoursPayload {
	var out weekHoursPayload
	for day := 0; day < 7; day++ {
		for _, iv := range hours[day] {
			out[day] = append(out[day], intervalPayload{StartMinute: iv.StartMinute, EndMinute: iv.EndMinute})
		}
	}
	return out
}

func fromWeekHoursPayload(payload weekHoursPayload) calendar.WeekHours {
	var out calendar.WeekHours
	for day := 0; day < 7; day++ {
		for _, iv := range payload[day] {
			out[day] = append(out[day], calendar.Interval{StartMinute: iv.StartMinute, EndMinute: iv.EndMinute})
		}
	}
	return out
}

type calendarPayload struct {
	ID         string           `json:"id"`
	BusinessID string           `json:"business_id"`
	Name       string           `json:"name"`
	Kind       string           `json:"kind"`
	StaffID    string           `json:"staff_id,omitempty"`
	Timezone   string           `json:"timezone"`
	Active     bool             `json:"active"`
	Hours      weekHoursPayload `json:"hours"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func toCalendarPayload(c calendar.Calendar) calendarPayload {
	return calendarPayload{
		ID:         c.ID,
		BusinessID: c.BusinessID,
		Name:       c.Name,
		Kind:       calendar.KindLabel(c.Kind),
		StaffID:    c.StaffID,
		Timezone:   c.Timezone,
		Active:     c.Active,
		Hours:      toWeekHoursPayload(c.Hours),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

type calendarPagePayload struct {
	Calendars     []calendarPayload `json:"calendars"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

func toCalendarPagePayload(page storage.CalendarPage) calendarPagePayload {
	out := calendarPagePayload{Calendars: make([]calendarPayload, 0, len(page.Calendars)), NextPageToken: page.NextPageToken}
	for _, c := range page.Calendars {
		out.Calendars = append(out.Calendars, toCalendarPayload(c))
	}
	return out
}

type slotPayload struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func toSlotPayloads(slots []scheduling.Slot) []slotPayload {
	out := make([]slotPayload, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotPayload{Start: slot.Start, End: slot.End})
	}
	return out
}

type customerPayload struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type appointmentPayload struct {
	ID           string          `json:"id"`
	BusinessID   string          `json:"business_id"`
	CalendarID   string          `json:"calendar_id"`
	ServiceID    string          `json:"service_id"`
	StaffID      string          `json:"staff_id,omitempty"`
	Customer     customerPayload `json:"customer"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	Status       string          `json:"status"`
	Notes        string          `json:"notes,omitempty"`
	CancelReason string          `json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
	RemindedAt   *time.Time      `json:"reminded_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toAppointmentPayload(a appointment.Appointment) appointmentPayload {
	return appointmentPayload{
		ID:         a.ID,
		BusinessID: a.BusinessID,
		CalendarID: a.CalendarID,
		ServiceID:  a.ServiceID,
		StaffID:    a.StaffID,
		Customer: customerPayload{
			Name:  a.Customer.Name,
			Email: a.Customer.Email,
			Phone: a.Customer.Phone,
		},
		StartTime:    a.StartTime,
		EndTime:      a.EndTime,
		Status:       appointment.StatusLabel(a.Status),
		Notes:        a.Notes,
		CancelReason: a.CancelReason,
		CancelledAt:  a.CancelledAt,
		RemindedAt:   a.RemindedAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

type appointmentPagePayload struct {
	Appointments  []appointmentPayload `json:"appointments"`
	NextPageToken string               `json:"next_page_token,omitempty"`
}

func toAppointmentPagePayload(page storage.AppointmentPage) appointmentPagePayload {
	out := appointmentPagePayload{Appointments: make([]appointmentPayload, 0, len(page.Appointments)), NextPageToken: page.NextPageToken}
	for _, a := range page.Appointments {
		out.Appointments = append(out.Appointments, toAppointmentPayload(a))
	}
	return out
}

type prospectPayload struct {
	ID             string          `json:"id"`
	BusinessID     string          `json:"business_id"`
	Name           string          `json:"name"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Source         string          `json:"source,omitempty"`
	Stage          string          `json:"stage"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	Notes          string          `json:"notes,omitempty"`
	OwnerStaffID   string          `json:"owner_staff_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty"`
}

func toProspectPayload(p prospect.Prospect) prospectPayload {
	return prospectPayload{
		ID:             p.ID,
		BusinessID:     p.BusinessID,
		Name:           p.Name,
		Email:          p.Email,
		Phone:          p.Phone,
		Source:         p.Source,
		Stage:          prospect.StageLabel(p.Stage),
		EstimatedValue: p.EstimatedValue,
		Notes:          p.Notes,
		OwnerStaffID:   p.OwnerStaffID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		ClosedAt:       p.ClosedAt,
	}
}

type prospectPagePayload struct {
	Prospects     []prospectPayload `json:"prospects"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

func toProspectPagePayload(page storage.ProspectPage) prospectPagePayload {
	out := prospectPagePayload{Prospects: make([]prospectPayload, 0, len(page.Prospects)), NextPageToken: page.NextPageToken}
	for _, p := range page.Prospects {
		out.Prospects = append(out.Prospects, toProspectPayload(p))
	}
	return out
}

type stageStatsPayload struct {
	Count          int             `json:"count"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
}

type assignmentPayload struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	BusinessID   string     `json:"business_id,omitempty"`
	Role         string     `json:"role"`
	LocationID   string     `json:"location_id,omitempty"`
	DepartmentID string     `json:"department_id,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	GrantedBy    string     `json:"granted_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toAssignmentPayload(a rbac.Assignment) assignmentPayload {
	return assignmentPayload{
		ID:           a.ID,
		UserID:       a.UserID,
		BusinessID:   a.BusinessID,
		Role:         rbac.RoleLabel(a.Role),
		LocationID:   a.LocationID,
		DepartmentID: a.DepartmentID,
		ExpiresAt:    a.ExpiresAt,
		GrantedBy:    a.GrantedBy,
		CreatedAt:    a.CreatedAt,
	}
}

func toAssignmentPayloads(assignments []rbac.Assignment) []assignmentPayload {
	out := make([]assignmentPayload, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentPayload(a))
	}
	return out
}

type subscriptionPayload struct {
	BusinessID  string     `json:"business_id"`
	PlanCode    string     `json:"plan_code"`
	Status      string     `json:"status"`
	CycleStart  time.Time  `json:"cycle_start"`
	CycleEnd    time.Time  `json:"cycle_end"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toSubscriptionPayload(s billingdomain.Subscription) subscriptionPayload {
	return subscriptionPayload{
		BusinessID:  s.BusinessID,
		PlanCode:    string(s.PlanCode),
		Status:      billingdomain.StatusLabel(s.Status),
		CycleStart:  s.CycleStart,
		CycleEnd:    s.CycleEnd,
		CancelledAt: s.CancelledAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

type prorationPayload struct {
	Credit    decimal.Decimal `json:"credit"`
	Charge    decimal.Decimal `json:"charge"`
	AmountDue decimal.Decimal `json:"amount_due"`
}

type planChangePayload struct {
	Subscription subscriptionPayload `json:"subscription"`
	Proration    prorationPayload    `json:"proration"`
}

type planPayload struct {
	Code                 string          `json:"code"`
	Name                 string          `json:"name"`
	MonthlyPrice         decimal.Decimal `json:"monthly_price"`
	MaxStaff             int             `json:"max_staff"`
	MaxCalendars         int             `json:"max_calendars"`
	AppointmentsPerCycle int             `json:"appointments_per_cycle"`
}

func toPlanPayloads(plans []billingdomain.Plan) []planPayload {
	out := make([]planPayload, 0, len(plans))
	for _, plan := range plans {
		out = append(out, planPayload{
			Code:                 string(plan.Code),
			Name:                 plan.Name,
			MonthlyPrice:         plan.MonthlyPrice,
			MaxStaff:             plan.MaxStaff,
			MaxCalendars:         plan.MaxCalendars,
			AppointmentsPerCycle: plan.AppointmentsPerCycle,
		})
	}
	return out
}

type usagePayload struct {
	PlanCode          string    `json:"plan_code"`
	Status            string    `json:"status"`
	CycleStart        time.Time `json:"cycle_start"`
	CycleEnd          time.Time `json:"cycle_end"`
	StaffCount        int       `json:"staff_count"`
	StaffLimit        int       `json:"staff_limit"`
	CalendarCount     int       `json:"calendar_count"`
	CalendarLimit     int       `json:"calendar_limit"`
	AppointmentsUsed  int       `json:"appointments_used"`
	AppointmentsLimit int       `json:"appointments_limit"`
}

func toUsagePayload(u appbilling.Usage) usagePayload {
	return usagePayload{
		PlanCode:          string(u.PlanCode),
		Status:            billingdomain.StatusLabel(u.Status),
		CycleStart:        u.CycleStart,
		CycleEnd:          u.CycleEnd,
		StaffCount:        u.StaffCount,
		StaffLimit:        u.StaffLimit,
		CalendarCount:     u.CalendarCount,
		CalendarLimit:     u.CalendarLimit,
		AppointmentsUsed:  u.AppointmentsUsed,
		AppointmentsLimit: u.AppointmentsLimit,
	}
}

type cyclePayload struct {
	ID                 string          `json:"id"`
	BusinessID         string          `json:"business_id"`
	PlanCode           string          `json:"plan_code"`
	PeriodStart        time.Time       `json:"period_start"`
	PeriodEnd          time.Time       `json:"period_end"`
	Amount             decimal.Decimal `json:"amount"`
	ProratedAdjustment decimal.Decimal `json:"prorated_adjustment"`
	Reason             string          `json:"reason"`
	CreatedAt          time.Time       `json:"created_at"`
}

type cyclePagePayload struct {
	Cycles        []cyclePayload `json:"cycles"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

func toCyclePagePayload(page storage.CyclePage) cyclePagePayload {
	out := cyclePagePayload{Cycles: make([]cyclePayload, 0, len(page.Cycles)), NextPageToken: page.NextPageToken}
	for _, c := range page.Cycles {
		out.Cycles = append(out.Cycles, cyclePayload{
			ID:                 c.ID,
			BusinessID:         c.BusinessID,
			PlanCode:           string(c.PlanCode),
			PeriodStart:        c.PeriodStart,
			PeriodEnd:          c.PeriodEnd,
			Amount:             c.Amount,
			ProratedAdjustment: c.ProratedAdjustment,
			Reason:             billingdomain.CycleReasonLabel(c.Reason),
			CreatedAt:          c.CreatedAt,
		})
	}
	return out
}

type eventPayload struct {
	Seq        uint64            `json:"seq"`
	BusinessID string            `json:"business_id"`
	ActorID    string            `json:"actor_id,omitempty"`
	Action     string            `json:"action"`
	Entity     string            `json:"entity"`
	EntityID   string            `json:"entity_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

type eventPagePayload struct {
	Events        []eventPayload `json:"events"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

func toEventPagePayload(page storage.AuditEventPage) eventPagePayload {
	out := eventPagePayload{Events: make([]eventPayload, 0, len(page.Events)), NextPageToken: page.NextPageToken}
	for _, event := range page.Events {
		out.Events = append(out.Events, eventPayload{
			Seq:        event.Seq,
			BusinessID: event.BusinessID,
			ActorID:    event.ActorID,
			Action:     event.Action,
			Entity:     event.Entity,
			EntityID:   event.EntityID,
			Metadata:   event.Metadata,
			CreatedAt:  event.CreatedAt,
		})
	}
	return out
}
