// Package directory manages businesses, sectors, staff, services, and
// calendars.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plannio/plannio/internal/analytics"
	"github.com/plannio/plannio/internal/app/access"
	appbilling "github.com/plannio/plannio/internal/app/billing"
	"github.com/plannio/plannio/internal/auth"
	"github.com/plannio/plannio/internal/domain/business"
	"github.com/plannio/plannio/internal/domain/calendar"
	"github.com/plannio/plannio/internal/domain/offering"
	"github.com/plannio/plannio/internal/domain/rbac"
	"github.com/plannio/plannio/internal/domain/staff"
	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/platform/id"
	"github.com/plannio/plannio/internal/storage"
)

// Service implements the business directory use-cases.
type Service struct {
	businesses  storage.BusinessStore
	sectors     storage.SectorStore
	staff       storage.StaffStore
	services    storage.ServiceStore
	calendars   storage.CalendarStore
	access      *access.Service
	billing     *appbilling.Service
	analytics   *analytics.Emitter
	now         func() time.Time
	idGenerator func() (string, error)
}

// NewService creates a directory service.
func NewService(
	businesses storage.BusinessStore,
	sectors storage.SectorStore,
	staffStore storage.StaffStore,
	services storage.ServiceStore,
	calendars storage.CalendarStore,
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
		businesses:  businesses,
		sectors:     sectors,
		staff:       staffStore,
		services:    services,
		calendars:   calendars,
		access:      accessService,
		billing:     billingService,
		analytics:   emitter,
		now:         now,
		idGenerator: idGenerator,
	}
}

var errBusinessNotFound = apperrors.New(apperrors.CodeNotFound, "business not found")

// requireMember checks the caller belongs to the business. Outsiders get a
// not-found, never a permission error, so tenant IDs do not leak.
func (s *Service) requireMember(ctx context.Context, principal auth.Principal, businessID string) error {
	err := s.access.Authorize(ctx, principal, businessID, rbac.PermViewAppointments)
	if err == nil {
		return nil
	}
	if errors.Is(err, access.ErrPermissionDenied) {
		return errBusinessNotFound
	}
	return err
}

// CreateBusinessInput describes a business registration request.
type CreateBusinessInput struct {
	Name         string
	SectorID     string
	Locale       string
	Timezone     string
	ContactEmail string
	ContactPhone string
}

// CreateBusiness registers a new tenant. The caller becomes its OWNER and a
// trial subscription is opened.
func (s *Service) CreateBusiness(ctx context.Context, principal auth.Principal, input CreateBusinessInput) (business.Business, error) {
	if principal.UserID == "" {
		return business.Business{}, apperrors.New(apperrors.CodeAuthUnauthenticated, "caller is not authenticated")
	}
	if input.SectorID != "" {
		if _, err := s.sectors.GetSector(ctx, input.SectorID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return business.Business{}, apperrors.New(apperrors.CodeNotFound, "sector not found")
			}
			return business.Business{}, fmt.Errorf("get sector: %w", err)
		}
	}

	created, err := business.Create(business.CreateInput{
		Name:         input.Name,
		SectorID:     input.SectorID,
		Locale:       input.Locale,
		Timezone:     input.Timezone,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
	}, s.now, s.idGenerator)
	if err != nil {
		return business.Business{}, err
	}

	if err := s.businesses.CreateBusiness(ctx, created); err != nil {
		return business.Business{}, fmt.Errorf("create business: %w", err)
	}
	if _, err := s.access.GrantInitialOwner(ctx, principal.UserID, created.ID); err != nil {
		return business.Business{}, fmt.Errorf("grant owner role: %w", err)
	}
	if _, err := s.billing.StartSubscription(ctx, created.ID); err != nil {
		return business.Business{}, fmt.Errorf("start subscription: %w", err)
	}

	s.audit(ctx, created.ID, principal.UserID, "business.created", "business", created.ID, map[string]string{
		"name": created.Name,
	})
	return created, nil
}

// GetBusiness returns a business the caller belongs to.
func (s *Service) GetBusiness(ctx context.Context, principal auth.Principal, businessID string) (business.Business, error) {
	if err := s.requireMember(ctx, principal, businessID); err != nil {
		return business.Business{}, err
	}
	return s.loadBusiness(ctx, businessID)
}

// SearchBusinesses lists businesses across tenants. Platform scope only.
func (s *Service) SearchBusinesses(ctx context.Context, principal auth.Principal, filter storage.BusinessFilter, pageSize int, pageToken string) (storage.BusinessPage, error) {
	if principal.UserID == "" {
		return storage.BusinessPage{}, apperrors.New(apperrors.CodeAuthUnauthenticated, "caller is not authenticated")
	}
	if !principal.PlatformAdmin {
		return storage.BusinessPage{}, access.ErrPermissionDenied
	}
	return s.businesses.ListBusinesses(ctx, filter, pageSize, pageToken)
}

// UpdateBusinessInput describes a business metadata update.
type UpdateBusinessInput struct {
	Name         string
	SectorID     string
	Locale       string
	Timezone     string
	ContactEmail string
	ContactPhone string
}

// UpdateBusiness replaces the metadata of a business.
func (s *Service) UpdateBusiness(ctx context.Context, principal auth.Principal, businessID string, input UpdateBusinessInput) (business.Business, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageBusiness); err != nil {
		return business.Business{}, err
	}
	current, err := s.loadBusiness(ctx, businessID)
	if err != nil {
		return business.Business{}, err
	}

	normalized, err := business.NormalizeCreateInput(business.CreateInput{
		Name:         input.Name,
		SectorID:     input.SectorID,
		Locale:       input.Locale,
		Timezone:     input.Timezone,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
	})
	if err != nil {
		return business.Business{}, err
	}
	if normalized.SectorID != "" && normalized.SectorID != current.SectorID {
		if _, err := s.sectors.GetSector(ctx, normalized.SectorID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return business.Business{}, apperrors.New(apperrors.CodeNotFound, "sector not found")
			}
			return business.Business{}, fmt.Errorf("get sector: %w", err)
		}
	}

	current.Name = normalized.Name
	current.SectorID = normalized.SectorID
	current.Locale = normalized.Locale
	current.Timezone = normalized.Timezone
	current.ContactEmail = normalized.ContactEmail
	current.ContactPhone = normalized.ContactPhone
	current.UpdatedAt = s.now().UTC()

	if err := s.businesses.UpdateBusiness(ctx, current); err != nil {
		return business.Business{}, fmt.Errorf("update business: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "business.updated", "business", businessID, nil)
	return current, nil
}

// TransitionBusiness moves a business to another lifecycle status. Archiving
// also cancels the subscription.
func (s *Service) TransitionBusiness(ctx context.Context, principal auth.Principal, businessID string, target business.Status) (business.Business, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageBusiness); err != nil {
		return business.Business{}, err
	}
	current, err := s.loadBusiness(ctx, businessID)
	if err != nil {
		return business.Business{}, err
	}
	updated, err := business.TransitionStatus(current, target, s.now)
	if err != nil {
		return business.Business{}, err
	}
	if err := s.businesses.UpdateBusiness(ctx, updated); err != nil {
		return business.Business{}, fmt.Errorf("update business: %w", err)
	}

	if target == business.StatusArchived {
		if _, err := s.billing.CancelSubscription(ctx, principal, businessID); err != nil &&
			apperrors.CodeOf(err) != apperrors.CodeBillingSubscriptionCancelled {
			log.Printf("directory: cancel subscription of archived business %s: %v", businessID, err)
		}
	}

	s.audit(ctx, businessID, principal.UserID, "business.status_changed", "business", businessID, map[string]string{
		"status": business.StatusLabel(target),
	})
	return updated, nil
}

// Statistics summarizes directory counts of one business.
type Statistics struct {
	StaffCount    int
	ServiceCount  int
	CalendarCount int
}

// BusinessStatistics returns the directory counts of a business.
func (s *Service) BusinessStatistics(ctx context.Context, principal auth.Principal, businessID string) (Statistics, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermViewReports); err != nil {
		return Statistics{}, err
	}
	staffCount, err := s.staff.CountStaff(ctx, businessID)
	if err != nil {
		return Statistics{}, fmt.Errorf("count staff: %w", err)
	}
	serviceCount, err := s.services.CountServices(ctx, businessID)
	if err != nil {
		return Statistics{}, fmt.Errorf("count services: %w", err)
	}
	calendarCount, err := s.calendars.CountCalendars(ctx, businessID)
	if err != nil {
		return Statistics{}, fmt.Errorf("count calendars: %w", err)
	}
	return Statistics{
		StaffCount:    staffCount,
		ServiceCount:  serviceCount,
		CalendarCount: calendarCount,
	}, nil
}

// ListSectors returns all business sectors. Public.
func (s *Service) ListSectors(ctx context.Context) ([]business.Sector, error) {
	sectors, err := s.sectors.ListSectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	return sectors, nil
}

// CreateSector adds a business sector. Platform scope only.
func (s *Service) CreateSector(ctx context.Context, principal auth.Principal, name, description string) (business.Sector, error) {
	if principal.UserID == "" {
		return business.Sector{}, apperrors.New(apperrors.CodeAuthUnauthenticated, "caller is not authenticated")
	}
	if !principal.PlatformAdmin {
		return business.Sector{}, access.ErrPermissionDenied
	}
	sector, err := business.CreateSector(name, description, s.now, s.idGenerator)
	if err != nil {
		return business.Sector{}, err
	}
	if err := s.sectors.CreateSector(ctx, sector); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return business.Sector{}, apperrors.New(apperrors.CodeAlreadyExists, "sector name already exists")
		}
		return business.Sector{}, fmt.Errorf("create sector: %w", err)
	}
	return sector, nil
}

// CreateStaffInput describes a staff creation request.
type CreateStaffInput struct {
	DisplayName string
	Email       string
	RoleLabel   string
}

// CreateStaff adds a staff member, subject to the plan's staff limit.
func (s *Service) CreateStaff(ctx context.Context, principal auth.Principal, businessID string, input CreateStaffInput) (staff.Member, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageStaff); err != nil {
		return staff.Member{}, err
	}
	if err := s.billing.CheckStaffLimit(ctx, businessID); err != nil {
		return staff.Member{}, err
	}

	member, err := staff.Create(staff.CreateInput{
		BusinessID:  businessID,
		DisplayName: input.DisplayName,
		Email:       input.Email,
		RoleLabel:   input.RoleLabel,
	}, s.now, s.idGenerator)
	if err != nil {
		return staff.Member{}, err
	}
	if err := s.staff.CreateStaff(ctx, member); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return staff.Member{}, apperrors.New(apperrors.CodeAlreadyExists, "staff email already in use")
		}
		return staff.Member{}, fmt.Errorf("create staff: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "staff.created", "staff", member.ID, map[string]string{
		"display_name": member.DisplayName,
	})
	return member, nil
}

// GetStaff returns one staff member of a business.
func (s *Service) GetStaff(ctx context.Context, principal auth.Principal, businessID, staffID string) (staff.Member, error) {
	if err := s.requireMember(ctx, principal, businessID); err != nil {
		return staff.Member{}, err
	}
	member, err := s.staff.GetStaff(ctx, businessID, staffID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return staff.Member{}, apperrors.New(apperrors.CodeNotFound, "staff member not found")
		}
		return staff.Member{}, fmt.Errorf("get staff: %w", err)
	}
	return member, nil
}

// UpdateStaffInput describes a staff update request.
type UpdateStaffInput struct {
	DisplayName string
	Email       string
	RoleLabel   string
	Active      bool
}

// UpdateStaff replaces the mutable fields of a staff member.
func (s *Service) UpdateStaff(ctx context.Context, principal auth.Principal, businessID, staffID string, input UpdateStaffInput) (staff.Member, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageStaff); err != nil {
		return staff.Member{}, err
	}
	member, err := s.staff.GetStaff(ctx, businessID, staffID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return staff.Member{}, apperrors.New(apperrors.CodeNotFound, "staff member not found")
		}
		return staff.Member{}, fmt.Errorf("get staff: %w", err)
	}

	normalized, err := staff.NormalizeCreateInput(staff.CreateInput{
		BusinessID:  businessID,
		DisplayName: input.DisplayName,
		Email:       input.Email,
		RoleLabel:   input.RoleLabel,
	})
	if err != nil {
		return staff.Member{}, err
	}
	member.DisplayName = normalized.DisplayName
	member.Email = normalized.Email
	member.RoleLabel = normalized.RoleLabel
	member.Active = input.Active
	member.UpdatedAt = s.now().UTC()

	if err := s.staff.UpdateStaff(ctx, member); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return staff.Member{}, apperrors.New(apperrors.CodeAlreadyExists, "staff email already in use")
		}
		return staff.Member{}, fmt.Errorf("update staff: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "staff.updated", "staff", member.ID, nil)
	return member, nil
}

// DeleteStaff removes a staff member.
func (s *Service) DeleteStaff(ctx context.Context, principal auth.Principal, businessID, staffID string) error {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageStaff); err != nil {
		return err
	}
	if err := s.staff.DeleteStaff(ctx, businessID, staffID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "staff member not found")
		}
		return fmt.Errorf("delete staff: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "staff.deleted", "staff", staffID, nil)
	return nil
}

// ListStaff returns one page of staff members.
func (s *Service) ListStaff(ctx context.Context, principal auth.Principal, businessID string, pageSize int, pageToken string) (storage.StaffPage, error) {
	if err := s.requireMember(ctx, principal, businessID); err != nil {
		return storage.StaffPage{}, err
	}
	return s.staff.ListStaff(ctx, businessID, pageSize, pageToken)
}

// CreateServiceInput describes a bookable service creation request.
type CreateServiceInput struct {
	Name            string
	Description     string
	DurationMinutes int
	PriceAmount     decimal.Decimal
	Currency        string
}

// CreateService adds a bookable service.
func (s *Service) CreateService(ctx context.Context, principal auth.Principal, businessID string, input CreateServiceInput) (offering.Service, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageServices); err != nil {
		return offering.Service{}, err
	}
	svc, err := offering.Create(offering.CreateInput{
		BusinessID:      businessID,
		Name:            input.Name,
		Description:     input.Description,
		DurationMinutes: input.DurationMinutes,
		PriceAmount:     input.PriceAmount,
		Currency:        input.Currency,
	}, s.now, s.idGenerator)
	if err != nil {
		return offering.Service{}, err
	}
	if err := s.services.CreateService(ctx, svc); err != nil {
		return offering.Service{}, fmt.Errorf("create service: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "service.created", "service", svc.ID, map[string]string{
		"name": svc.Name,
	})
	return svc, nil
}

// GetService returns one bookable service of a business.
func (s *Service) GetService(ctx context.Context, principal auth.Principal, businessID, serviceID string) (offering.Service, error) {
	if err := s.requireMember(ctx, principal, businessID); err != nil {
		return offering.Service{}, err
	}
	svc, err := s.services.GetService(ctx, businessID, serviceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return offering.Service{}, apperrors.New(apperrors.CodeNotFound, "service not found")
		}
		return offering.Service{}, fmt.Errorf("get service: %w", err)
	}
	return svc, nil
}

// UpdateServiceInput describes a bookable service update request.
type UpdateServiceInput struct {
	Name            string
	Description     string
	DurationMinutes int
	PriceAmount     decimal.Decimal
	Currency        string
	Active          bool
}

// UpdateService replaces the mutable fields of a bookable service.
func (s *Service) UpdateService(ctx context.Context, principal auth.Principal, businessID, serviceID string, input UpdateServiceInput) (offering.Service, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageServices); err != nil {
		return offering.Service{}, err
	}
	svc, err := s.services.GetService(ctx, businessID, serviceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return offering.Service{}, apperrors.New(apperrors.CodeNotFound, "service not found")
		}
		return offering.Service{}, fmt.Errorf("get service: %w", err)
	}

	normalized, err := offering.NormalizeCreateInput(offering.CreateInput{
		BusinessID:      businessID,
		Name:            input.Name,
		Description:     input.Description,
		DurationMinutes: input.DurationMinutes,
		PriceAmount:     input.PriceAmount,
		Currency:        input.Currency,
	})
	if err != nil {
		return offering.Service{}, err
	}
	svc.Name = normalized.Name
	svc.Description = normalized.Description
	svc.DurationMinutes = normalized.DurationMinutes
	svc.PriceAmount = normalized.PriceAmount
	svc.Currency = normalized.Currency
	svc.Active = input.Active
	svc.UpdatedAt = s.now().UTC()

	if err := s.services.UpdateService(ctx, svc); err != nil {
		return offering.Service{}, fmt.Errorf("update service: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "service.updated", "service", svc.ID, nil)
	return svc, nil
}

// DeleteService removes a bookable service.
func (s *Service) DeleteService(ctx context.Context, principal auth.Principal, businessID, serviceID string) error {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageServices); err != nil {
		return err
	}
	if err := s.services.DeleteService(ctx, businessID, serviceID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "service not found")
		}
		return fmt.Errorf("delete service: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "service.deleted", "service", serviceID, nil)
	return nil
}

// ListServices returns one page of bookable services.
func (s *Service) ListServices(ctx context.Context, principal auth.Principal, businessID string, activeOnly bool, pageSize int, pageToken string) (storage.ServicePage, error) {
	if err := s.requireMember(ctx, principal, businessID); err != nil {
		return storage.ServicePage{}, err
	}
	return s.services.ListServices(ctx, businessID, activeOnly, pageSize, pageToken)
}

// CreateCalendarInput describes a calendar creation request.
type CreateCalendarInput struct {
	Name     string
	Kind     calendar.Kind
	StaffID  string
	Timezone string
	Hours    calendar.WeekHours
}

// CreateCalendar adds a calendar, subject to the plan's calendar limit. The
// timezone defaults to the business timezone.
func (s *Service) CreateCalendar(ctx context.Context, principal auth.Principal, businessID string, input CreateCalendarInput) (calendar.Calendar, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageCalendars); err != nil {
		return calendar.Calendar{}, err
	}
	if err := s.billing.CheckCalendarLimit(ctx, businessID); err != nil {
		return calendar.Calendar{}, err
	}
	owner, err := s.loadBusiness(ctx, businessID)
	if err != nil {
		return calendar.Calendar{}, err
	}
	if input.Kind == calendar.KindStaff {
		if _, err := s.staff.GetStaff(ctx, businessID, input.StaffID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return calendar.Calendar{}, apperrors.New(apperrors.CodeNotFound, "staff member not found")
			}
			return calendar.Calendar{}, fmt.Errorf("get staff: %w", err)
		}
	}

	timezone := input.Timezone
	if timezone == "" {
		timezone = owner.Timezone
	}
	created, err := calendar.Create(calendar.CreateInput{
		BusinessID: businessID,
		Name:       input.Name,
		Kind:       input.Kind,
		StaffID:    input.StaffID,
		Timezone:   timezone,
		Hours:      input.Hours,
	}, s.now, s.idGenerator)
	if err != nil {
		return calendar.Calendar{}, err
	}
	if err := s.calendars.CreateCalendar(ctx, created); err != nil {
		return calendar.Calendar{}, fmt.Errorf("create calendar: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "calendar.created", "calendar", created.ID, map[string]string{
		"name": created.Name,
		"kind": calendar.KindLabel(created.Kind),
	})
	return created, nil
}

// GetCalendar returns one calendar of a business.
func (s *Service) GetCalendar(ctx context.Context, principal auth.Principal, businessID, calendarID string) (calendar.Calendar, error) {
	if err := s.requireMember(ctx, principal, businessID); err != nil {
		return calendar.Calendar{}, err
	}
	cal, err := s.calendars.GetCalendar(ctx, businessID, calendarID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return calendar.Calendar{}, apperrors.New(apperrors.CodeNotFound, "calendar not found")
		}
		return calendar.Calendar{}, fmt.Errorf("get calendar: %w", err)
	}
	return cal, nil
}

// UpdateCalendarInput describes a calendar metadata update.
type UpdateCalendarInput struct {
	Name     string
	Timezone string
	Active   bool
}

// UpdateCalendar replaces the mutable metadata of a calendar. Kind and staff
// binding are fixed at creation.
func (s *Service) UpdateCalendar(ctx context.Context, principal auth.Principal, businessID, calendarID string, input UpdateCalendarInput) (calendar.Calendar, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageCalendars); err != nil {
		return calendar.Calendar{}, err
	}
	cal, err := s.calendars.GetCalendar(ctx, businessID, calendarID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return calendar.Calendar{}, apperrors.New(apperrors.CodeNotFound, "calendar not found")
		}
		return calendar.Calendar{}, fmt.Errorf("get calendar: %w", err)
	}

	normalized, err := calendar.NormalizeCreateInput(calendar.CreateInput{
		BusinessID: businessID,
		Name:       input.Name,
		Kind:       cal.Kind,
		StaffID:    cal.StaffID,
		Timezone:   input.Timezone,
		Hours:      cal.Hours,
	})
	if err != nil {
		return calendar.Calendar{}, err
	}
	cal.Name = normalized.Name
	cal.Timezone = normalized.Timezone
	cal.Active = input.Active
	cal.UpdatedAt = s.now().UTC()

	if err := s.calendars.UpdateCalendar(ctx, cal); err != nil {
		return calendar.Calendar{}, fmt.Errorf("update calendar: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "calendar.updated", "calendar", cal.ID, nil)
	return cal, nil
}

// UpdateCalendarHours replaces the working hours of a calendar.
func (s *Service) UpdateCalendarHours(ctx context.Context, principal auth.Principal, businessID, calendarID string, hours calendar.WeekHours) (calendar.Calendar, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageCalendars); err != nil {
		return calendar.Calendar{}, err
	}
	cal, err := s.calendars.GetCalendar(ctx, businessID, calendarID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return calendar.Calendar{}, apperrors.New(apperrors.CodeNotFound, "calendar not found")
		}
		return calendar.Calendar{}, fmt.Errorf("get calendar: %w", err)
	}
	normalized, err := calendar.NormalizeWeekHours(hours)
	if err != nil {
		return calendar.Calendar{}, err
	}
	cal.Hours = normalized
	cal.UpdatedAt = s.now().UTC()

	if err := s.calendars.UpdateCalendar(ctx, cal); err != nil {
		return calendar.Calendar{}, fmt.Errorf("update calendar: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "calendar.hours_updated", "calendar", cal.ID, nil)
	return cal, nil
}

// DeleteCalendar removes a calendar and its working hours.
func (s *Service) DeleteCalendar(ctx context.Context, principal auth.Principal, businessID, calendarID string) error {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageCalendars); err != nil {
		return err
	}
	if err := s.calendars.DeleteCalendar(ctx, businessID, calendarID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "calendar not found")
		}
		return fmt.Errorf("delete calendar: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "calendar.deleted", "calendar", calendarID, nil)
	return nil
}

// ListCalendars returns one page of calendars.
func (s *Service) ListCalendars(ctx context.Context, principal auth.Principal, businessID string, pageSize int, pageToken string) (storage.CalendarPage, error) {
	if err := s.requireMember(ctx, principal, businessID); err != nil {
		return storage.CalendarPage{}, err
	}
	return s.calendars.ListCalendars(ctx, businessID, pageSize, pageToken)
}

func (s *Service) loadBusiness(ctx context.Context, businessID string) (business.Business, error) {
	b, err := s.businesses.GetBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return business.Business{}, errBusinessNotFound
		}
		return business.Business{}, fmt.Errorf("get business: %w", err)
	}
	return b, nil
}

func (s *Service) audit(ctx context.Context, businessID, actorID, action, entity, entityID string, metadata map[string]string) {
	err := s.analytics.Emit(ctx, analytics.Event{
		BusinessID: businessID,
		ActorID:    actorID,
		Action:     action,
		Entity:     entity,
		EntityID:   entityID,
		Metadata:   metadata,
	})
	if err != nil {
		log.Printf("directory: emit audit event: %v", err)
	}
}
