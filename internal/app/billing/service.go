// Package billing manages subscriptions, plan changes, and plan limits.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plannio/plannio/internal/analytics"
	"github.com/plannio/plannio/internal/app/access"
	"github.com/plannio/plannio/internal/auth"
	domain "github.com/plannio/plannio/internal/domain/billing"
	"github.com/plannio/plannio/internal/domain/rbac"
	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/platform/id"
	"github.com/plannio/plannio/internal/storage"
)

// renewBatchSize bounds how many due subscriptions one housekeeping pass rolls.
const renewBatchSize = 100

// Service implements subscription and plan limit use-cases.
type Service struct {
	subscriptions storage.SubscriptionStore
	cycles        storage.CycleStore
	staff         storage.StaffStore
	calendars     storage.CalendarStore
	appointments  storage.AppointmentStore
	access        *access.Service
	analytics     *analytics.Emitter
	now           func() time.Time
	idGenerator   func() (string, error)
}

// NewService creates a billing service.
func NewService(
	subscriptions storage.SubscriptionStore,
	cycles storage.CycleStore,
	staff storage.StaffStore,
	calendars storage.CalendarStore,
	appointments storage.AppointmentStore,
	accessService *access.Service,
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
		subscriptions: subscriptions,
		cycles:        cycles,
		staff:         staff,
		calendars:     calendars,
		appointments:  appointments,
		access:        accessService,
		analytics:     emitter,
		now:           now,
		idGenerator:   idGenerator,
	}
}

// StartSubscription opens the trial subscription for a freshly created
// business and records the opening cycle. Called by the directory service.
func (s *Service) StartSubscription(ctx context.Context, businessID string) (domain.Subscription, error) {
	subscription, err := domain.CreateSubscription(businessID, s.now)
	if err != nil {
		return domain.Subscription{}, err
	}
	if err := s.subscriptions.CreateSubscription(ctx, subscription); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return domain.Subscription{}, apperrors.New(apperrors.CodeAlreadyExists, "subscription already exists")
		}
		return domain.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}
	if err := s.recordCycle(ctx, subscription, domain.CycleReasonTrialStart, subscription.Plan().MonthlyPrice, decimal.Zero); err != nil {
		return domain.Subscription{}, err
	}
	return subscription, nil
}

// GetSubscription returns the subscription of a business.
func (s *Service) GetSubscription(ctx context.Context, principal auth.Principal, businessID string) (domain.Subscription, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageBilling); err != nil {
		return domain.Subscription{}, err
	}
	return s.loadSubscription(ctx, businessID)
}

// ChangePlan switches a business to another plan mid-cycle. The current cycle
// window is kept; the settlement is prorated by remaining days.
func (s *Service) ChangePlan(ctx context.Context, principal auth.Principal, businessID, planCode string) (domain.Subscription, domain.Proration, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageBilling); err != nil {
		return domain.Subscription{}, domain.Proration{}, err
	}

	newPlan, err := domain.PlanFromCode(planCode)
	if err != nil {
		return domain.Subscription{}, domain.Proration{}, apperrors.WithMetadata(
			apperrors.CodeBillingUnknownPlan,
			fmt.Sprintf("unknown plan: %s", planCode),
			map[string]string{"Plan": planCode},
		)
	}

	subscription, err := s.loadSubscription(ctx, businessID)
	if err != nil {
		return domain.Subscription{}, domain.Proration{}, err
	}
	if subscription.Status == domain.StatusCancelled {
		return domain.Subscription{}, domain.Proration{}, domain.ErrSubscriptionCancelled
	}
	if subscription.PlanCode == newPlan.Code {
		return domain.Subscription{}, domain.Proration{}, apperrors.New(apperrors.CodeBillingSamePlan, "business already on this plan")
	}

	now := s.now().UTC()
	oldPlan := subscription.Plan()
	proration := domain.Prorate(
		oldPlan.MonthlyPrice,
		newPlan.MonthlyPrice,
		subscription.RemainingDays(now),
		subscription.CycleDays(),
	)

	subscription.PlanCode = newPlan.Code
	if subscription.Status == domain.StatusTrialing && newPlan.Code != domain.PlanFree {
		subscription.Status = domain.StatusActive
	}
	subscription.UpdatedAt = now
	if err := s.subscriptions.UpdateSubscription(ctx, subscription); err != nil {
		return domain.Subscription{}, domain.Proration{}, fmt.Errorf("update subscription: %w", err)
	}
	if err := s.recordCycle(ctx, subscription, domain.CycleReasonPlanChange, proration.AmountDue, proration.Credit); err != nil {
		return domain.Subscription{}, domain.Proration{}, err
	}

	s.audit(ctx, businessID, principal.UserID, "subscription.plan_changed", map[string]string{
		"from_plan": string(oldPlan.Code),
		"to_plan":   string(newPlan.Code),
		"amount":    proration.AmountDue.String(),
	})
	return subscription, proration, nil
}

// CancelSubscription ends the subscription of a business.
func (s *Service) CancelSubscription(ctx context.Context, principal auth.Principal, businessID string) (domain.Subscription, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageBilling); err != nil {
		return domain.Subscription{}, err
	}
	subscription, err := s.loadSubscription(ctx, businessID)
	if err != nil {
		return domain.Subscription{}, err
	}
	cancelled, err := domain.Cancel(subscription, s.now)
	if err != nil {
		return domain.Subscription{}, err
	}
	if err := s.subscriptions.UpdateSubscription(ctx, cancelled); err != nil {
		return domain.Subscription{}, fmt.Errorf("update subscription: %w", err)
	}
	s.audit(ctx, businessID, principal.UserID, "subscription.cancelled", nil)
	return cancelled, nil
}

// RenewIfDue rolls every due subscription into its next cycle and records a
// renewal cycle entry. Used by the housekeeping tick; returns the number of
// subscriptions renewed.
func (s *Service) RenewIfDue(ctx context.Context) (int, error) {
	now := s.now().UTC()
	due, err := s.subscriptions.ListDueSubscriptions(ctx, now, renewBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list due subscriptions: %w", err)
	}

	renewed := 0
	for _, subscription := range due {
		// Catch up subscriptions that slept through multiple cycles.
		for subscription.Due(now) {
			next, err := domain.Renew(subscription, s.now)
			if err != nil {
				return renewed, err
			}
			subscription = next
			if err := s.recordCycle(ctx, subscription, domain.CycleReasonRenewal, subscription.Plan().MonthlyPrice, decimal.Zero); err != nil {
				return renewed, err
			}
		}
		if err := s.subscriptions.UpdateSubscription(ctx, subscription); err != nil {
			return renewed, fmt.Errorf("update subscription: %w", err)
		}
		renewed++
	}
	return renewed, nil
}

// Usage reports plan limits against current consumption.
type Usage struct {
	PlanCode          domain.PlanCode
	Status            domain.Status
	CycleStart        time.Time
	CycleEnd          time.Time
	StaffCount        int
	StaffLimit        int
	CalendarCount     int
	CalendarLimit     int
	AppointmentsUsed  int
	AppointmentsLimit int
}

// GetUsage returns the plan usage report for a business.
func (s *Service) GetUsage(ctx context.Context, principal auth.Principal, businessID string) (Usage, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermViewReports); err != nil {
		return Usage{}, err
	}
	subscription, err := s.loadSubscription(ctx, businessID)
	if err != nil {
		return Usage{}, err
	}
	plan := subscription.Plan()

	staffCount, err := s.staff.CountStaff(ctx, businessID)
	if err != nil {
		return Usage{}, fmt.Errorf("count staff: %w", err)
	}
	calendarCount, err := s.calendars.CountCalendars(ctx, businessID)
	if err != nil {
		return Usage{}, fmt.Errorf("count calendars: %w", err)
	}
	appointmentsUsed, err := s.appointments.CountAppointmentsCreatedBetween(ctx, businessID, subscription.CycleStart, subscription.CycleEnd)
	if err != nil {
		return Usage{}, fmt.Errorf("count appointments: %w", err)
	}

	return Usage{
		PlanCode:          subscription.PlanCode,
		Status:            subscription.Status,
		CycleStart:        subscription.CycleStart,
		CycleEnd:          subscription.CycleEnd,
		StaffCount:        staffCount,
		StaffLimit:        plan.MaxStaff,
		CalendarCount:     calendarCount,
		CalendarLimit:     plan.MaxCalendars,
		AppointmentsUsed:  appointmentsUsed,
		AppointmentsLimit: plan.AppointmentsPerCycle,
	}, nil
}

// ListCycles returns one page of the billing history of a business.
func (s *Service) ListCycles(ctx context.Context, principal auth.Principal, businessID string, pageSize int, pageToken string) (storage.CyclePage, error) {
	if err := s.access.Authorize(ctx, principal, businessID, rbac.PermManageBilling); err != nil {
		return storage.CyclePage{}, err
	}
	return s.cycles.ListCycles(ctx, businessID, pageSize, pageToken)
}

// ListPlans returns the static plan table. No authorization: plans are public.
func (s *Service) ListPlans() []domain.Plan {
	return domain.Plans()
}

// CheckStaffLimit rejects staff creation beyond the plan limit. Callers are
// already authorized.
func (s *Service) CheckStaffLimit(ctx context.Context, businessID string) error {
	subscription, err := s.loadSubscription(ctx, businessID)
	if err != nil {
		return err
	}
	plan := subscription.Plan()
	count, err := s.staff.CountStaff(ctx, businessID)
	if err != nil {
		return fmt.Errorf("count staff: %w", err)
	}
	if count >= plan.MaxStaff {
		return limitError(apperrors.CodePlanLimitStaffExceeded, "staff limit reached", plan, plan.MaxStaff)
	}
	return nil
}

// CheckCalendarLimit rejects calendar creation beyond the plan limit.
func (s *Service) CheckCalendarLimit(ctx context.Context, businessID string) error {
	subscription, err := s.loadSubscription(ctx, businessID)
	if err != nil {
		return err
	}
	plan := subscription.Plan()
	count, err := s.calendars.CountCalendars(ctx, businessID)
	if err != nil {
		return fmt.Errorf("count calendars: %w", err)
	}
	if count >= plan.MaxCalendars {
		return limitError(apperrors.CodePlanLimitCalendarsExceeded, "calendar limit reached", plan, plan.MaxCalendars)
	}
	return nil
}

// CheckAppointmentQuota rejects bookings beyond the cycle quota.
func (s *Service) CheckAppointmentQuota(ctx context.Context, businessID string) error {
	subscription, err := s.loadSubscription(ctx, businessID)
	if err != nil {
		return err
	}
	plan := subscription.Plan()
	used, err := s.appointments.CountAppointmentsCreatedBetween(ctx, businessID, subscription.CycleStart, subscription.CycleEnd)
	if err != nil {
		return fmt.Errorf("count appointments: %w", err)
	}
	if used >= plan.AppointmentsPerCycle {
		return limitError(apperrors.CodePlanLimitAppointmentsExceeded, "appointment quota reached", plan, plan.AppointmentsPerCycle)
	}
	return nil
}

func (s *Service) loadSubscription(ctx context.Context, businessID string) (domain.Subscription, error) {
	subscription, err := s.subscriptions.GetSubscription(ctx, businessID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Subscription{}, apperrors.New(apperrors.CodeNotFound, "subscription not found")
		}
		return domain.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return subscription, nil
}

func (s *Service) recordCycle(ctx context.Context, subscription domain.Subscription, reason domain.CycleReason, amount, adjustment decimal.Decimal) error {
	cycle, err := domain.CreateCycle(domain.CreateCycleInput{
		BusinessID:         subscription.BusinessID,
		PlanCode:           subscription.PlanCode,
		PeriodStart:        subscription.CycleStart,
		PeriodEnd:          subscription.CycleEnd,
		Amount:             amount,
		ProratedAdjustment: adjustment,
		Reason:             reason,
	}, s.now, s.idGenerator)
	if err != nil {
		return err
	}
	if err := s.cycles.CreateCycle(ctx, cycle); err != nil {
		return fmt.Errorf("record billing cycle: %w", err)
	}
	return nil
}

func limitError(code apperrors.Code, message string, plan domain.Plan, limit int) error {
	return apperrors.WithMetadata(code, message, map[string]string{
		"Plan":  string(plan.Code),
		"Limit": fmt.Sprintf("%d", limit),
	})
}

func (s *Service) audit(ctx context.Context, businessID, actorID, action string, metadata map[string]string) {
	err := s.analytics.Emit(ctx, analytics.Event{
		BusinessID: businessID,
		ActorID:    actorID,
		Action:     action,
		Entity:     "subscription",
		EntityID:   businessID,
		Metadata:   metadata,
	})
	if err != nil {
		log.Printf("billing: emit audit event: %v", err)
	}
}
