package billing

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/plannio/plannio/internal/platform/errors"
)

// Status describes the state of a subscription.
type Status int

const (
	// StatusUnspecified represents an invalid subscription status value.
	StatusUnspecified Status = iota
	// StatusTrialing is the starting state of every new business.
	StatusTrialing
	// StatusActive is a paid subscription in good standing.
	StatusActive
	// StatusPastDue indicates a renewal charge failed.
	StatusPastDue
	// StatusCancelled indicates the subscription was ended. Terminal.
	StatusCancelled
)

// CycleLength is the fixed billing cycle window.
const CycleLength = 30 * 24 * time.Hour

// ErrSubscriptionCancelled indicates an operation on a cancelled subscription.
var ErrSubscriptionCancelled = apperrors.New(apperrors.CodeBillingSubscriptionCancelled, "subscription is cancelled")

// Subscription tracks the plan a business is on. One per business.
type Subscription struct {
	BusinessID string
	PlanCode   PlanCode
	Status     Status
	CycleStart time.Time
	CycleEnd   time.Time
	// CancelledAt is set when the subscription ends.
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Plan resolves the static plan for the subscription's code.
func (s Subscription) Plan() Plan {
	plan, err := PlanFromCode(string(s.PlanCode))
	if err != nil {
		return plans[PlanFree]
	}
	return plan
}

// CycleDays returns the length of the current cycle in whole days.
func (s Subscription) CycleDays() int {
	return int(s.CycleEnd.Sub(s.CycleStart) / (24 * time.Hour))
}

// RemainingDays returns the whole days left in the current cycle, rounded up
// so a partially elapsed day still counts as remaining. Never negative.
func (s Subscription) RemainingDays(now time.Time) int {
	left := s.CycleEnd.Sub(now)
	if left <= 0 {
		return 0
	}
	days := int(left / (24 * time.Hour))
	if left%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// Due reports whether the cycle window has elapsed and a renewal is owed.
func (s Subscription) Due(now time.Time) bool {
	if s.Status == StatusCancelled {
		return false
	}
	return !now.Before(s.CycleEnd)
}

// CreateSubscription starts a new business on the FREE plan, trialing, with a
// full cycle window.
func CreateSubscription(businessID string, now func() time.Time) (Subscription, error) {
	if now == nil {
		now = time.Now
	}
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return Subscription{}, fmt.Errorf("business id is required")
	}

	createdAt := now().UTC()
	return Subscription{
		BusinessID: businessID,
		PlanCode:   PlanFree,
		Status:     StatusTrialing,
		CycleStart: createdAt,
		CycleEnd:   createdAt.Add(CycleLength),
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}, nil
}

// Renew rolls the subscription into the next cycle window. Trialing
// subscriptions become active on their first renewal.
func Renew(s Subscription, now func() time.Time) (Subscription, error) {
	if now == nil {
		now = time.Now
	}
	if s.Status == StatusCancelled {
		return Subscription{}, ErrSubscriptionCancelled
	}

	s.CycleStart = s.CycleEnd
	s.CycleEnd = s.CycleStart.Add(CycleLength)
	if s.Status == StatusTrialing {
		s.Status = StatusActive
	}
	s.UpdatedAt = now().UTC()
	return s, nil
}

// Cancel ends the subscription. Cancelling twice is an error.
func Cancel(s Subscription, now func() time.Time) (Subscription, error) {
	if now == nil {
		now = time.Now
	}
	if s.Status == StatusCancelled {
		return Subscription{}, ErrSubscriptionCancelled
	}

	cancelledAt := now().UTC()
	s.Status = StatusCancelled
	s.CancelledAt = &cancelledAt
	s.UpdatedAt = cancelledAt
	return s, nil
}

// StatusLabel returns a stable label for a subscription status.
func StatusLabel(status Status) string {
	switch status {
	case StatusTrialing:
		return "TRIALING"
	case StatusActive:
		return "ACTIVE"
	case StatusPastDue:
		return "PAST_DUE"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNSPECIFIED"
	}
}

// StatusFromLabel parses a string label into a Status.
// It trims whitespace and matches case-insensitively. Both short ("ACTIVE")
// and prefixed ("SUBSCRIPTION_STATUS_ACTIVE") forms are accepted.
func StatusFromLabel(value string) (Status, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return StatusUnspecified, fmt.Errorf("subscription status is required")
	}
	switch strings.ToUpper(trimmed) {
	case "TRIALING", "SUBSCRIPTION_STATUS_TRIALING":
		return StatusTrialing, nil
	case "ACTIVE", "SUBSCRIPTION_STATUS_ACTIVE":
		return StatusActive, nil
	case "PAST_DUE", "SUBSCRIPTION_STATUS_PAST_DUE":
		return StatusPastDue, nil
	case "CANCELLED", "SUBSCRIPTION_STATUS_CANCELLED":
		return StatusCancelled, nil
	default:
		return StatusUnspecified, fmt.Errorf("unknown subscription status: %s", trimmed)
	}
}
