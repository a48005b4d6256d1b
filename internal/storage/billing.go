package storage

import (
	"context"
	"time"

	"github.com/plannio/plannio/internal/domain/billing"
)

// CyclePage stores one page of billing cycle records.
type CyclePage struct {
	Cycles        []billing.Cycle
	NextPageToken string
}

// SubscriptionStore persists subscription records, one per business.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, s billing.Subscription) error
	GetSubscription(ctx context.Context, businessID string) (billing.Subscription, error)
	UpdateSubscription(ctx context.Context, s billing.Subscription) error

	// ListDueSubscriptions returns non-cancelled subscriptions whose cycle
	// ended at or before now.
	ListDueSubscriptions(ctx context.Context, now time.Time, limit int) ([]billing.Subscription, error)
}

// CycleStore persists the append-only billing cycle history.
type CycleStore interface {
	CreateCycle(ctx context.Context, c billing.Cycle) error
	ListCycles(ctx context.Context, businessID string, pageSize int, pageToken string) (CyclePage, error)
}
