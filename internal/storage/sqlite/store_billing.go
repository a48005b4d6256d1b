package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/plannio/plannio/internal/domain/billing"
	"github.com/plannio/plannio/internal/storage"
)

const subscriptionColumns = `business_id, plan_code, status, cycle_start,
       cycle_end, cancelled_at, created_at, updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (billing.Subscription, error) {
	var sub billing.Subscription
	var planCode string
	var status int
	var cycleStart, cycleEnd, createdAt, updatedAt int64
	var cancelledAt sql.NullInt64
	if err := row.Scan(
		&sub.BusinessID,
		&planCode,
		&status,
		&cycleStart,
		&cycleEnd,
		&cancelledAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return billing.Subscription{}, err
	}
	sub.PlanCode = billing.PlanCode(planCode)
	sub.Status = billing.Status(status)
	sub.CycleStart = fromMillis(cycleStart)
	sub.CycleEnd = fromMillis(cycleEnd)
	sub.CancelledAt = fromNullMillis(cancelledAt)
	sub.CreatedAt = fromMillis(createdAt)
	sub.UpdatedAt = fromMillis(updatedAt)
	return sub, nil
}

// CreateSubscription inserts one subscription record.
func (s *Store) CreateSubscription(ctx context.Context, sub billing.Subscription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(sub.BusinessID) == "" {
		return fmt.Errorf("business id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO subscriptions (
		   business_id, plan_code, status, cycle_start, cycle_end,
		   cancelled_at, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.BusinessID,
		string(sub.PlanCode),
		int(sub.Status),
		toMillis(sub.CycleStart),
		toMillis(sub.CycleEnd),
		toNullMillis(sub.CancelledAt),
		toMillis(sub.CreatedAt),
		toMillis(sub.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// GetSubscription returns the subscription of a business.
func (s *Store) GetSubscription(ctx context.Context, businessID string) (billing.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return billing.Subscription{}, err
	}
	if err := s.ready(); err != nil {
		return billing.Subscription{}, err
	}
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return billing.Subscription{}, fmt.Errorf("business id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE business_id = ?`,
		businessID,
	)
	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return billing.Subscription{}, storage.ErrNotFound
		}
		return billing.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// UpdateSubscription updates one subscription record.
func (s *Store) UpdateSubscription(ctx context.Context, sub billing.Subscription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE subscriptions
		    SET plan_code = ?, status = ?, cycle_start = ?, cycle_end = ?,
		        cancelled_at = ?, updated_at = ?
		  WHERE business_id = ?`,
		string(sub.PlanCode),
		int(sub.Status),
		toMillis(sub.CycleStart),
		toMillis(sub.CycleEnd),
		toNullMillis(sub.CancelledAt),
		toMillis(sub.UpdatedAt),
		sub.BusinessID,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListDueSubscriptions returns non-cancelled subscriptions whose cycle ended at
// or before now, oldest first.
func (s *Store) ListDueSubscriptions(ctx context.Context, now time.Time, limit int) ([]billing.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		  WHERE status <> ? AND cycle_end <= ?
		  ORDER BY cycle_end ASC
		  LIMIT ?`,
		int(billing.StatusCancelled),
		toMillis(now),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	defer rows.Close()

	var due []billing.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("list due subscriptions: %w", err)
		}
		due = append(due, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	return due, nil
}

// CreateCycle inserts one billing cycle history record.
func (s *Store) CreateCycle(ctx context.Context, c billing.Cycle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("cycle id is required")
	}
	if strings.TrimSpace(c.BusinessID) == "" {
		return fmt.Errorf("business id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO billing_cycles (
		   id, business_id, plan_code, period_start, period_end,
		   amount, prorated_adjustment, reason, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.BusinessID,
		string(c.PlanCode),
		toMillis(c.PeriodStart),
		toMillis(c.PeriodEnd),
		c.Amount.String(),
		c.ProratedAdjustment.String(),
		int(c.Reason),
		toMillis(c.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create billing cycle: %w", err)
	}
	return nil
}

// ListCycles returns one page of billing cycle records ordered by ID.
func (s *Store) ListCycles(ctx context.Context, businessID string, pageSize int, pageToken string) (storage.CyclePage, error) {
	if err := ctx.Err(); err != nil {
		return storage.CyclePage{}, err
	}
	if err := s.ready(); err != nil {
		return storage.CyclePage{}, err
	}
	if pageSize <= 0 {
		return storage.CyclePage{}, fmt.Errorf("page size must be greater than zero")
	}
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return storage.CyclePage{}, fmt.Errorf("business id is required")
	}

	query := `SELECT id, business_id, plan_code, period_start, period_end,
	       amount, prorated_adjustment, reason, created_at
	  FROM billing_cycles WHERE business_id = ?`
	args := []any{businessID}
	if pageToken = strings.TrimSpace(pageToken); pageToken != "" {
		query += ` AND id > ?`
		args = append(args, pageToken)
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return storage.CyclePage{}, fmt.Errorf("list billing cycles: %w", err)
	}
	defer rows.Close()

	page := storage.CyclePage{Cycles: make([]billing.Cycle, 0, pageSize)}
	for rows.Next() {
		var c billing.Cycle
		var planCode, amount, adjustment string
		var reason int
		var periodStart, periodEnd, createdAt int64
		if err := rows.Scan(
			&c.ID,
			&c.BusinessID,
			&planCode,
			&periodStart,
			&periodEnd,
			&amount,
			&adjustment,
			&reason,
			&createdAt,
		); err != nil {
			return storage.CyclePage{}, fmt.Errorf("list billing cycles: %w", err)
		}
		amountValue, err := parseDecimal(amount, "cycle amount")
		if err != nil {
			return storage.CyclePage{}, err
		}
		adjustmentValue, err := parseDecimal(adjustment, "cycle adjustment")
		if err != nil {
			return storage.CyclePage{}, err
		}
		c.PlanCode = billing.PlanCode(planCode)
		c.PeriodStart = fromMillis(periodStart)
		c.PeriodEnd = fromMillis(periodEnd)
		c.Amount = amountValue
		c.ProratedAdjustment = adjustmentValue
		c.Reason = billing.CycleReason(reason)
		c.CreatedAt = fromMillis(createdAt)
		page.Cycles = append(page.Cycles, c)
	}
	if err := rows.Err(); err != nil {
		return storage.CyclePage{}, fmt.Errorf("list billing cycles: %w", err)
	}
	if len(page.Cycles) > pageSize {
		page.NextPageToken = page.Cycles[pageSize-1].ID
		page.Cycles = page.Cycles[:pageSize]
	}
	return page, nil
}

var (
	_ storage.SubscriptionStore = (*Store)(nil)
	_ storage.CycleStore        = (*Store)(nil)
)
