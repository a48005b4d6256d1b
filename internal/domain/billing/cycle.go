package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plannio/plannio/internal/platform/id"
)

// CycleReason records why a billing cycle entry was written.
type CycleReason int

const (
	// CycleReasonUnspecified represents an invalid cycle reason value.
	CycleReasonUnspecified CycleReason = iota
	// CycleReasonTrialStart is the opening entry of a new subscription.
	CycleReasonTrialStart
	// CycleReasonRenewal is a cycle rollover.
	CycleReasonRenewal
	// CycleReasonPlanChange is a mid-cycle plan switch.
	CycleReasonPlanChange
)

// Cycle is one append-only billing history entry.
type Cycle struct {
	ID          string
	BusinessID  string
	PlanCode    PlanCode
	PeriodStart time.Time
	PeriodEnd   time.Time
	// Amount is the price billed for the period.
	Amount decimal.Decimal
	// ProratedAdjustment is the credit applied on a plan change, zero otherwise.
	ProratedAdjustment decimal.Decimal
	Reason             CycleReason
	CreatedAt          time.Time
}

// CreateCycleInput describes one billing history entry to record.
type CreateCycleInput struct {
	BusinessID         string
	PlanCode           PlanCode
	PeriodStart        time.Time
	PeriodEnd          time.Time
	Amount             decimal.Decimal
	ProratedAdjustment decimal.Decimal
	Reason             CycleReason
}

// CreateCycle creates a billing cycle entry with a generated ID.
func CreateCycle(input CreateCycleInput, now func() time.Time, idGenerator func() (string, error)) (Cycle, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.BusinessID = strings.TrimSpace(input.BusinessID)
	if input.BusinessID == "" {
		return Cycle{}, fmt.Errorf("business id is required")
	}
	if input.Reason == CycleReasonUnspecified {
		return Cycle{}, fmt.Errorf("cycle reason is required")
	}
	if !input.PeriodEnd.After(input.PeriodStart) {
		return Cycle{}, fmt.Errorf("cycle period end must be after start")
	}

	cycleID, err := idGenerator()
	if err != nil {
		return Cycle{}, fmt.Errorf("generate cycle id: %w", err)
	}

	return Cycle{
		ID:                 cycleID,
		BusinessID:         input.BusinessID,
		PlanCode:           input.PlanCode,
		PeriodStart:        input.PeriodStart.UTC(),
		PeriodEnd:          input.PeriodEnd.UTC(),
		Amount:             input.Amount,
		ProratedAdjustment: input.ProratedAdjustment,
		Reason:             input.Reason,
		CreatedAt:          now().UTC(),
	}, nil
}

// CycleReasonLabel returns a stable label for a cycle reason.
func CycleReasonLabel(reason CycleReason) string {
	switch reason {
	case CycleReasonTrialStart:
		return "TRIAL_START"
	case CycleReasonRenewal:
		return "RENEWAL"
	case CycleReasonPlanChange:
		return "PLAN_CHANGE"
	default:
		return "UNSPECIFIED"
	}
}

// CycleReasonFromLabel parses a string label into a CycleReason.
func CycleReasonFromLabel(value string) (CycleReason, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return CycleReasonUnspecified, fmt.Errorf("cycle reason is required")
	}
	switch strings.ToUpper(trimmed) {
	case "TRIAL_START", "CYCLE_REASON_TRIAL_START":
		return CycleReasonTrialStart, nil
	case "RENEWAL", "CYCLE_REASON_RENEWAL":
		return CycleReasonRenewal, nil
	case "PLAN_CHANGE", "CYCLE_REASON_PLAN_CHANGE":
		return CycleReasonPlanChange, nil
	default:
		return CycleReasonUnspecified, fmt.Errorf("unknown cycle reason: %s", trimmed)
	}
}
