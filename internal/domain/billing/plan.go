// Package billing defines subscription plans, billing cycles, and the
// proration rules applied when a business changes plan.
package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PlanCode identifies one of the static subscription plans.
type PlanCode string

const (
	PlanFree    PlanCode = "FREE"
	PlanStarter PlanCode = "STARTER"
	PlanGrowth  PlanCode = "GROWTH"
	PlanScale   PlanCode = "SCALE"
)

// Plan is one row of the static plan table.
type Plan struct {
	Code         PlanCode
	Name         string
	MonthlyPrice decimal.Decimal
	// MaxStaff and MaxCalendars cap how many of each a business may create.
	MaxStaff     int
	MaxCalendars int
	// AppointmentsPerCycle caps appointments created within one billing cycle.
	AppointmentsPerCycle int
}

var plans = map[PlanCode]Plan{
	PlanFree: {
		Code:                 PlanFree,
		Name:                 "Free",
		MonthlyPrice:         decimal.Zero,
		MaxStaff:             2,
		MaxCalendars:         1,
		AppointmentsPerCycle: 20,
	},
	PlanStarter: {
		Code:                 PlanStarter,
		Name:                 "Starter",
		MonthlyPrice:         decimal.NewFromInt(29),
		MaxStaff:             5,
		MaxCalendars:         3,
		AppointmentsPerCycle: 200,
	},
	PlanGrowth: {
		Code:                 PlanGrowth,
		Name:                 "Growth",
		MonthlyPrice:         decimal.NewFromInt(79),
		MaxStaff:             15,
		MaxCalendars:         10,
		AppointmentsPerCycle: 1000,
	},
	PlanScale: {
		Code:                 PlanScale,
		Name:                 "Scale",
		MonthlyPrice:         decimal.NewFromInt(199),
		MaxStaff:             50,
		MaxCalendars:         50,
		AppointmentsPerCycle: 10000,
	},
}

// PlanFromCode resolves a plan from its code. Codes match case-insensitively.
func PlanFromCode(value string) (Plan, error) {
	code := PlanCode(strings.ToUpper(strings.TrimSpace(value)))
	plan, ok := plans[code]
	if !ok {
		return Plan{}, fmt.Errorf("unknown plan: %s", value)
	}
	return plan, nil
}

// Plans lists all plans in ascending price order.
func Plans() []Plan {
	return []Plan{plans[PlanFree], plans[PlanStarter], plans[PlanGrowth], plans[PlanScale]}
}
