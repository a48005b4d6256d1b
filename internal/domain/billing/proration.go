package billing

import (
	"github.com/shopspring/decimal"
)

// Proration is the settlement for a mid-cycle plan change.
type Proration struct {
	// Credit is the unused portion of the old plan's price.
	Credit decimal.Decimal
	// Charge is the remaining-cycle portion of the new plan's price.
	Charge decimal.Decimal
	// AmountDue is max(0, Charge - Credit).
	AmountDue decimal.Decimal
}

// Prorate settles a plan switch with day granularity over the cycle length.
// All amounts are rounded half up to two decimal places.
func Prorate(oldPrice, newPrice decimal.Decimal, remainingDays, cycleDays int) Proration {
	if cycleDays <= 0 || remainingDays <= 0 {
		return Proration{
			Credit:    decimal.Zero.Round(2),
			Charge:    decimal.Zero.Round(2),
			AmountDue: decimal.Zero.Round(2),
		}
	}
	if remainingDays > cycleDays {
		remainingDays = cycleDays
	}

	remaining := decimal.NewFromInt(int64(remainingDays))
	cycle := decimal.NewFromInt(int64(cycleDays))

	credit := oldPrice.Mul(remaining).Div(cycle).Round(2)
	charge := newPrice.Mul(remaining).Div(cycle).Round(2)
	amountDue := charge.Sub(credit)
	if amountDue.IsNegative() {
		amountDue = decimal.Zero.Round(2)
	}

	return Proration{Credit: credit, Charge: charge, AmountDue: amountDue}
}
