// Package payment reconciles the tender buckets against the order total.
package payment

import (
	"github.com/fekuna/omnipos-order-service/internal/apperr"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultTolerance is the absolute currency tolerance for settling an order.
var DefaultTolerance = decimal.NewFromFloat(0.05)

// TotalPaid sums every tender bucket.
func TotalPaid(p *model.PaymentDetails) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range model.Tenders {
		sum = sum.Add(p.Get(t))
	}
	return sum
}

// Remaining is the amount still owed, floored at zero.
func Remaining(total decimal.Decimal, p *model.PaymentDetails) decimal.Decimal {
	remaining := total.Sub(TotalPaid(p))
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// AutoFill adds the remaining balance onto one bucket's current value.
func AutoFill(total decimal.Decimal, p *model.PaymentDetails, tender model.Tender) {
	remaining := Remaining(total, p)
	if remaining.IsZero() {
		return
	}
	p.Set(tender, p.Get(tender).Add(remaining))
}

// Validate checks the tendered amounts against the order total. Budgets are
// quotes, not committed sales, and bypass validation entirely. The mismatch
// error carries the signed delta: negative for a shortfall, positive for an
// overage.
func Validate(total decimal.Decimal, p *model.PaymentDetails, asBudget bool, tolerance decimal.Decimal) error {
	if asBudget {
		return nil
	}
	if !total.IsPositive() {
		return nil
	}

	paid := TotalPaid(p)
	if paid.IsZero() {
		return apperr.ErrNoPaymentMethod
	}

	delta := paid.Sub(total)
	if delta.Abs().GreaterThan(tolerance) {
		return apperr.PaymentMismatch(delta)
	}
	return nil
}
