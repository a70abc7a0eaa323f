// Package discount enforces the two-tier discount policy: per-line price
// edits capped against the original price, and the order-level discount with
// its three derived views (amount, combined percent, target total).
package discount

import (
	"strings"

	"github.com/fekuna/omnipos-order-service/internal/apperr"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/pricing"
	"github.com/shopspring/decimal"
)

// Policy carries the thresholds. Defaults match store policy; config may
// override them at startup.
type Policy struct {
	// ItemDiscountCap is the max per-line discount as a fraction (0.06 = 6%).
	ItemDiscountCap decimal.Decimal
	// AuthThreshold is the combined order percentage above which a manager
	// token is required.
	AuthThreshold decimal.Decimal
	// MinTokenLen is the minimum manager token length.
	MinTokenLen int
}

func DefaultPolicy() Policy {
	return Policy{
		ItemDiscountCap: decimal.NewFromFloat(0.06),
		AuthThreshold:   decimal.NewFromInt(6),
		MinTokenLen:     3,
	}
}

var hundred = decimal.NewFromInt(100)

// PriceFloor is the lowest unit price a line edit may reach.
func (p Policy) PriceFloor(original decimal.Decimal) decimal.Decimal {
	return original.Mul(decimal.NewFromInt(1).Sub(p.ItemDiscountCap))
}

// ApplyLinePrice edits a line's unit price under the per-line rule:
// zero/empty reverts to the original price, anything below the floor is
// clamped to it. Clamping is reported, not failed. Line edits are rejected
// outright while an order-level discount is in effect, so the two tiers are
// never combined ambiguously.
func (p Policy) ApplyLinePrice(line *model.OrderLine, entered decimal.Decimal, orderDiscount decimal.Decimal) (clamped bool, err error) {
	if !orderDiscount.IsZero() {
		return false, apperr.Validation("clear the order-level discount before editing line prices")
	}

	if entered.IsZero() {
		line.UnitPrice = line.OriginalPrice
		line.Total = pricing.LineTotal(line)
		return false, nil
	}

	floor := p.PriceFloor(line.OriginalPrice)
	if entered.LessThan(floor) {
		line.UnitPrice = floor
		line.Total = pricing.LineTotal(line)
		return true, nil
	}

	line.UnitPrice = entered
	line.Total = pricing.LineTotal(line)
	return false, nil
}

// Proposal is one order-level discount expressed through its three views.
// Amount is the single source of truth; Percent and TargetTotal are derived
// and never stored.
type Proposal struct {
	Amount       decimal.Decimal `json:"amount"`
	Percent      decimal.Decimal `json:"percent"`
	TargetTotal  decimal.Decimal `json:"target_total"`
	RequiresAuth bool            `json:"requires_auth"`
}

// FromAmount derives the proposal for a given absolute discount amount.
//
// The combined percentage is measured against the original gross, so a cart
// that already carries line-level discounts reports the full effective
// discount, not just the order-level slice:
//
//	percent = (gross − subtotal + amount) / gross × 100
func (p Policy) FromAmount(lines []model.OrderLine, amount decimal.Decimal) Proposal {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	subtotal := pricing.Subtotal(lines)
	gross := pricing.OriginalGross(lines)

	percent := decimal.Zero
	if gross.IsPositive() {
		percent = gross.Sub(subtotal).Add(amount).Div(gross).Mul(hundred)
	}

	return Proposal{
		Amount:       amount,
		Percent:      percent,
		TargetTotal:  subtotal.Sub(amount),
		RequiresAuth: percent.GreaterThan(p.AuthThreshold),
	}
}

// FromPercent back-solves the discount amount that yields the given combined
// percentage, then re-derives the other views from it.
func (p Policy) FromPercent(lines []model.OrderLine, percent decimal.Decimal) Proposal {
	subtotal := pricing.Subtotal(lines)
	gross := pricing.OriginalGross(lines)

	// amount = percent/100 × gross − (gross − subtotal)
	amount := percent.Div(hundred).Mul(gross).Sub(gross.Sub(subtotal))
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return p.FromAmount(lines, amount)
}

// FromTargetTotal back-solves the discount needed to land on the requested
// post-discount total: max(0, subtotal − target).
func (p Policy) FromTargetTotal(lines []model.OrderLine, target decimal.Decimal) Proposal {
	subtotal := pricing.Subtotal(lines)
	amount := subtotal.Sub(target)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return p.FromAmount(lines, amount)
}

// Authorize gates the confirmation of an order-level discount. Above the
// threshold a manager token of at least MinTokenLen characters is required.
func (p Policy) Authorize(proposal Proposal, token string) error {
	if !proposal.RequiresAuth {
		return nil
	}
	if len(strings.TrimSpace(token)) < p.MinTokenLen {
		return apperr.Policy(
			"discount of %s%% exceeds the %s%% threshold and requires manager authorization",
			proposal.Percent.Round(2), p.AuthThreshold,
		)
	}
	return nil
}

// Prorate folds a non-zero order-level discount into the lines at completion
// time: every line's unit price is scaled by (subtotal − discount)/subtotal
// and the discount field is zeroed, so the persisted prices alone carry the
// discounted total. Orders without a discount pass through untouched.
func Prorate(order *model.Order) {
	if order.Discount.IsZero() || len(order.Lines) == 0 {
		return
	}
	subtotal := pricing.Subtotal(order.Lines)
	if !subtotal.IsPositive() {
		return
	}

	factor := subtotal.Sub(order.Discount).Div(subtotal)
	for i := range order.Lines {
		line := &order.Lines[i]
		line.UnitPrice = line.UnitPrice.Mul(factor)
		line.Total = pricing.LineTotal(line)
	}
	order.Discount = decimal.Zero
}
