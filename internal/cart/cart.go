// Package cart models the in-progress order as an explicit value passed into
// the pricing, discount and payment engines. Nothing here touches storage.
package cart

import (
	"github.com/fekuna/omnipos-order-service/internal/apperr"
	"github.com/fekuna/omnipos-order-service/internal/discount"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Draft struct {
	Lines      []model.OrderLine
	Discount   decimal.Decimal
	Freight    decimal.Decimal
	OtherCosts decimal.Decimal
	Payments   model.PaymentDetails

	policy discount.Policy
}

func NewDraft(policy discount.Policy) *Draft {
	return &Draft{policy: policy}
}

// AddProduct appends a line, capturing the product snapshot (code, name,
// unit, price) so the order stays immutable to later catalog edits. Stock is
// only advisory here; the authoritative check happens at completion.
func (d *Draft) AddProduct(p *model.Product, quantity decimal.Decimal, observation string) (*model.OrderLine, error) {
	if p == nil {
		return nil, apperr.Validation("no product selected")
	}
	if !p.IsActive {
		return nil, apperr.Validation("product %q is inactive", p.Name)
	}
	if !quantity.IsPositive() {
		return nil, apperr.Validation("quantity must be greater than zero")
	}
	if p.StockQuantity.LessThan(quantity) {
		return nil, apperr.Validation("insufficient stock for product %q", p.Name)
	}

	line := model.OrderLine{
		ID:            uuid.New().String(),
		ProductID:     p.ID,
		ProductCode:   p.Code,
		ProductName:   p.Name,
		Unit:          p.Unit,
		Quantity:      quantity,
		UnitPrice:     p.UnitPrice,
		OriginalPrice: p.UnitPrice,
		Observation:   observation,
		Position:      len(d.Lines),
	}
	line.Total = pricing.LineTotal(&line)

	d.Lines = append(d.Lines, line)
	return &d.Lines[len(d.Lines)-1], nil
}

// RemoveLine drops a line by id and renumbers the remaining positions.
func (d *Draft) RemoveLine(lineID string) error {
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
			for j := range d.Lines {
				d.Lines[j].Position = j
			}
			return nil
		}
	}
	return apperr.Validation("line %s not found in cart", lineID)
}

// EditLinePrice applies the per-line discount rule to one line.
func (d *Draft) EditLinePrice(lineID string, entered decimal.Decimal) (clamped bool, err error) {
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			return d.policy.ApplyLinePrice(&d.Lines[i], entered, d.Discount)
		}
	}
	return false, apperr.Validation("line %s not found in cart", lineID)
}

// ProposeDiscountAmount and friends derive the three discount views without
// committing anything.
func (d *Draft) ProposeDiscountAmount(amount decimal.Decimal) discount.Proposal {
	return d.policy.FromAmount(d.Lines, amount)
}

func (d *Draft) ProposeDiscountPercent(percent decimal.Decimal) discount.Proposal {
	return d.policy.FromPercent(d.Lines, percent)
}

func (d *Draft) ProposeDiscountTarget(target decimal.Decimal) discount.Proposal {
	return d.policy.FromTargetTotal(d.Lines, target)
}

// ConfirmDiscount commits a proposal onto the draft, enforcing the manager
// authorization gate.
func (d *Draft) ConfirmDiscount(proposal discount.Proposal, token string) error {
	if err := d.policy.Authorize(proposal, token); err != nil {
		return err
	}
	d.Discount = proposal.Amount
	return nil
}

// Totals recomputes subtotal and total from the current cart state.
func (d *Draft) Totals() (subtotal, total decimal.Decimal) {
	return pricing.Totals(d.Lines, d.Discount, d.Freight, d.OtherCosts)
}

// ToOrder snapshots the draft into an Order ready for persistence. Status is
// left unset; the lifecycle controller assigns it on submission.
func (d *Draft) ToOrder(sellerID string) (*model.Order, error) {
	if len(d.Lines) == 0 {
		return nil, apperr.ErrEmptyCart
	}
	_, total := d.Totals()

	lines := make([]model.OrderLine, len(d.Lines))
	copy(lines, d.Lines)

	return &model.Order{
		SellerID:   sellerID,
		Discount:   d.Discount,
		Freight:    d.Freight,
		OtherCosts: d.OtherCosts,
		Total:      total,
		Payments:   d.Payments,
		Lines:      lines,
	}, nil
}
