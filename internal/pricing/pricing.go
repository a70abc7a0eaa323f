// Package pricing holds the cart arithmetic. Everything here is a pure
// function over in-memory lines; persistence never calls back into it.
package pricing

import (
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/shopspring/decimal"
)

// LineTotal is quantity × unit price.
func LineTotal(line *model.OrderLine) decimal.Decimal {
	return line.Quantity.Mul(line.UnitPrice)
}

// Subtotal sums the line totals as currently priced (line discounts included).
func Subtotal(lines []model.OrderLine) decimal.Decimal {
	sum := decimal.Zero
	for i := range lines {
		sum = sum.Add(LineTotal(&lines[i]))
	}
	return sum
}

// OriginalGross sums quantity × original price over all lines. It is the
// baseline every discount percentage is computed against.
func OriginalGross(lines []model.OrderLine) decimal.Decimal {
	sum := decimal.Zero
	for i := range lines {
		sum = sum.Add(lines[i].Quantity.Mul(lines[i].OriginalPrice))
	}
	return sum
}

// Totals computes subtotal and the order total:
//
//	total = max(0, subtotal − discount + freight + otherCosts)
func Totals(lines []model.OrderLine, discount, freight, otherCosts decimal.Decimal) (subtotal, total decimal.Decimal) {
	subtotal = Subtotal(lines)
	total = subtotal.Sub(discount).Add(freight).Add(otherCosts)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return subtotal, total
}
