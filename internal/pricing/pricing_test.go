package pricing

import (
	"testing"

	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(qty, unit, original string) model.OrderLine {
	l := model.OrderLine{
		Quantity:      d(qty),
		UnitPrice:     d(unit),
		OriginalPrice: d(original),
	}
	l.Total = LineTotal(&l)
	return l
}

func TestLineTotal(t *testing.T) {
	l := line("3", "10.00", "10.00")
	assert.True(t, d("30.00").Equal(LineTotal(&l)))
}

func TestTotals(t *testing.T) {
	tests := []struct {
		name       string
		lines      []model.OrderLine
		discount   string
		freight    string
		otherCosts string
		wantSub    string
		wantTotal  string
	}{
		{
			name:      "single line no adjustments",
			lines:     []model.OrderLine{line("3", "10.00", "10.00")},
			discount:  "0", freight: "0", otherCosts: "0",
			wantSub: "30.00", wantTotal: "30.00",
		},
		{
			name: "discount freight and other costs",
			lines: []model.OrderLine{
				line("2", "25.50", "25.50"),
				line("1", "10.00", "10.00"),
			},
			discount: "5.00", freight: "12.00", otherCosts: "3.00",
			wantSub: "61.00", wantTotal: "71.00",
		},
		{
			name:      "total floored at zero",
			lines:     []model.OrderLine{line("1", "10.00", "10.00")},
			discount:  "50.00", freight: "0", otherCosts: "0",
			wantSub: "10.00", wantTotal: "0",
		},
		{
			name:     "empty cart",
			lines:    nil,
			discount: "0", freight: "0", otherCosts: "0",
			wantSub: "0", wantTotal: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, total := Totals(tt.lines, d(tt.discount), d(tt.freight), d(tt.otherCosts))
			assert.True(t, d(tt.wantSub).Equal(sub), "subtotal: want %s got %s", tt.wantSub, sub)
			assert.True(t, d(tt.wantTotal).Equal(total), "total: want %s got %s", tt.wantTotal, total)
		})
	}
}

func TestOriginalGrossUsesOriginalPrices(t *testing.T) {
	// The line is discounted but the gross baseline must not move.
	l := line("2", "9.40", "10.00")
	gross := OriginalGross([]model.OrderLine{l})
	assert.True(t, d("20.00").Equal(gross))
	assert.True(t, d("18.80").Equal(Subtotal([]model.OrderLine{l})))
}
