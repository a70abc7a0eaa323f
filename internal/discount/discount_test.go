package discount

import (
	"testing"

	"github.com/fekuna/omnipos-order-service/internal/apperr"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(qty, unit, original string) model.OrderLine {
	l := model.OrderLine{
		Quantity:      d(qty),
		UnitPrice:     d(unit),
		OriginalPrice: d(original),
	}
	l.Total = pricing.LineTotal(&l)
	return l
}

func TestApplyLinePrice(t *testing.T) {
	policy := DefaultPolicy()

	t.Run("zero reverts to original", func(t *testing.T) {
		l := line("2", "8.00", "10.00")
		clamped, err := policy.ApplyLinePrice(&l, decimal.Zero, decimal.Zero)
		require.NoError(t, err)
		assert.False(t, clamped)
		assert.True(t, d("10.00").Equal(l.UnitPrice))
		assert.True(t, d("20.00").Equal(l.Total))
	})

	t.Run("below floor clamps to 94 percent", func(t *testing.T) {
		l := line("1", "10.00", "10.00")
		clamped, err := policy.ApplyLinePrice(&l, d("5.00"), decimal.Zero)
		require.NoError(t, err)
		assert.True(t, clamped)
		assert.True(t, d("9.40").Equal(l.UnitPrice))
	})

	t.Run("valid edit applies", func(t *testing.T) {
		l := line("2", "10.00", "10.00")
		clamped, err := policy.ApplyLinePrice(&l, d("9.50"), decimal.Zero)
		require.NoError(t, err)
		assert.False(t, clamped)
		assert.True(t, d("9.50").Equal(l.UnitPrice))
		assert.True(t, d("19.00").Equal(l.Total))
	})

	t.Run("rejected while order discount active", func(t *testing.T) {
		l := line("1", "10.00", "10.00")
		_, err := policy.ApplyLinePrice(&l, d("9.50"), d("3.00"))
		require.Error(t, err)
		kind, ok := apperr.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, apperr.KindValidation, kind)
		assert.True(t, d("10.00").Equal(l.UnitPrice), "line must be untouched")
	})

	t.Run("raising the price is allowed", func(t *testing.T) {
		l := line("1", "10.00", "10.00")
		clamped, err := policy.ApplyLinePrice(&l, d("12.00"), decimal.Zero)
		require.NoError(t, err)
		assert.False(t, clamped)
		assert.True(t, d("12.00").Equal(l.UnitPrice))
	})
}

func TestProposalViewsRoundTrip(t *testing.T) {
	policy := DefaultPolicy()
	lines := []model.OrderLine{line("3", "10.00", "10.00")}

	fromAmount := policy.FromAmount(lines, d("3.00"))
	fromPercent := policy.FromPercent(lines, fromAmount.Percent)
	fromTarget := policy.FromTargetTotal(lines, fromAmount.TargetTotal)

	for _, p := range []Proposal{fromAmount, fromPercent, fromTarget} {
		assert.True(t, d("3.00").Equal(p.Amount), "amount: got %s", p.Amount)
		assert.True(t, d("10").Equal(p.Percent.Round(4)), "percent: got %s", p.Percent)
		assert.True(t, d("27.00").Equal(p.TargetTotal), "target: got %s", p.TargetTotal)
		assert.True(t, p.RequiresAuth)
	}
}

func TestProposalCombinesLineDiscounts(t *testing.T) {
	policy := DefaultPolicy()
	// Line already discounted to 9.40: effective discount is 6% before any
	// order-level amount is added.
	lines := []model.OrderLine{line("1", "9.40", "10.00")}

	p := policy.FromAmount(lines, decimal.Zero)
	assert.True(t, d("6").Equal(p.Percent.Round(4)), "percent: got %s", p.Percent)
	assert.False(t, p.RequiresAuth)

	// Any extra order-level discount tips the combined rate over the gate.
	p = policy.FromAmount(lines, d("0.10"))
	assert.True(t, p.RequiresAuth)
}

func TestFromTargetTotalClampsAtZero(t *testing.T) {
	policy := DefaultPolicy()
	lines := []model.OrderLine{line("3", "10.00", "10.00")}

	p := policy.FromTargetTotal(lines, d("35.00"))
	assert.True(t, p.Amount.IsZero())
}

func TestAuthorize(t *testing.T) {
	policy := DefaultPolicy()
	lines := []model.OrderLine{line("3", "10.00", "10.00")}

	tests := []struct {
		name    string
		amount  string
		token   string
		wantErr bool
	}{
		{"above threshold without token", "3.00", "", true},
		{"above threshold with short token", "3.00", "ab", true},
		{"above threshold with token", "3.00", "mgr1", false},
		{"below threshold without token", "1.00", "", false},
		{"at threshold without token", "1.80", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := policy.FromAmount(lines, d(tt.amount))
			err := policy.Authorize(p, tt.token)
			if tt.wantErr {
				require.Error(t, err)
				kind, ok := apperr.KindOf(err)
				require.True(t, ok)
				assert.Equal(t, apperr.KindPolicy, kind)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProrate(t *testing.T) {
	ord := &model.Order{
		Discount: d("3.00"),
		Lines: []model.OrderLine{
			line("2", "10.00", "10.00"),
			line("1", "10.00", "10.00"),
		},
	}

	Prorate(ord)

	assert.True(t, ord.Discount.IsZero())
	for i := range ord.Lines {
		assert.True(t, d("9.00").Equal(ord.Lines[i].UnitPrice), "line %d unit price: got %s", i, ord.Lines[i].UnitPrice)
	}
	sum := pricing.Subtotal(ord.Lines)
	assert.True(t, d("27.00").Equal(sum), "prorated lines must sum to the discounted subtotal, got %s", sum)
}

func TestProrateAppliesToDiscountedLines(t *testing.T) {
	// A line already reduced to 9.40 is scaled from its current price.
	ord := &model.Order{
		Discount: d("1.88"),
		Lines:    []model.OrderLine{line("2", "9.40", "10.00")},
	}

	Prorate(ord)

	// factor = (18.80 - 1.88) / 18.80 = 0.9
	assert.True(t, d("8.46").Equal(ord.Lines[0].UnitPrice), "got %s", ord.Lines[0].UnitPrice)
}

func TestProrateNoDiscountIsNoop(t *testing.T) {
	ord := &model.Order{
		Discount: decimal.Zero,
		Lines:    []model.OrderLine{line("1", "10.00", "10.00")},
	}
	Prorate(ord)
	assert.True(t, d("10.00").Equal(ord.Lines[0].UnitPrice))
}
