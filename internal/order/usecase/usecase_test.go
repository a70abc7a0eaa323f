package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fekuna/omnipos-order-service/internal/apperr"
	"github.com/fekuna/omnipos-order-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-order-service/internal/discount"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/payment"
	orddto "github.com/fekuna/omnipos-order-service/internal/order/dto"
	"github.com/fekuna/omnipos-order-service/pkg/cache"
	"github.com/fekuna/omnipos-order-service/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// mockRepository implements order.Repository for testing.
type mockRepository struct {
	mu        sync.Mutex
	orders    map[string]*model.Order
	created   *model.Order
	updated   *model.Order
	completed *model.Order
	cancelled *model.Order
	restocked bool

	completeErr error
	cancelErr   error
}

func newMockRepository() *mockRepository {
	return &mockRepository{orders: map[string]*model.Order{}}
}

func (m *mockRepository) Create(_ context.Context, ord *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = ord
	m.orders[ord.ID] = ord
	return nil
}

func (m *mockRepository) Update(_ context.Context, ord *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = ord
	m.orders[ord.ID] = ord
	return nil
}

func (m *mockRepository) FindByID(_ context.Context, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id], nil
}

func (m *mockRepository) FindAll(_ context.Context, _ *orddto.OrderFilters) ([]model.Order, int, error) {
	return nil, 0, nil
}

func (m *mockRepository) Complete(_ context.Context, ord *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completeErr != nil {
		return m.completeErr
	}
	m.completed = ord
	m.orders[ord.ID] = ord
	return nil
}

func (m *mockRepository) Cancel(_ context.Context, ord *model.Order, _ model.OrderStatus, restock bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancelErr != nil {
		return m.cancelErr
	}
	m.cancelled = ord
	m.restocked = restock
	return nil
}

// fakeCatalog implements catalog.Reader over a fixed product map.
type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]*model.Product
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id], nil
}

func (f *fakeCatalog) GetProductByCode(_ context.Context, _ string) (*model.Product, error) {
	return nil, nil
}

func (f *fakeCatalog) ListProducts(_ context.Context, _ *dto.ProductFilters) ([]model.Product, int, error) {
	return nil, 0, nil
}

func (f *fakeCatalog) InvalidateProduct(_ context.Context, _ string) {}

// capturePublisher records published events on a channel so async publishes
// can be awaited.
type capturePublisher struct {
	events chan []byte
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{events: make(chan []byte, 8)}
}

func (p *capturePublisher) Publish(_ context.Context, _, value []byte) error {
	p.events <- value
	return nil
}

type fixture struct {
	uc        *orderUseCase
	repo      *mockRepository
	catalog   *fakeCatalog
	publisher *capturePublisher
	redis     *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	repo := newMockRepository()
	cat := &fakeCatalog{products: map[string]*model.Product{
		"prod-1": {
			BaseModel:     model.BaseModel{ID: "prod-1"},
			Code:          "P1",
			Name:          "Widget",
			UnitPrice:     d("10.00"),
			StockQuantity: d("50"),
			Unit:          "un",
			IsActive:      true,
		},
	}}
	publisher := newCapturePublisher()

	uc := NewOrderUseCase(
		repo, cat, redisClient, publisher,
		discount.DefaultPolicy(), payment.DefaultTolerance,
		logger.NewNop(),
	).(*orderUseCase)

	return &fixture{uc: uc, repo: repo, catalog: cat, publisher: publisher, redis: mr}
}

func cartWith(qty string) orddto.CartInput {
	return orddto.CartInput{
		Lines: []orddto.LineInput{{ProductID: "prod-1", Quantity: d(qty)}},
	}
}

func TestPriceCart(t *testing.T) {
	f := newFixture(t)

	totals, err := f.uc.PriceCart(context.Background(), &orddto.CartInput{
		Lines:      []orddto.LineInput{{ProductID: "prod-1", Quantity: d("3")}},
		Freight:    d("2.00"),
		OtherCosts: d("1.00"),
		Discount:   d("3.00"),
	})
	require.NoError(t, err)
	assert.True(t, d("30.00").Equal(totals.Subtotal))
	assert.True(t, d("30.00").Equal(totals.Total))
}

func TestPriceCartUnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.PriceCart(context.Background(), &orddto.CartInput{
		Lines: []orddto.LineInput{{ProductID: "missing", Quantity: d("1")}},
	})
	require.Error(t, err)
	kind, ok := apperr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, kind)
}

func TestProposeDiscountFromTargetTotal(t *testing.T) {
	f := newFixture(t)

	target := d("27.00")
	proposal, err := f.uc.ProposeDiscount(context.Background(), &orddto.ProposeDiscountInput{
		Cart:        cartWith("3"),
		TargetTotal: &target,
	})
	require.NoError(t, err)
	assert.True(t, d("3.00").Equal(proposal.Amount))
	assert.True(t, d("10").Equal(proposal.Percent.Round(4)))
	assert.True(t, proposal.RequiresAuth)
}

func TestConfirmDiscount(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.ConfirmDiscount(context.Background(), &orddto.ConfirmDiscountInput{
		Cart:   cartWith("3"),
		Amount: d("3.00"),
	})
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindPolicy, kind)

	proposal, err := f.uc.ConfirmDiscount(context.Background(), &orddto.ConfirmDiscountInput{
		Cart:   cartWith("3"),
		Amount: d("3.00"),
		Token:  "mgr1",
	})
	require.NoError(t, err)
	assert.True(t, d("3.00").Equal(proposal.Amount))
}

func TestSubmitOrderPending(t *testing.T) {
	f := newFixture(t)

	ord, err := f.uc.SubmitOrder(context.Background(), &orddto.SubmitOrderInput{
		SellerID: "seller-1",
		Cart:     cartWith("3"),
		Payments: model.PaymentDetails{Cash: d("30.00")},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, ord.Status)
	assert.True(t, d("30.00").Equal(ord.Total))
	assert.NotEmpty(t, ord.ID)
	assert.NotNil(t, f.repo.created)
}

func TestSubmitOrderPaymentMismatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.SubmitOrder(context.Background(), &orddto.SubmitOrderInput{
		SellerID: "seller-1",
		Cart:     cartWith("3"),
		Payments: model.PaymentDetails{Cash: d("20.00")},
	})
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindPaymentMismatch, kind)
	assert.Nil(t, f.repo.created)
}

func TestSubmitOrderBudgetSkipsPaymentValidation(t *testing.T) {
	f := newFixture(t)

	ord, err := f.uc.SubmitOrder(context.Background(), &orddto.SubmitOrderInput{
		SellerID: "seller-1",
		Cart:     cartWith("3"),
		AsBudget: true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusBudget, ord.Status)
}

func TestSubmitOrderDiscountRequiresAuthorization(t *testing.T) {
	f := newFixture(t)

	over := cartWith("3")
	over.Discount = d("15.00") // 50% of a 30.00 cart

	_, err := f.uc.SubmitOrder(context.Background(), &orddto.SubmitOrderInput{
		SellerID: "seller-1",
		Cart:     over,
		Payments: model.PaymentDetails{Cash: d("15.00")},
	})
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindPolicy, kind)
	assert.Nil(t, f.repo.created)

	ord, err := f.uc.SubmitOrder(context.Background(), &orddto.SubmitOrderInput{
		SellerID:     "seller-1",
		Cart:         over,
		ManagerToken: "mgr1",
		Payments:     model.PaymentDetails{Cash: d("15.00")},
	})
	require.NoError(t, err)
	assert.True(t, d("15.00").Equal(ord.Total))
	assert.True(t, d("15.00").Equal(ord.Discount))
	assert.NotNil(t, f.repo.created)
}

func TestSubmitOrderSmallDiscountNeedsNoToken(t *testing.T) {
	f := newFixture(t)

	small := cartWith("3")
	small.Discount = d("1.50") // 5%, under the auth threshold

	ord, err := f.uc.SubmitOrder(context.Background(), &orddto.SubmitOrderInput{
		SellerID: "seller-1",
		Cart:     small,
		Payments: model.PaymentDetails{Cash: d("28.50")},
	})
	require.NoError(t, err)
	assert.True(t, d("28.50").Equal(ord.Total))
}

func TestSubmitOrderNegativeDiscountRejected(t *testing.T) {
	f := newFixture(t)

	bad := cartWith("3")
	bad.Discount = d("-1.00")

	_, err := f.uc.SubmitOrder(context.Background(), &orddto.SubmitOrderInput{
		SellerID: "seller-1",
		Cart:     bad,
		Payments: model.PaymentDetails{Cash: d("31.00")},
	})
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)
}

func TestResubmitOverwritesEditableOrder(t *testing.T) {
	f := newFixture(t)

	first, err := f.uc.SubmitOrder(context.Background(), &orddto.SubmitOrderInput{
		SellerID: "seller-1",
		Cart:     cartWith("3"),
		AsBudget: true,
	})
	require.NoError(t, err)

	second, err := f.uc.SubmitOrder(context.Background(), &orddto.SubmitOrderInput{
		ID:       first.ID,
		SellerID: "seller-1",
		Cart:     cartWith("2"),
		Payments: model.PaymentDetails{Cash: d("20.00")},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.OrderStatusPending, second.Status)
	assert.True(t, d("20.00").Equal(second.Total))
	assert.NotNil(t, f.repo.updated)
}

func TestResubmitCompletedOrderFails(t *testing.T) {
	f := newFixture(t)
	f.repo.orders["ord-1"] = &model.Order{ID: "ord-1", Status: model.OrderStatusCompleted}

	_, err := f.uc.SubmitOrder(context.Background(), &orddto.SubmitOrderInput{
		ID:       "ord-1",
		SellerID: "seller-1",
		Cart:     cartWith("1"),
		Payments: model.PaymentDetails{Cash: d("10.00")},
	})
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindConsistency, kind)
}

func pendingOrder(id string) *model.Order {
	line := model.OrderLine{
		ID: "line-1", OrderID: id, ProductID: "prod-1",
		ProductCode: "P1", ProductName: "Widget", Unit: "un",
		Quantity: d("3"), UnitPrice: d("10.00"), OriginalPrice: d("10.00"),
		Total: d("30.00"),
	}
	return &model.Order{
		ID:       id,
		SellerID: "seller-1",
		Status:   model.OrderStatusPending,
		Discount: d("3.00"),
		Total:    d("27.00"),
		Payments: model.PaymentDetails{Cash: d("27.00")},
		Lines:    []model.OrderLine{line},
	}
}

func TestCompleteOrderProratesAndSettles(t *testing.T) {
	f := newFixture(t)
	f.repo.orders["ord-1"] = pendingOrder("ord-1")

	ord, err := f.uc.CompleteOrder(context.Background(), "ord-1", "cashier-1", "Alex")
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusCompleted, ord.Status)
	require.NotNil(t, ord.CashierID)
	assert.Equal(t, "cashier-1", *ord.CashierID)
	assert.Equal(t, "Alex", ord.CashierName)
	require.NotNil(t, ord.CompletedAt)

	// Discount prorated into the lines: factor 0.9 on a 10.00 unit price.
	assert.True(t, ord.Discount.IsZero())
	assert.True(t, d("9.00").Equal(ord.Lines[0].UnitPrice))
	assert.True(t, d("27.00").Equal(ord.Lines[0].Total))

	require.NotNil(t, f.repo.completed)

	select {
	case <-f.publisher.events:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an order completed event")
	}
}

func TestCompleteOrderGuards(t *testing.T) {
	tests := []struct {
		name    string
		status  model.OrderStatus
		wantErr error
	}{
		{"already completed", model.OrderStatusCompleted, apperr.ErrAlreadyCompleted},
		{"budget not settleable", model.OrderStatusBudget, apperr.ErrNotPending},
		{"cancelled not settleable", model.OrderStatusCancelled, apperr.ErrNotPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ord := pendingOrder("ord-1")
			ord.Status = tt.status
			f.repo.orders["ord-1"] = ord

			_, err := f.uc.CompleteOrder(context.Background(), "ord-1", "cashier-1", "Alex")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, f.repo.completed)
		})
	}
}

func TestCompleteOrderNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CompleteOrder(context.Background(), "missing", "cashier-1", "Alex")
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)
}

func TestCompleteOrderPaymentMismatch(t *testing.T) {
	f := newFixture(t)
	ord := pendingOrder("ord-1")
	ord.Payments = model.PaymentDetails{Cash: d("10.00")}
	f.repo.orders["ord-1"] = ord

	_, err := f.uc.CompleteOrder(context.Background(), "ord-1", "cashier-1", "Alex")
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindPaymentMismatch, kind)
	assert.Nil(t, f.repo.completed)
	assert.True(t, d("3.00").Equal(ord.Discount), "failed completion must not prorate")
}

func TestCompleteOrderLocked(t *testing.T) {
	f := newFixture(t)
	f.repo.orders["ord-1"] = pendingOrder("ord-1")
	require.NoError(t, f.redis.Set("lock:order:ord-1", "other-session"))

	_, err := f.uc.CompleteOrder(context.Background(), "ord-1", "cashier-1", "Alex")
	assert.ErrorIs(t, err, apperr.ErrOrderLocked)
}

func TestCancelPendingOrder(t *testing.T) {
	f := newFixture(t)
	f.repo.orders["ord-1"] = pendingOrder("ord-1")

	ord, err := f.uc.CancelOrder(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, ord.Status)
	assert.False(t, f.repo.restocked, "pending orders never decremented stock")
}

func TestCancelCompletedOrderRestocks(t *testing.T) {
	f := newFixture(t)
	ord := pendingOrder("ord-1")
	ord.Status = model.OrderStatusCompleted
	f.repo.orders["ord-1"] = ord

	_, err := f.uc.CancelOrder(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.True(t, f.repo.restocked)

	select {
	case <-f.publisher.events:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an order cancelled event")
	}
}

func TestCancelCancelledOrderRejected(t *testing.T) {
	f := newFixture(t)
	ord := pendingOrder("ord-1")
	ord.Status = model.OrderStatusCancelled
	f.repo.orders["ord-1"] = ord

	_, err := f.uc.CancelOrder(context.Background(), "ord-1")
	assert.ErrorIs(t, err, apperr.ErrAlreadyCancelled)
	assert.Nil(t, f.repo.cancelled)
}
