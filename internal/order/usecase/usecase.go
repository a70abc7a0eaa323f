package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperr"
	"github.com/fekuna/omnipos-order-service/internal/cart"
	"github.com/fekuna/omnipos-order-service/internal/catalog"
	"github.com/fekuna/omnipos-order-service/internal/discount"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/order"
	"github.com/fekuna/omnipos-order-service/internal/order/dto"
	"github.com/fekuna/omnipos-order-service/internal/payment"
	"github.com/fekuna/omnipos-order-service/pkg/cache"
	"github.com/fekuna/omnipos-order-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	lockTTL        = 10 * time.Second
	lockRetries    = 3
	lockRetryDelay = 100 * time.Millisecond
)

type orderUseCase struct {
	repo      order.Repository
	catalog   catalog.Reader
	cache     *cache.RedisClient
	events    order.EventPublisher
	policy    discount.Policy
	tolerance decimal.Decimal
	logger    logger.ZapLogger
}

func NewOrderUseCase(
	repo order.Repository,
	catalogReader catalog.Reader,
	cacheClient *cache.RedisClient,
	events order.EventPublisher,
	policy discount.Policy,
	tolerance decimal.Decimal,
	log logger.ZapLogger,
) order.UseCase {
	return &orderUseCase{
		repo:      repo,
		catalog:   catalogReader,
		cache:     cacheClient,
		events:    events,
		policy:    policy,
		tolerance: tolerance,
		logger:    log,
	}
}

// buildDraft materializes a cart payload against current catalog snapshots.
// Line price edits are applied before the order-level discount is attached,
// matching the policy that the two discount tiers are never edited together.
func (uc *orderUseCase) buildDraft(ctx context.Context, input *dto.CartInput) (*cart.Draft, error) {
	draft := cart.NewDraft(uc.policy)
	draft.Freight = input.Freight
	draft.OtherCosts = input.OtherCosts

	for i := range input.Lines {
		li := &input.Lines[i]
		p, err := uc.catalog.GetProduct(ctx, li.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, apperr.Validation("product %s not found", li.ProductID)
		}

		line, err := draft.AddProduct(p, li.Quantity, li.Observation)
		if err != nil {
			return nil, err
		}
		if li.UnitPrice != nil && !li.UnitPrice.Equal(line.UnitPrice) {
			if _, err := draft.EditLinePrice(line.ID, *li.UnitPrice); err != nil {
				return nil, err
			}
		}
	}

	draft.Discount = input.Discount
	return draft, nil
}

func (uc *orderUseCase) PriceCart(ctx context.Context, input *dto.CartInput) (*dto.CartTotals, error) {
	draft, err := uc.buildDraft(ctx, input)
	if err != nil {
		return nil, err
	}
	subtotal, total := draft.Totals()
	return &dto.CartTotals{Subtotal: subtotal, Total: total}, nil
}

func (uc *orderUseCase) ProposeDiscount(ctx context.Context, input *dto.ProposeDiscountInput) (*discount.Proposal, error) {
	// The proposal is derived against the cart without its current
	// order-level discount; the edited view replaces it wholesale.
	cartInput := input.Cart
	cartInput.Discount = decimal.Zero

	draft, err := uc.buildDraft(ctx, &cartInput)
	if err != nil {
		return nil, err
	}
	if len(draft.Lines) == 0 {
		return nil, apperr.ErrEmptyCart
	}

	var proposal discount.Proposal
	switch {
	case input.Amount != nil:
		proposal = draft.ProposeDiscountAmount(*input.Amount)
	case input.Percent != nil:
		proposal = draft.ProposeDiscountPercent(*input.Percent)
	case input.TargetTotal != nil:
		proposal = draft.ProposeDiscountTarget(*input.TargetTotal)
	default:
		return nil, apperr.Validation("one of amount, percent or target_total must be provided")
	}
	return &proposal, nil
}

func (uc *orderUseCase) ConfirmDiscount(ctx context.Context, input *dto.ConfirmDiscountInput) (*discount.Proposal, error) {
	cartInput := input.Cart
	cartInput.Discount = decimal.Zero

	draft, err := uc.buildDraft(ctx, &cartInput)
	if err != nil {
		return nil, err
	}
	if len(draft.Lines) == 0 {
		return nil, apperr.ErrEmptyCart
	}

	proposal := draft.ProposeDiscountAmount(input.Amount)
	if err := draft.ConfirmDiscount(proposal, input.Token); err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (uc *orderUseCase) ValidatePayment(ctx context.Context, input *dto.ValidatePaymentInput) error {
	return payment.Validate(input.Total, &input.Payments, input.AsBudget, uc.tolerance)
}

func (uc *orderUseCase) SubmitOrder(ctx context.Context, input *dto.SubmitOrderInput) (*model.Order, error) {
	if input.Cart.Discount.IsNegative() {
		return nil, apperr.Validation("discount cannot be negative")
	}

	// The discount only reaches the draft through the authorization gate;
	// a submitted amount is re-derived into a proposal and confirmed here.
	cartInput := input.Cart
	cartInput.Discount = decimal.Zero

	draft, err := uc.buildDraft(ctx, &cartInput)
	if err != nil {
		return nil, err
	}
	if input.Cart.Discount.IsPositive() {
		proposal := draft.ProposeDiscountAmount(input.Cart.Discount)
		if err := draft.ConfirmDiscount(proposal, input.ManagerToken); err != nil {
			return nil, err
		}
	}
	draft.Payments = input.Payments

	ord, err := draft.ToOrder(input.SellerID)
	if err != nil {
		return nil, err
	}

	if err := payment.Validate(ord.Total, &ord.Payments, input.AsBudget, uc.tolerance); err != nil {
		return nil, err
	}

	ord.Status = model.OrderStatusPending
	if input.AsBudget {
		ord.Status = model.OrderStatusBudget
	}
	ord.Installments = input.Installments
	ord.Observation = input.Observation
	ord.DeliveryAddr = input.DeliveryAddress
	ord.CustomerEmail = input.CustomerEmail
	ord.PurchaseOrder = input.PurchaseOrderRef

	if input.ID == "" {
		ord.ID = uuid.New().String()
		ord.CreatedAt = time.Now()
		if err := uc.repo.Create(ctx, ord); err != nil {
			return nil, err
		}
		return ord, nil
	}

	// Re-submission overwrites the same editable record.
	existing, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.ErrOrderNotFound
	}
	if !existing.Status.Editable() {
		return nil, apperr.Consistency("order %s is %s and can no longer be edited", input.ID, existing.Status)
	}

	ord.ID = existing.ID
	ord.CreatedAt = existing.CreatedAt
	if err := uc.repo.Update(ctx, ord); err != nil {
		return nil, err
	}
	return ord, nil
}

func (uc *orderUseCase) CompleteOrder(ctx context.Context, id, cashierID, cashierName string) (*model.Order, error) {
	unlock, err := uc.lockOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ord, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, apperr.ErrOrderNotFound
	}

	switch ord.Status {
	case model.OrderStatusCompleted:
		return nil, apperr.ErrAlreadyCompleted
	case model.OrderStatusPending:
	default:
		return nil, apperr.ErrNotPending
	}

	if err := payment.Validate(ord.Total, &ord.Payments, false, uc.tolerance); err != nil {
		return nil, err
	}

	// Fold the order-level discount into the line prices so the persisted
	// record needs no separate discount field downstream.
	discount.Prorate(ord)

	now := time.Now()
	ord.CashierID = &cashierID
	ord.CashierName = cashierName
	ord.CompletedAt = &now
	ord.Status = model.OrderStatusCompleted

	if err := uc.repo.Complete(ctx, ord); err != nil {
		return nil, err
	}

	uc.invalidateProducts(ord)
	uc.publishEvent(ord, order.EventOrderCompleted)
	return ord, nil
}

func (uc *orderUseCase) CancelOrder(ctx context.Context, id string) (*model.Order, error) {
	unlock, err := uc.lockOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ord, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, apperr.ErrOrderNotFound
	}
	if ord.Status == model.OrderStatusCancelled {
		return nil, apperr.ErrAlreadyCancelled
	}

	restock := ord.Status == model.OrderStatusCompleted
	previous := ord.Status
	if err := uc.repo.Cancel(ctx, ord, previous, restock); err != nil {
		return nil, err
	}
	ord.Status = model.OrderStatusCancelled

	if restock {
		uc.invalidateProducts(ord)
	}
	uc.publishEvent(ord, order.EventOrderCancelled)
	return ord, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	ord, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, apperr.ErrOrderNotFound
	}
	return ord, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

// lockOrder serializes completion and cancellation per order id across
// service instances.
func (uc *orderUseCase) lockOrder(ctx context.Context, id string) (func(), error) {
	if uc.cache == nil {
		return func() {}, nil
	}

	lockKey := "lock:order:" + id
	lockValue := uuid.New().String()

	acquired := false
	for i := 0; i < lockRetries; i++ {
		ok, err := uc.cache.AcquireLock(ctx, lockKey, lockValue, lockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire order lock", zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(lockRetryDelay)
	}
	if !acquired {
		return nil, apperr.ErrOrderLocked
	}

	return func() {
		if err := uc.cache.ReleaseLock(ctx, lockKey, lockValue); err != nil {
			uc.logger.Error("failed to release order lock", zap.Error(err))
		}
	}, nil
}

func (uc *orderUseCase) invalidateProducts(ord *model.Order) {
	for i := range ord.Lines {
		go uc.catalog.InvalidateProduct(context.Background(), ord.Lines[i].ProductID)
	}
}

func (uc *orderUseCase) publishEvent(ord *model.Order, eventType string) {
	if uc.events == nil {
		return
	}
	// Best effort: a broker outage must not fail the sale.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := order.PublishOrderEvent(ctx, uc.events, eventType, ord); err != nil {
			uc.logger.Error("failed to publish order event",
				zap.String("order_id", ord.ID),
				zap.String("event_type", eventType),
				zap.Error(err),
			)
		}
	}()
}
