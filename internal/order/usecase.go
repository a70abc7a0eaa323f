package order

import (
	"context"

	"github.com/fekuna/omnipos-order-service/internal/discount"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/order/dto"
)

type UseCase interface {
	PriceCart(ctx context.Context, input *dto.CartInput) (*dto.CartTotals, error)
	ProposeDiscount(ctx context.Context, input *dto.ProposeDiscountInput) (*discount.Proposal, error)
	ConfirmDiscount(ctx context.Context, input *dto.ConfirmDiscountInput) (*discount.Proposal, error)
	ValidatePayment(ctx context.Context, input *dto.ValidatePaymentInput) error
	SubmitOrder(ctx context.Context, input *dto.SubmitOrderInput) (*model.Order, error)
	CompleteOrder(ctx context.Context, id, cashierID, cashierName string) (*model.Order, error)
	CancelOrder(ctx context.Context, id string) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
}
