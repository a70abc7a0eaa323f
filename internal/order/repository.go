package order

import (
	"context"

	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/order/dto"
)

type Repository interface {
	Create(ctx context.Context, order *model.Order) error
	// Update overwrites an editable (budget/pending) order in place together
	// with its lines.
	Update(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)

	// Complete flips a pending order to completed, persists the prorated
	// lines and decrements stock per line, all inside one transaction. The
	// status flip is conditional on the row still being pending, so a
	// concurrent completion loses cleanly.
	Complete(ctx context.Context, order *model.Order) error

	// Cancel flips the order to cancelled, conditional on the status the
	// caller read (expectedStatus); when restock is set every line quantity
	// is returned to stock in the same transaction.
	Cancel(ctx context.Context, order *model.Order, expectedStatus model.OrderStatus, restock bool) error
}
