package catalog

import (
	"context"

	"github.com/fekuna/omnipos-order-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-order-service/internal/model"
)

// Reader is the catalog surface the order core consumes. Stock is never
// written through here; the order repository mutates it inside its own
// transactions.
type Reader interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductByCode(ctx context.Context, code string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	InvalidateProduct(ctx context.Context, id string)
}
