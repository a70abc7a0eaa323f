package catalog

import (
	"context"

	"github.com/fekuna/omnipos-order-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-order-service/internal/model"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByCode(ctx context.Context, code string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
}
