package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/catalog"
	"github.com/fekuna/omnipos-order-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/pkg/cache"
	"github.com/fekuna/omnipos-order-service/pkg/logger"
	"go.uber.org/zap"
)

const productCacheTTL = 5 * time.Minute

type catalogUseCase struct {
	repo   catalog.Repository
	cache  *cache.RedisClient
	logger logger.ZapLogger
}

func NewCatalogUseCase(repo catalog.Repository, cache *cache.RedisClient, log logger.ZapLogger) catalog.Reader {
	return &catalogUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

func productCacheKey(id string) string {
	return fmt.Sprintf("catalog:product:%s", id)
}

func (uc *catalogUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	key := productCacheKey(id)

	if uc.cache != nil {
		if val, err := uc.cache.Client.Get(ctx, key).Result(); err == nil {
			var p model.Product
			if err := json.Unmarshal([]byte(val), &p); err == nil {
				return &p, nil
			}
		}
	}

	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	if uc.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			uc.cache.Client.Set(ctx, key, data, productCacheTTL)
		}
	}
	return p, nil
}

func (uc *catalogUseCase) GetProductByCode(ctx context.Context, code string) (*model.Product, error) {
	// Code lookups are rare (manual entry); no cache layer here.
	return uc.repo.FindByCode(ctx, code)
}

func (uc *catalogUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey, err := uc.generateListCacheKey(filters)
	if uc.cache != nil && err == nil {
		if val, err := uc.cache.Client.Get(ctx, cacheKey).Result(); err == nil {
			var result struct {
				Products []model.Product
				Count    int
			}
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				return result.Products, result.Count, nil
			}
		}
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if uc.cache != nil && cacheKey != "" {
		cacheData := struct {
			Products []model.Product
			Count    int
		}{Products: products, Count: count}
		if data, err := json.Marshal(cacheData); err == nil {
			uc.cache.Client.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}

	return products, count, nil
}

func (uc *catalogUseCase) generateListCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("catalog:list:%x", md5.Sum(data)), nil
}

// InvalidateProduct drops the cached snapshot plus all list caches. Called
// after every stock mutation and on catalog-change events.
func (uc *catalogUseCase) InvalidateProduct(ctx context.Context, id string) {
	if uc.cache == nil {
		return
	}
	uc.cache.Client.Del(ctx, productCacheKey(id))

	keys, err := uc.cache.Client.Keys(ctx, "catalog:list:*").Result()
	if err == nil && len(keys) > 0 {
		uc.cache.Client.Del(ctx, keys...)
	} else if err != nil {
		uc.logger.Error("failed to scan catalog list cache keys", zap.Error(err))
	}
}
