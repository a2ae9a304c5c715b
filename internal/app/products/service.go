package products

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
	"github.com/Canis-Ignem/total-keepers-be/internal/infrastructure/cache"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/product_repo"
)

const (
	cacheKeyCatalog       = "products:catalog"
	cacheKeyProductPrefix = "products:id:"
)

type ProductService interface {
	GetProduct(ctx context.Context, id string) (*ProductResponse, error)
	// ListProducts returns the active catalog, served from cache when warm.
	ListProducts(ctx context.Context) ([]*ProductResponse, error)
	// InvalidateCatalog drops cached catalog entries after a stock mutation.
	InvalidateCatalog(ctx context.Context, productIDs ...string) error
}

type productService struct {
	repo     product_repo.ProductRepository
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewProductService(repo product_repo.ProductRepository, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) ProductService {
	return &productService{repo: repo, cache: c, cacheTTL: cacheTTL, logger: logger}
}

func (s *productService) GetProduct(ctx context.Context, id string) (*ProductResponse, error) {
	key := cacheKeyProductPrefix + id
	if s.cache != nil {
		var cached ProductResponse
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			// Redis being down never fails a read.
			s.logger.Warn("Product cache read failed", zap.String("product_id", id), zap.Error(err))
		}
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}

	resp := mapProductToResponse(product)
	s.store(ctx, key, resp)
	return resp, nil
}

func (s *productService) ListProducts(ctx context.Context) ([]*ProductResponse, error) {
	if s.cache != nil {
		var cached []*ProductResponse
		err := s.cache.GetJSON(ctx, cacheKeyCatalog, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Catalog cache read failed", zap.Error(err))
		}
	}

	products, err := s.repo.List(ctx, true)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, errors.New("failed to list products")
	}

	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = mapProductToResponse(p)
	}
	s.store(ctx, cacheKeyCatalog, responses)
	return responses, nil
}

func (s *productService) InvalidateCatalog(ctx context.Context, productIDs ...string) error {
	if s.cache == nil {
		return nil
	}
	keys := make([]string, 0, len(productIDs)+1)
	keys = append(keys, cacheKeyCatalog)
	for _, id := range productIDs {
		keys = append(keys, cacheKeyProductPrefix+id)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("Catalog cache invalidation failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *productService) store(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("Product cache write failed", zap.String("key", key), zap.Error(err))
	}
}
