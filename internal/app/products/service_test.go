package products

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
	"github.com/Canis-Ignem/total-keepers-be/internal/infrastructure/cache"
)

type mockProductRepo struct {
	products map[string]*domain.Product
	getCalls int
	lists    int
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	m.getCalls++
	if p, ok := m.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProductRepo) List(_ context.Context, activeOnly bool) ([]*domain.Product, error) {
	m.lists++
	var out []*domain.Product
	for _, p := range m.products {
		if activeOnly && !p.Active {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockProductRepo) ReduceStockTx(_ context.Context, _ *sql.Tx, _, _ string, _ int) error {
	return nil
}

type memoryCache struct {
	entries map[string][]byte
	failing bool
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest any) error {
	if c.failing {
		return errors.New("connection refused")
	}
	raw, ok := c.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	if c.failing {
		return errors.New("connection refused")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.deletes = append(c.deletes, keys...)
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func testProduct() *domain.Product {
	return &domain.Product{
		ID:     "glove-1",
		Name:   "Pro Grip Roll Finger",
		Brand:  "Total Keepers",
		Price:  decimal.RequireFromString("49.99"),
		Active: true,
		Sizes:  []domain.ProductSize{{Size: "8", Stock: 5}},
	}
}

func TestGetProduct_CacheAside(t *testing.T) {
	repo := &mockProductRepo{products: map[string]*domain.Product{"glove-1": testProduct()}}
	mem := newMemoryCache()
	svc := NewProductService(repo, mem, time.Minute, zap.NewNop())
	ctx := context.Background()

	first, err := svc.GetProduct(ctx, "glove-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.getCalls)

	// Second read is served from the cache.
	second, err := svc.GetProduct(ctx, "glove-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.getCalls)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.EffectivePrice.Equal(first.EffectivePrice))
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := &mockProductRepo{products: map[string]*domain.Product{}}
	svc := NewProductService(repo, newMemoryCache(), time.Minute, zap.NewNop())

	_, err := svc.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetProduct_CacheOutageDegradesToDB(t *testing.T) {
	repo := &mockProductRepo{products: map[string]*domain.Product{"glove-1": testProduct()}}
	mem := newMemoryCache()
	mem.failing = true
	svc := NewProductService(repo, mem, time.Minute, zap.NewNop())

	resp, err := svc.GetProduct(context.Background(), "glove-1")
	require.NoError(t, err)
	assert.Equal(t, "glove-1", resp.ID)
	assert.Equal(t, 1, repo.getCalls)
}

func TestListProducts_CachesAndFiltersInactive(t *testing.T) {
	inactive := testProduct()
	inactive.ID = "retired-1"
	inactive.Active = false
	repo := &mockProductRepo{products: map[string]*domain.Product{
		"glove-1":   testProduct(),
		"retired-1": inactive,
	}}
	mem := newMemoryCache()
	svc := NewProductService(repo, mem, time.Minute, zap.NewNop())
	ctx := context.Background()

	listed, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "glove-1", listed[0].ID)
	assert.Equal(t, 1, repo.lists)

	_, err = svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists)
}

func TestInvalidateCatalog(t *testing.T) {
	repo := &mockProductRepo{products: map[string]*domain.Product{"glove-1": testProduct()}}
	mem := newMemoryCache()
	svc := NewProductService(repo, mem, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	_, err = svc.GetProduct(ctx, "glove-1")
	require.NoError(t, err)

	require.NoError(t, svc.InvalidateCatalog(ctx, "glove-1"))
	assert.Empty(t, mem.entries)

	// Next read repopulates from the DB.
	_, err = svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.lists)
}

func TestGetProduct_SalePriceWins(t *testing.T) {
	onSale := testProduct()
	salePrice := decimal.RequireFromString("39.99")
	onSale.SalePrice = &salePrice
	repo := &mockProductRepo{products: map[string]*domain.Product{"glove-1": onSale}}
	svc := NewProductService(repo, newMemoryCache(), time.Minute, zap.NewNop())

	resp, err := svc.GetProduct(context.Background(), "glove-1")
	require.NoError(t, err)
	assert.True(t, resp.EffectivePrice.Equal(salePrice))
}
