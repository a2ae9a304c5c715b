package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/product_repo"
)

type pgProductRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewProductRepository(db *sql.DB, l *zap.Logger) product_repo.ProductRepository {
	return &pgProductRepository{db: db, logger: l}
}

func (r *pgProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT id, name, brand, description, price, sale_price, active, created_at, updated_at
		FROM products WHERE id = $1`
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to get product", zap.String("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}

	if err := r.loadSizes(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (r *pgProductRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Product, error) {
	query := `SELECT id, name, brand, description, price, sale_price, active, created_at, updated_at FROM products`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list products", zap.Error(err))
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for _, product := range products {
		if err := r.loadSizes(ctx, product); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (r *pgProductRepository) loadSizes(ctx context.Context, product *domain.Product) error {
	query := `SELECT size, stock FROM product_sizes WHERE product_id = $1 ORDER BY size`
	rows, err := r.db.QueryContext(ctx, query, product.ID)
	if err != nil {
		r.logger.Error("Failed to query product sizes", zap.String("product_id", product.ID), zap.Error(err))
		return fmt.Errorf("failed to get product sizes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.ProductSize
		if err := rows.Scan(&s.Size, &s.Stock); err != nil {
			return fmt.Errorf("failed to scan product size row: %w", err)
		}
		product.Sizes = append(product.Sizes, s)
	}
	return rows.Err()
}

func (r *pgProductRepository) ReduceStockTx(ctx context.Context, tx *sql.Tx, productID, size string, quantity int) error {
	query := `UPDATE product_sizes SET stock = stock - $3
		WHERE product_id = $1 AND size = $2 AND stock >= $3`
	res, err := tx.ExecContext(ctx, query, productID, size, quantity)
	if err != nil {
		r.logger.Error("Failed to reduce stock",
			zap.String("product_id", productID),
			zap.String("size", size),
			zap.Int("quantity", quantity),
			zap.Error(err))
		return fmt.Errorf("failed to reduce stock for product %s: %w", productID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check stock update result: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrInsufficientStock
	}
	r.logger.Debug("Stock reduced",
		zap.String("product_id", productID),
		zap.String("size", size),
		zap.Int("quantity", quantity))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var salePrice decimal.NullDecimal
	err := row.Scan(&product.ID, &product.Name, &product.Brand, &product.Description,
		&product.Price, &salePrice, &product.Active, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if salePrice.Valid {
		product.SalePrice = &salePrice.Decimal
	}
	return product, nil
}
