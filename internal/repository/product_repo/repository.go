package product_repo

import (
	"context"
	"database/sql"

	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
)

type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Product, error)
	// ReduceStockTx decrements a size's stock, failing with
	// domain.ErrInsufficientStock when not enough is left.
	ReduceStockTx(ctx context.Context, tx *sql.Tx, productID, size string, quantity int) error
}
