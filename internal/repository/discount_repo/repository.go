package discount_repo

import (
	"context"
	"database/sql"

	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
)

type DiscountRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.DiscountCode, error)
	// GetByCodeForUpdateTx locks the code row for the duration of the
	// transaction so concurrent redemptions serialize on it.
	GetByCodeForUpdateTx(ctx context.Context, tx *sql.Tx, code string) (*domain.DiscountCode, error)
	IncrementUsageTx(ctx context.Context, tx *sql.Tx, id string) error
	Create(ctx context.Context, code *domain.DiscountCode) error
	Update(ctx context.Context, code *domain.DiscountCode) error
	Deactivate(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.DiscountCode, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.DiscountCode, error)
}
