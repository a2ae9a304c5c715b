package order_repo

import (
	"context"
	"database/sql"

	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
)

type OrderRepository interface {
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *domain.Order) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	GetOrdersByEmail(ctx context.Context, email string) ([]*domain.Order, error)
	GetAllOrders(ctx context.Context) ([]*domain.Order, error)
	// TransitionStatusTx applies a compare-and-swap transition from pending to
	// the given terminal status. It returns false when the row was no longer
	// pending, without error.
	TransitionStatusTx(ctx context.Context, tx *sql.Tx, orderID string, to domain.OrderStatus, paymentReference string) (bool, error)
}
