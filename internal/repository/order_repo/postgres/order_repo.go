package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/order_repo"
)

type pgOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOrderRepository(db *sql.DB, l *zap.Logger) order_repo.OrderRepository {
	return &pgOrderRepository{db: db, logger: l}
}

const orderColumns = `id, order_number, status, subtotal, shipping_amount, discount_amount, discount_code,
	total_amount, customer_email, customer_name, customer_phone, shipping_address, shipping_city,
	shipping_postcode, shipping_country, payment_reference, created_at, updated_at`

func (r *pgOrderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := tx.ExecContext(ctx, query,
		order.ID, order.OrderNumber, order.Status, order.Subtotal, order.ShippingAmount,
		order.DiscountAmount, nullString(order.DiscountCode), order.TotalAmount,
		order.CustomerEmail, order.CustomerName, order.CustomerPhone, order.ShippingAddress,
		order.ShippingCity, order.ShippingPostcode, order.ShippingCountry,
		nullString(order.PaymentReference), order.CreatedAt, order.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create order", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("tx failed to create order: %w", err)
	}

	itemQuery := `INSERT INTO order_items (order_id, product_id, size, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx, itemQuery,
			order.ID, item.ProductID, item.Size, item.Quantity, item.UnitPrice, item.LineTotal); err != nil {
			r.logger.Error("Failed to create order item",
				zap.String("order_id", order.ID),
				zap.String("product_id", item.ProductID),
				zap.Error(err))
			return fmt.Errorf("tx failed to create order item: %w", err)
		}
	}

	r.logger.Debug("Order inserted in transaction", zap.String("order_id", order.ID))
	return nil
}

func (r *pgOrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *pgOrderRepository) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
}

func (r *pgOrderRepository) getOrder(ctx context.Context, query, arg string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to get order", zap.String("arg", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get order %s: %w", arg, err)
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *pgOrderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	query := `SELECT product_id, size, quantity, unit_price, line_total FROM order_items WHERE order_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, order.ID)
	if err != nil {
		r.logger.Error("Failed to query order items", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Size, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return fmt.Errorf("failed to scan order item row: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func (r *pgOrderRepository) GetOrdersByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_email = $1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, email)
}

func (r *pgOrderRepository) GetAllOrders(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.queryOrders(ctx, query)
}

func (r *pgOrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query orders", zap.Error(err))
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error("Failed to scan order row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return orders, nil
}

func (r *pgOrderRepository) TransitionStatusTx(ctx context.Context, tx *sql.Tx, orderID string, to domain.OrderStatus, paymentReference string) (bool, error) {
	query := `UPDATE orders SET status = $2, payment_reference = COALESCE(NULLIF($3, ''), payment_reference), updated_at = $4
		WHERE id = $1 AND status = $5`
	res, err := tx.ExecContext(ctx, query, orderID, to, paymentReference, time.Now(), domain.OrderStatusPending)
	if err != nil {
		r.logger.Error("Failed to transition order status",
			zap.String("order_id", orderID),
			zap.String("to", string(to)),
			zap.Error(err))
		return false, fmt.Errorf("failed to transition order %s: %w", orderID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check transition result: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Debug("Order was not pending, transition skipped", zap.String("order_id", orderID))
		return false, nil
	}
	r.logger.Debug("Order status transitioned",
		zap.String("order_id", orderID),
		zap.String("new_status", string(to)))
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var discountCode, paymentReference sql.NullString
	err := row.Scan(&order.ID, &order.OrderNumber, &order.Status, &order.Subtotal,
		&order.ShippingAmount, &order.DiscountAmount, &discountCode, &order.TotalAmount,
		&order.CustomerEmail, &order.CustomerName, &order.CustomerPhone, &order.ShippingAddress,
		&order.ShippingCity, &order.ShippingPostcode, &order.ShippingCountry,
		&paymentReference, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	order.DiscountCode = discountCode.String
	order.PaymentReference = paymentReference.String
	return order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
