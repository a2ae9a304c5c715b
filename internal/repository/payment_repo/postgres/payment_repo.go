package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/payment_repo"
)

type pgPaymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPaymentRepository(db *sql.DB, l *zap.Logger) payment_repo.PaymentRepository {
	return &pgPaymentRepository{db: db, logger: l}
}

const paymentColumns = `id, order_id, ds_order, status, amount, currency, response_code,
	authorisation_code, signature_verified, created_at, responded_at`

const insertPaymentQuery = `INSERT INTO payments (id, order_id, ds_order, status, amount, currency, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *pgPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return r.create(ctx, r.db, payment)
}

func (r *pgPaymentRepository) CreateTx(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error {
	return r.create(ctx, tx, payment)
}

func (r *pgPaymentRepository) create(ctx context.Context, ex execer, payment *domain.Payment) error {
	_, err := ex.ExecContext(ctx, insertPaymentQuery,
		payment.ID, payment.OrderID, payment.DsOrder, payment.Status,
		payment.Amount, payment.Currency, payment.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create payment", zap.String("payment_id", payment.ID), zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}
	r.logger.Debug("Payment created",
		zap.String("payment_id", payment.ID),
		zap.String("ds_order", payment.DsOrder))
	return nil
}

func (r *pgPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *pgPaymentRepository) GetByDsOrder(ctx context.Context, dsOrder string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ds_order = $1`
	return r.getOne(ctx, query, dsOrder)
}

func (r *pgPaymentRepository) getOne(ctx context.Context, query, arg string) (*domain.Payment, error) {
	payment := &domain.Payment{}
	var responseCode, authCode sql.NullString
	var respondedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&payment.ID, &payment.OrderID, &payment.DsOrder, &payment.Status,
		&payment.Amount, &payment.Currency, &responseCode, &authCode,
		&payment.SignatureVerified, &payment.CreatedAt, &respondedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to get payment", zap.String("arg", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get payment %s: %w", arg, err)
	}
	payment.ResponseCode = responseCode.String
	payment.AuthorisationCode = authCode.String
	if respondedAt.Valid {
		payment.RespondedAt = &respondedAt.Time
	}
	return payment, nil
}

func (r *pgPaymentRepository) RecordResponseTx(ctx context.Context, tx *sql.Tx, id string, status domain.PaymentStatus, responseCode, authorisationCode string, respondedAt time.Time) error {
	query := `UPDATE payments SET status = $2, response_code = $3, authorisation_code = $4,
		signature_verified = TRUE, responded_at = $5 WHERE id = $1`
	res, err := tx.ExecContext(ctx, query, id, status, responseCode, authorisationCode, respondedAt)
	if err != nil {
		r.logger.Error("Failed to record payment response", zap.String("payment_id", id), zap.Error(err))
		return fmt.Errorf("failed to record response for payment %s: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check response update result: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
