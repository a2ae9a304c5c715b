package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/discount_repo"
)

type pgDiscountRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewDiscountRepository(db *sql.DB, l *zap.Logger) discount_repo.DiscountRepository {
	return &pgDiscountRepository{db: db, logger: l}
}

const discountColumns = `id, code, description, discount_type, discount_value, min_order_amount,
	max_discount_amount, active, starts_at, expires_at, max_uses, uses, created_at, updated_at`

func (r *pgDiscountRepository) GetByCode(ctx context.Context, code string) (*domain.DiscountCode, error) {
	query := `SELECT ` + discountColumns + ` FROM discount_codes WHERE code = $1`
	return r.getOne(ctx, r.db.QueryRowContext(ctx, query, code), code)
}

func (r *pgDiscountRepository) GetByCodeForUpdateTx(ctx context.Context, tx *sql.Tx, code string) (*domain.DiscountCode, error) {
	query := `SELECT ` + discountColumns + ` FROM discount_codes WHERE code = $1 FOR UPDATE`
	return r.getOne(ctx, tx.QueryRowContext(ctx, query, code), code)
}

func (r *pgDiscountRepository) GetByID(ctx context.Context, id string) (*domain.DiscountCode, error) {
	query := `SELECT ` + discountColumns + ` FROM discount_codes WHERE id = $1`
	return r.getOne(ctx, r.db.QueryRowContext(ctx, query, id), id)
}

func (r *pgDiscountRepository) getOne(ctx context.Context, row *sql.Row, arg string) (*domain.DiscountCode, error) {
	code, err := scanDiscountCode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to get discount code", zap.String("arg", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get discount code %s: %w", arg, err)
	}
	return code, nil
}

func (r *pgDiscountRepository) IncrementUsageTx(ctx context.Context, tx *sql.Tx, id string) error {
	query := `UPDATE discount_codes SET uses = uses + 1, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, time.Now()); err != nil {
		r.logger.Error("Failed to increment discount code usage", zap.String("code_id", id), zap.Error(err))
		return fmt.Errorf("failed to increment usage for code %s: %w", id, err)
	}
	return nil
}

func (r *pgDiscountRepository) Create(ctx context.Context, code *domain.DiscountCode) error {
	query := `INSERT INTO discount_codes (` + discountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.ExecContext(ctx, query,
		code.ID, code.Code, code.Description, code.Type, code.Value, code.MinOrderAmount,
		nullDecimal(code.MaxDiscountAmount), code.Active, nullTime(code.StartsAt),
		nullTime(code.ExpiresAt), nullInt(code.MaxUses), code.Uses, code.CreatedAt, code.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return domain.ErrCodeExists
		}
		r.logger.Error("Failed to create discount code", zap.String("code", code.Code), zap.Error(err))
		return fmt.Errorf("failed to create discount code: %w", err)
	}
	r.logger.Debug("Discount code created", zap.String("code", code.Code))
	return nil
}

func (r *pgDiscountRepository) Update(ctx context.Context, code *domain.DiscountCode) error {
	query := `UPDATE discount_codes SET description = $2, discount_type = $3, discount_value = $4,
		min_order_amount = $5, max_discount_amount = $6, active = $7, starts_at = $8,
		expires_at = $9, max_uses = $10, updated_at = $11 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		code.ID, code.Description, code.Type, code.Value, code.MinOrderAmount,
		nullDecimal(code.MaxDiscountAmount), code.Active, nullTime(code.StartsAt),
		nullTime(code.ExpiresAt), nullInt(code.MaxUses), time.Now())
	if err != nil {
		r.logger.Error("Failed to update discount code", zap.String("code_id", code.ID), zap.Error(err))
		return fmt.Errorf("failed to update discount code %s: %w", code.ID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *pgDiscountRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE discount_codes SET active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		r.logger.Error("Failed to deactivate discount code", zap.String("code_id", id), zap.Error(err))
		return fmt.Errorf("failed to deactivate discount code %s: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deactivate result: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *pgDiscountRepository) List(ctx context.Context, activeOnly bool) ([]*domain.DiscountCode, error) {
	query := `SELECT ` + discountColumns + ` FROM discount_codes`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list discount codes", zap.Error(err))
		return nil, fmt.Errorf("failed to list discount codes: %w", err)
	}
	defer rows.Close()

	var codes []*domain.DiscountCode
	for rows.Next() {
		code, err := scanDiscountCode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan discount code row: %w", err)
		}
		codes = append(codes, code)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return codes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDiscountCode(row rowScanner) (*domain.DiscountCode, error) {
	code := &domain.DiscountCode{}
	var maxDiscount decimal.NullDecimal
	var startsAt, expiresAt sql.NullTime
	var maxUses sql.NullInt64
	err := row.Scan(&code.ID, &code.Code, &code.Description, &code.Type, &code.Value,
		&code.MinOrderAmount, &maxDiscount, &code.Active, &startsAt, &expiresAt,
		&maxUses, &code.Uses, &code.CreatedAt, &code.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if maxDiscount.Valid {
		code.MaxDiscountAmount = &maxDiscount.Decimal
	}
	if startsAt.Valid {
		code.StartsAt = &startsAt.Time
	}
	if expiresAt.Valid {
		code.ExpiresAt = &expiresAt.Time
	}
	if maxUses.Valid {
		v := int(maxUses.Int64)
		code.MaxUses = &v
	}
	return code, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
