package payment_repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	// CreateTx inserts the payment row inside the caller's transaction, so
	// the gateway reference is committed together with the order.
	CreateTx(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByDsOrder(ctx context.Context, dsOrder string) (*domain.Payment, error)
	// RecordResponseTx stores the verified gateway outcome on the payment row.
	RecordResponseTx(ctx context.Context, tx *sql.Tx, id string, status domain.PaymentStatus, responseCode, authorisationCode string, respondedAt time.Time) error
}
