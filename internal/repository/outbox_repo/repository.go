package outbox_repo

import (
	"context"
	"database/sql"
	"time"
)

type OutboxStatus string

const (
	StatusPending OutboxStatus = "PENDING"
	StatusSent    OutboxStatus = "SENT"
	StatusFailed  OutboxStatus = "FAILED"
)

type OutboxMessage struct {
	ID        string       `json:"id"`
	Topic     string       `json:"topic"`
	Payload   []byte       `json:"payload"`
	Status    OutboxStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	SentAt    *time.Time   `json:"sent_at"`
}

type OutboxRepository interface {
	CreateMessageTx(ctx context.Context, tx *sql.Tx, msg *OutboxMessage) error
	// GetUnsentMessagesTx claims pending messages with FOR UPDATE SKIP
	// LOCKED, so concurrent drainers never pick up the same batch.
	GetUnsentMessagesTx(ctx context.Context, tx *sql.Tx) ([]*OutboxMessage, error)
	MarkMessageSentTx(ctx context.Context, tx *sql.Tx, id string) error
}
