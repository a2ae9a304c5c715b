package payments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Canis-Ignem/total-keepers-be/internal/redsys"
)

// InitiateResponse carries the signed redirect form for one payment attempt.
type InitiateResponse struct {
	PaymentID string           `json:"payment_id"`
	OrderID   string           `json:"order_id"`
	DsOrder   string           `json:"ds_order"`
	Form      *redsys.FormData `json:"form"`
}

type StatusResponse struct {
	ID                  string          `json:"id"`
	OrderID             string          `json:"order_id"`
	DsOrder             string          `json:"ds_order"`
	Status              string          `json:"status"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
	ResponseCode        string          `json:"response_code,omitempty"`
	ResponseDescription string          `json:"response_description,omitempty"`
	AuthorisationCode   string          `json:"authorisation_code,omitempty"`
	SignatureVerified   bool            `json:"signature_verified"`
	CreatedAt           time.Time       `json:"created_at"`
	RespondedAt         *time.Time      `json:"responded_at,omitempty"`
}

// orderStatusEvent is the outbox payload emitted when a callback settles an
// order.
type orderStatusEvent struct {
	EventType   string    `json:"event_type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	PaymentID   string    `json:"payment_id"`
	DsOrder     string    `json:"ds_order"`
	OccurredAt  time.Time `json:"occurred_at"`
}
