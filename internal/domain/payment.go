package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCanceled  PaymentStatus = "canceled"
)

// Payment records one gateway redirect and, once the notification arrives,
// the verified outcome.
type Payment struct {
	ID                string
	OrderID           string
	DsOrder           string
	Status            PaymentStatus
	Amount            decimal.Decimal
	Currency          string
	ResponseCode      string
	AuthorisationCode string
	SignatureVerified bool
	CreatedAt         time.Time
	RespondedAt       *time.Time
}
