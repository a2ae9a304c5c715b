package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

var oneHundred = decimal.NewFromInt(100)

type DiscountCode struct {
	ID                string
	Code              string
	Description       string
	Type              DiscountType
	Value             decimal.Decimal
	MinOrderAmount    decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	Active            bool
	StartsAt          *time.Time
	ExpiresAt         *time.Time
	MaxUses           *int
	Uses              int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NormalizeCode canonicalizes a human-entered code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate runs the ordered eligibility checks against an order amount.
// It never mutates the code; callers that redeem must re-check the usage
// limit under a row lock before incrementing.
func (d *DiscountCode) Validate(orderAmount decimal.Decimal, now time.Time) error {
	if !d.Active {
		return ErrCodeInactive
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return ErrCodeNotYetActive
	}
	if d.ExpiresAt != nil && now.After(*d.ExpiresAt) {
		return ErrCodeExpired
	}
	if d.MaxUses != nil && d.Uses >= *d.MaxUses {
		return ErrUsageLimitReached
	}
	if orderAmount.LessThan(d.MinOrderAmount) {
		return ErrMinOrderNotMet
	}
	return nil
}

// DiscountFor computes the discount to subtract from orderAmount, capped at
// MaxDiscountAmount and at the order amount itself, rounded half-up to two
// decimal places.
func (d *DiscountCode) DiscountFor(orderAmount decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	if d.Type == DiscountTypePercentage {
		amount = orderAmount.Mul(d.Value).Div(oneHundred)
	} else {
		amount = d.Value
	}
	if d.MaxDiscountAmount != nil && amount.GreaterThan(*d.MaxDiscountAmount) {
		amount = *d.MaxDiscountAmount
	}
	if amount.GreaterThan(orderAmount) {
		amount = orderAmount
	}
	return amount.Round(2)
}
