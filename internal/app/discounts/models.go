package discounts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
)

type QuoteRequest struct {
	Code           string          `json:"code"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
}

type QuoteResponse struct {
	Code             string          `json:"code"`
	DiscountType     string          `json:"discount_type"`
	DiscountValue    decimal.Decimal `json:"discount_value"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	DiscountedAmount decimal.Decimal `json:"discounted_amount"`
	Description      string          `json:"description,omitempty"`
}

type CreateCodeRequest struct {
	Code              string           `json:"code"`
	Description       string           `json:"description"`
	DiscountType      string           `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinOrderAmount    decimal.Decimal  `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	Active            bool             `json:"active"`
	StartsAt          *time.Time       `json:"starts_at"`
	ExpiresAt         *time.Time       `json:"expires_at"`
	MaxUses           *int             `json:"max_uses"`
}

type UpdateCodeRequest struct {
	Description       *string          `json:"description"`
	DiscountValue     *decimal.Decimal `json:"discount_value"`
	MinOrderAmount    *decimal.Decimal `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	Active            *bool            `json:"active"`
	StartsAt          *time.Time       `json:"starts_at"`
	ExpiresAt         *time.Time       `json:"expires_at"`
	MaxUses           *int             `json:"max_uses"`
}

type CodeResponse struct {
	ID                string           `json:"id"`
	Code              string           `json:"code"`
	Description       string           `json:"description"`
	DiscountType      string           `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinOrderAmount    decimal.Decimal  `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	Active            bool             `json:"active"`
	StartsAt          *time.Time       `json:"starts_at"`
	ExpiresAt         *time.Time       `json:"expires_at"`
	MaxUses           *int             `json:"max_uses"`
	Uses              int              `json:"uses"`
	CreatedAt         time.Time        `json:"created_at"`
}

func mapCodeToResponse(code *domain.DiscountCode) *CodeResponse {
	return &CodeResponse{
		ID:                code.ID,
		Code:              code.Code,
		Description:       code.Description,
		DiscountType:      string(code.Type),
		DiscountValue:     code.Value,
		MinOrderAmount:    code.MinOrderAmount,
		MaxDiscountAmount: code.MaxDiscountAmount,
		Active:            code.Active,
		StartsAt:          code.StartsAt,
		ExpiresAt:         code.ExpiresAt,
		MaxUses:           code.MaxUses,
		Uses:              code.Uses,
		CreatedAt:         code.CreatedAt,
	}
}
