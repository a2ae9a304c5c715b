package domain

import "errors"

// Discount ledger errors.
var (
	ErrCodeNotFound           = errors.New("discount code not found")
	ErrCodeInactive           = errors.New("discount code is not active")
	ErrCodeNotYetActive       = errors.New("discount code is not yet active")
	ErrCodeExpired            = errors.New("discount code has expired")
	ErrUsageLimitReached      = errors.New("discount code has reached its usage limit")
	ErrMinOrderNotMet         = errors.New("order amount below the code minimum")
	ErrInvalidResultingAmount = errors.New("discount produced an invalid amount")
)

// Payment reconciliation errors.
var (
	ErrInvalidSignature  = errors.New("invalid callback signature")
	ErrMalformedCallback = errors.New("malformed callback payload")
	ErrOrderNotFound     = errors.New("order not found")
	ErrPaymentNotFound   = errors.New("payment not found")
)

// Catalog and checkout errors.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrPriceMismatch     = errors.New("item price does not match catalog price")
	ErrNameMismatch      = errors.New("item name does not match catalog name")
	ErrInvalidQuantity   = errors.New("item quantity out of range")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCodeExists        = errors.New("discount code already exists")
)
