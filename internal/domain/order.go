package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusFailed   OrderStatus = "failed"
	OrderStatusCanceled OrderStatus = "canceled"
)

// IsTerminal reports whether no further status transitions are accepted.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed || s == OrderStatusCanceled
}

type OrderItem struct {
	ProductID string
	Size      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

type Order struct {
	ID               string
	OrderNumber      string
	Status           OrderStatus
	Subtotal         decimal.Decimal
	ShippingAmount   decimal.Decimal
	DiscountAmount   decimal.Decimal
	DiscountCode     string
	TotalAmount      decimal.Decimal
	CustomerEmail    string
	CustomerName     string
	CustomerPhone    string
	ShippingAddress  string
	ShippingCity     string
	ShippingPostcode string
	ShippingCountry  string
	PaymentReference string
	Items            []OrderItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewOrder(id, orderNumber, customerEmail string) (*Order, error) {
	if id == "" || orderNumber == "" || customerEmail == "" {
		return nil, errors.New("invalid order data")
	}
	now := time.Now()
	return &Order{
		ID:            id,
		OrderNumber:   orderNumber,
		Status:        OrderStatusPending,
		CustomerEmail: customerEmail,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// MarkAsPaid transitions a pending order to paid.
func (o *Order) MarkAsPaid(paymentReference string) error {
	if o.Status != OrderStatusPending {
		return errors.New("order must be pending to become paid")
	}
	o.Status = OrderStatusPaid
	o.PaymentReference = paymentReference
	o.UpdatedAt = time.Now()
	return nil
}

// MarkAsCanceled transitions a pending order to canceled.
func (o *Order) MarkAsCanceled() error {
	if o.Status != OrderStatusPending {
		return errors.New("order must be pending to become canceled")
	}
	o.Status = OrderStatusCanceled
	o.UpdatedAt = time.Now()
	return nil
}

// MarkAsFailed transitions a pending order to failed.
func (o *Order) MarkAsFailed() error {
	if o.Status != OrderStatusPending {
		return errors.New("order must be pending to become failed")
	}
	o.Status = OrderStatusFailed
	o.UpdatedAt = time.Now()
	return nil
}
