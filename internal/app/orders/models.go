package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Canis-Ignem/total-keepers-be/internal/app/payments"
	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
)

type CheckoutItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CheckoutRequest struct {
	CustomerEmail    string         `json:"customer_email"`
	CustomerName     string         `json:"customer_name"`
	CustomerPhone    string         `json:"customer_phone"`
	ShippingAddress  string         `json:"shipping_address"`
	ShippingCity     string         `json:"shipping_city"`
	ShippingPostcode string         `json:"shipping_postcode"`
	ShippingCountry  string         `json:"shipping_country"`
	Items            []CheckoutItem `json:"items"`
	DiscountCode     string         `json:"discount_code,omitempty"`
}

type OrderItemResponse struct {
	ProductID string          `json:"product_id"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type OrderResponse struct {
	ID             string              `json:"id"`
	OrderNumber    string              `json:"order_number"`
	Status         string              `json:"status"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	ShippingAmount decimal.Decimal     `json:"shipping_amount"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	DiscountCode   string              `json:"discount_code,omitempty"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	CustomerEmail  string              `json:"customer_email"`
	CustomerName   string              `json:"customer_name"`
	Items          []OrderItemResponse `json:"items"`
	CreatedAt      time.Time           `json:"created_at"`
}

// CheckoutResponse returns the created order together with the gateway
// redirect form for its first payment attempt.
type CheckoutResponse struct {
	Order   *OrderResponse             `json:"order"`
	Payment *payments.InitiateResponse `json:"payment"`
}

func mapOrderToResponse(order *domain.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		}
	}
	return &OrderResponse{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         string(order.Status),
		Subtotal:       order.Subtotal,
		ShippingAmount: order.ShippingAmount,
		DiscountAmount: order.DiscountAmount,
		DiscountCode:   order.DiscountCode,
		TotalAmount:    order.TotalAmount,
		CustomerEmail:  order.CustomerEmail,
		CustomerName:   order.CustomerName,
		Items:          items,
		CreatedAt:      order.CreatedAt,
	}
}

// orderCreatedEvent is the outbox payload emitted when checkout commits.
type orderCreatedEvent struct {
	EventType     string          `json:"event_type"`
	OrderID       string          `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	CustomerEmail string          `json:"customer_email"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
