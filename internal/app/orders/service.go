package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/app/discounts"
	"github.com/Canis-Ignem/total-keepers-be/internal/app/payments"
	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/order_repo"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/outbox_repo"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/product_repo"
	"github.com/Canis-Ignem/total-keepers-be/internal/util"
)

const eventOrderCreated = "order.created"

const (
	minItemQuantity = 1
	maxItemQuantity = 99
)

// priceTolerance is how far a client-quoted unit price may drift from the
// catalog before checkout rejects it.
var priceTolerance = decimal.RequireFromString("0.01")

// singleItemShipping is charged for single-item orders; two or more items
// ship free.
var singleItemShipping = decimal.RequireFromString("3.00")

type OrderService interface {
	// Checkout validates the cart against the catalog, redeems the discount
	// code under lock, creates the pending order with its first payment
	// attempt and returns the gateway redirect form.
	Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error)
	GetOrder(ctx context.Context, id string) (*OrderResponse, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*OrderResponse, error)
	ListOrdersByEmail(ctx context.Context, email string) ([]*OrderResponse, error)
	ListAllOrders(ctx context.Context) ([]*OrderResponse, error)
}

type orderService struct {
	db          *sql.DB
	orderRepo   order_repo.OrderRepository
	productRepo product_repo.ProductRepository
	outboxRepo  outbox_repo.OutboxRepository
	discountSvc discounts.DiscountService
	paymentSvc  payments.PaymentService
	eventsTopic string
	logger      *zap.Logger
}

func NewOrderService(
	db *sql.DB,
	orderRepo order_repo.OrderRepository,
	productRepo product_repo.ProductRepository,
	outboxRepo outbox_repo.OutboxRepository,
	discountSvc discounts.DiscountService,
	paymentSvc payments.PaymentService,
	eventsTopic string,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		discountSvc: discountSvc,
		paymentSvc:  paymentSvc,
		eventsTopic: eventsTopic,
		logger:      logger,
	}
}

// pricedCart is the server-side view of a validated cart.
type pricedCart struct {
	items         []domain.OrderItem
	subtotal      decimal.Decimal
	shipping      decimal.Decimal
	totalQuantity int
}

// validateAndPrice checks every line item against the catalog and reprices
// the cart with catalog prices. Client-supplied prices are only compared,
// never trusted.
func (s *orderService) validateAndPrice(ctx context.Context, items []CheckoutItem) (*pricedCart, error) {
	if len(items) == 0 {
		return nil, errors.New("order has no items")
	}

	cart := &pricedCart{subtotal: decimal.Zero}
	for _, item := range items {
		if item.Quantity < minItemQuantity || item.Quantity > maxItemQuantity {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, item.Quantity)
		}

		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, item.ProductID)
			}
			return nil, err
		}
		if !product.Active {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, item.ProductID)
		}

		if !strings.EqualFold(strings.TrimSpace(item.Name), strings.TrimSpace(product.Name)) {
			s.logger.Warn("Checkout item name mismatch",
				zap.String("product_id", item.ProductID),
				zap.String("claimed", item.Name),
				zap.String("catalog", product.Name))
			return nil, fmt.Errorf("%w: %s", domain.ErrNameMismatch, item.ProductID)
		}

		serverPrice := product.CurrentPrice()
		if item.UnitPrice.Sub(serverPrice).Abs().GreaterThan(priceTolerance) {
			s.logger.Warn("Checkout item price mismatch",
				zap.String("product_id", item.ProductID),
				zap.String("claimed", item.UnitPrice.String()),
				zap.String("catalog", serverPrice.String()))
			return nil, fmt.Errorf("%w: %s", domain.ErrPriceMismatch, item.ProductID)
		}

		if product.StockFor(item.Size) < item.Quantity {
			return nil, fmt.Errorf("%w: %s size %s", domain.ErrInsufficientStock, item.ProductID, item.Size)
		}

		lineTotal := serverPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		cart.items = append(cart.items, domain.OrderItem{
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: serverPrice,
			LineTotal: lineTotal,
		})
		cart.subtotal = cart.subtotal.Add(lineTotal)
		cart.totalQuantity += item.Quantity
	}

	cart.subtotal = cart.subtotal.Round(2)
	cart.shipping = shippingFor(cart.totalQuantity)
	return cart, nil
}

// shippingFor applies the flat shipping rule: single-item orders pay a flat
// fee, everything bigger ships free.
func shippingFor(totalQuantity int) decimal.Decimal {
	if totalQuantity == 1 {
		return singleItemShipping
	}
	return decimal.Zero
}

func (s *orderService) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	if strings.TrimSpace(req.CustomerEmail) == "" {
		return nil, errors.New("customer email is required")
	}

	cart, err := s.validateAndPrice(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	discountAmount := decimal.Zero
	discountCode := ""
	if req.DiscountCode != "" {
		quote, err := s.discountSvc.RedeemTx(ctx, tx, req.DiscountCode, cart.subtotal)
		if err != nil {
			return nil, err
		}
		discountAmount = quote.DiscountAmount
		discountCode = quote.Code
	}

	now := time.Now()
	order, err := domain.NewOrder(util.GenerateUUID(), util.GenerateOrderNumber(now), strings.TrimSpace(req.CustomerEmail))
	if err != nil {
		return nil, err
	}
	order.Subtotal = cart.subtotal
	order.ShippingAmount = cart.shipping
	order.DiscountAmount = discountAmount
	order.DiscountCode = discountCode
	order.TotalAmount = cart.subtotal.Sub(discountAmount).Add(cart.shipping).Round(2)
	order.CustomerName = strings.TrimSpace(req.CustomerName)
	order.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	order.ShippingAddress = req.ShippingAddress
	order.ShippingCity = req.ShippingCity
	order.ShippingPostcode = req.ShippingPostcode
	order.ShippingCountry = req.ShippingCountry
	order.Items = cart.items

	if err := s.orderRepo.CreateOrderTx(ctx, tx, order); err != nil {
		return nil, err
	}

	payment, err := s.paymentSvc.InitiatePaymentTx(ctx, tx, order)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(orderCreatedEvent{
		EventType:     eventOrderCreated,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerEmail: order.CustomerEmail,
		TotalAmount:   order.TotalAmount,
		OccurredAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order event: %w", err)
	}
	msg := &outbox_repo.OutboxMessage{
		ID:        util.GenerateUUID(),
		Topic:     s.eventsTopic,
		Payload:   payload,
		Status:    outbox_repo.StatusPending,
		CreatedAt: now,
	}
	if err := s.outboxRepo.CreateMessageTx(ctx, tx, msg); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	s.logger.Info("Order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("customer_email", order.CustomerEmail),
		zap.String("total", order.TotalAmount.String()),
		zap.Int("items", cart.totalQuantity))

	return &CheckoutResponse{
		Order:   mapOrderToResponse(order),
		Payment: payment,
	}, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*OrderResponse, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return mapOrderToResponse(order), nil
}

func (s *orderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*OrderResponse, error) {
	order, err := s.orderRepo.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return mapOrderToResponse(order), nil
}

func (s *orderService) ListOrdersByEmail(ctx context.Context, email string) ([]*OrderResponse, error) {
	orders, err := s.orderRepo.GetOrdersByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		s.logger.Error("Failed to list orders by email", zap.Error(err))
		return nil, errors.New("failed to list orders")
	}
	return mapOrders(orders), nil
}

func (s *orderService) ListAllOrders(ctx context.Context) ([]*OrderResponse, error) {
	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		return nil, errors.New("failed to list orders")
	}
	return mapOrders(orders), nil
}

func mapOrders(orders []*domain.Order) []*OrderResponse {
	responses := make([]*OrderResponse, len(orders))
	for i, order := range orders {
		responses[i] = mapOrderToResponse(order)
	}
	return responses
}
