package orders

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/app/payments"
	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
	"github.com/Canis-Ignem/total-keepers-be/internal/redsys"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/outbox_repo"
)

type mockProductRepo struct {
	products map[string]*domain.Product
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	if p, ok := m.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProductRepo) List(_ context.Context, _ bool) ([]*domain.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) ReduceStockTx(_ context.Context, _ *sql.Tx, _, _ string, _ int) error {
	return nil
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func gloveProduct() *domain.Product {
	return &domain.Product{
		ID:     "glove-1",
		Name:   "Pro Grip Roll Finger",
		Brand:  "Total Keepers",
		Price:  amount("49.99"),
		Active: true,
		Sizes: []domain.ProductSize{
			{Size: "8", Stock: 5},
			{Size: "9", Stock: 1},
			{Size: "10", Stock: 0},
		},
	}
}

func newTestOrderService(products ...*domain.Product) *orderService {
	repo := &mockProductRepo{products: make(map[string]*domain.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return &orderService{
		productRepo: repo,
		logger:      zap.NewNop(),
	}
}

func item(productID, name, size string, quantity int, unitPrice string) CheckoutItem {
	return CheckoutItem{
		ProductID: productID,
		Name:      name,
		Size:      size,
		Quantity:  quantity,
		UnitPrice: amount(unitPrice),
	}
}

func TestValidateAndPrice_RejectsPriceManipulation(t *testing.T) {
	svc := newTestOrderService(gloveProduct())

	_, err := svc.validateAndPrice(context.Background(),
		[]CheckoutItem{item("glove-1", "Pro Grip Roll Finger", "8", 1, "10.00")})
	assert.ErrorIs(t, err, domain.ErrPriceMismatch)
}

func TestValidateAndPrice_ToleratesOneCentDrift(t *testing.T) {
	svc := newTestOrderService(gloveProduct())

	cart, err := svc.validateAndPrice(context.Background(),
		[]CheckoutItem{item("glove-1", "Pro Grip Roll Finger", "8", 1, "50.00")})
	require.NoError(t, err)

	// The catalog price wins, not the client-quoted one.
	assert.True(t, cart.items[0].UnitPrice.Equal(amount("49.99")))
	assert.True(t, cart.subtotal.Equal(amount("49.99")))
}

func TestValidateAndPrice_RejectsNameMismatch(t *testing.T) {
	svc := newTestOrderService(gloveProduct())

	_, err := svc.validateAndPrice(context.Background(),
		[]CheckoutItem{item("glove-1", "Cheap Keeper Gloves", "8", 1, "49.99")})
	assert.ErrorIs(t, err, domain.ErrNameMismatch)
}

func TestValidateAndPrice_NameMatchIsCaseInsensitive(t *testing.T) {
	svc := newTestOrderService(gloveProduct())

	_, err := svc.validateAndPrice(context.Background(),
		[]CheckoutItem{item("glove-1", "  pro grip roll finger ", "8", 1, "49.99")})
	assert.NoError(t, err)
}

func TestValidateAndPrice_QuantityBounds(t *testing.T) {
	svc := newTestOrderService(gloveProduct())
	ctx := context.Background()

	_, err := svc.validateAndPrice(ctx,
		[]CheckoutItem{item("glove-1", "Pro Grip Roll Finger", "8", 0, "49.99")})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.validateAndPrice(ctx,
		[]CheckoutItem{item("glove-1", "Pro Grip Roll Finger", "8", 100, "49.99")})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestValidateAndPrice_UnknownAndInactiveProducts(t *testing.T) {
	inactive := gloveProduct()
	inactive.ID = "retired-1"
	inactive.Active = false
	svc := newTestOrderService(gloveProduct(), inactive)
	ctx := context.Background()

	_, err := svc.validateAndPrice(ctx,
		[]CheckoutItem{item("missing", "Whatever", "8", 1, "49.99")})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.validateAndPrice(ctx,
		[]CheckoutItem{item("retired-1", "Pro Grip Roll Finger", "8", 1, "49.99")})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestValidateAndPrice_InsufficientStock(t *testing.T) {
	svc := newTestOrderService(gloveProduct())
	ctx := context.Background()

	_, err := svc.validateAndPrice(ctx,
		[]CheckoutItem{item("glove-1", "Pro Grip Roll Finger", "9", 2, "49.99")})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = svc.validateAndPrice(ctx,
		[]CheckoutItem{item("glove-1", "Pro Grip Roll Finger", "10", 1, "49.99")})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestValidateAndPrice_UsesSalePrice(t *testing.T) {
	onSale := gloveProduct()
	salePrice := amount("39.99")
	onSale.SalePrice = &salePrice
	svc := newTestOrderService(onSale)

	cart, err := svc.validateAndPrice(context.Background(),
		[]CheckoutItem{item("glove-1", "Pro Grip Roll Finger", "8", 2, "39.99")})
	require.NoError(t, err)
	assert.True(t, cart.subtotal.Equal(amount("79.98")))

	// The pre-sale price no longer matches.
	_, err = svc.validateAndPrice(context.Background(),
		[]CheckoutItem{item("glove-1", "Pro Grip Roll Finger", "8", 1, "49.99")})
	assert.ErrorIs(t, err, domain.ErrPriceMismatch)
}

func TestShippingFor(t *testing.T) {
	assert.True(t, shippingFor(1).Equal(amount("3.00")))
	assert.True(t, shippingFor(2).IsZero())
	assert.True(t, shippingFor(5).IsZero())
}

func TestValidateAndPrice_ShippingFreeForTwoOfSameItem(t *testing.T) {
	svc := newTestOrderService(gloveProduct())

	cart, err := svc.validateAndPrice(context.Background(),
		[]CheckoutItem{item("glove-1", "Pro Grip Roll Finger", "8", 2, "49.99")})
	require.NoError(t, err)
	assert.Equal(t, 2, cart.totalQuantity)
	assert.True(t, cart.shipping.IsZero())
}

func TestCheckout_RequiresEmailAndItems(t *testing.T) {
	svc := newTestOrderService(gloveProduct())
	ctx := context.Background()

	_, err := svc.Checkout(ctx, &CheckoutRequest{
		Items: []CheckoutItem{item("glove-1", "Pro Grip Roll Finger", "8", 1, "49.99")},
	})
	assert.Error(t, err)

	_, err = svc.Checkout(ctx, &CheckoutRequest{CustomerEmail: "keeper@example.com"})
	assert.Error(t, err)
}

// A minimal database/sql driver with no-op transactions, so checkout can run
// its begin/commit cycle against mock repositories.
type noopDriver struct{}

func (noopDriver) Open(string) (driver.Conn, error) { return noopConn{}, nil }

type noopConn struct{}

func (noopConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (noopConn) Close() error                        { return nil }
func (noopConn) Begin() (driver.Tx, error)           { return noopTx{}, nil }

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

var registerDriverOnce sync.Once

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	registerDriverOnce.Do(func() {
		sql.Register("orders-noop", noopDriver{})
	})
	db, err := sql.Open("orders-noop", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type mockOrderRepo struct {
	created []*domain.Order
}

func (m *mockOrderRepo) CreateOrderTx(_ context.Context, _ *sql.Tx, order *domain.Order) error {
	m.created = append(m.created, order)
	return nil
}

func (m *mockOrderRepo) GetOrderByID(_ context.Context, _ string) (*domain.Order, error) {
	return nil, sql.ErrNoRows
}

func (m *mockOrderRepo) GetOrderByNumber(_ context.Context, _ string) (*domain.Order, error) {
	return nil, sql.ErrNoRows
}

func (m *mockOrderRepo) GetOrdersByEmail(_ context.Context, _ string) ([]*domain.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) GetAllOrders(_ context.Context) ([]*domain.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) TransitionStatusTx(_ context.Context, _ *sql.Tx, _ string, _ domain.OrderStatus, _ string) (bool, error) {
	return false, nil
}

type mockOutboxRepo struct {
	messages []*outbox_repo.OutboxMessage
}

func (m *mockOutboxRepo) CreateMessageTx(_ context.Context, _ *sql.Tx, msg *outbox_repo.OutboxMessage) error {
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockOutboxRepo) GetUnsentMessagesTx(_ context.Context, _ *sql.Tx) ([]*outbox_repo.OutboxMessage, error) {
	return nil, nil
}

func (m *mockOutboxRepo) MarkMessageSentTx(_ context.Context, _ *sql.Tx, _ string) error {
	return nil
}

// stubPaymentService records the order handed to InitiatePaymentTx and
// returns a canned redirect form.
type stubPaymentService struct {
	initiated []*domain.Order
}

func (s *stubPaymentService) InitiatePaymentTx(_ context.Context, _ *sql.Tx, order *domain.Order) (*payments.InitiateResponse, error) {
	s.initiated = append(s.initiated, order)
	return &payments.InitiateResponse{
		PaymentID: "payment-1",
		OrderID:   order.ID,
		DsOrder:   "260831120001",
		Form:      &redsys.FormData{URL: redsys.SandboxURL},
	}, nil
}

func (s *stubPaymentService) InitiatePayment(_ context.Context, _ string) (*payments.InitiateResponse, error) {
	return nil, errors.New("not implemented")
}

func (s *stubPaymentService) HandleNotification(_ context.Context, _, _ string) error {
	return errors.New("not implemented")
}

func (s *stubPaymentService) GetPaymentStatus(_ context.Context, _ string) (*payments.StatusResponse, error) {
	return nil, errors.New("not implemented")
}

func TestCheckout_CreatesPendingOrderWithPayment(t *testing.T) {
	orderRepo := &mockOrderRepo{}
	outboxRepo := &mockOutboxRepo{}
	paymentSvc := &stubPaymentService{}
	svc := newTestOrderService(gloveProduct())
	svc.db = openTestDB(t)
	svc.orderRepo = orderRepo
	svc.outboxRepo = outboxRepo
	svc.paymentSvc = paymentSvc
	svc.eventsTopic = "order_events"

	resp, err := svc.Checkout(context.Background(), &CheckoutRequest{
		CustomerEmail: "keeper@example.com",
		CustomerName:  "Iker",
		Items: []CheckoutItem{
			item("glove-1", "Pro Grip Roll Finger", "8", 1, "49.99"),
		},
	})
	require.NoError(t, err)

	require.Len(t, orderRepo.created, 1)
	created := orderRepo.created[0]
	assert.Equal(t, domain.OrderStatusPending, created.Status)
	assert.True(t, created.Subtotal.Equal(amount("49.99")))
	assert.True(t, created.ShippingAmount.Equal(amount("3.00")))
	assert.True(t, created.TotalAmount.Equal(amount("52.99")))
	assert.Equal(t, "keeper@example.com", created.CustomerEmail)
	require.Len(t, created.Items, 1)

	// The payment attempt rides in the same transaction as the order.
	require.Len(t, paymentSvc.initiated, 1)
	assert.Same(t, created, paymentSvc.initiated[0])

	require.Len(t, outboxRepo.messages, 1)
	assert.Equal(t, "order_events", outboxRepo.messages[0].Topic)

	assert.Equal(t, "pending", resp.Order.Status)
	assert.Equal(t, "payment-1", resp.Payment.PaymentID)
	assert.Len(t, resp.Order.OrderNumber, 12)
}
