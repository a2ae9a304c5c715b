package payments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/app/products"
	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
	"github.com/Canis-Ignem/total-keepers-be/internal/redsys"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/order_repo"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/outbox_repo"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/payment_repo"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/product_repo"
	"github.com/Canis-Ignem/total-keepers-be/internal/util"
)

const eventOrderStatusChanged = "order.status_changed"

type PaymentService interface {
	// InitiatePaymentTx creates the payment row inside the caller's
	// transaction and returns the signed gateway redirect form. Used by
	// checkout so the order and its first payment attempt commit together.
	InitiatePaymentTx(ctx context.Context, tx *sql.Tx, order *domain.Order) (*InitiateResponse, error)
	// InitiatePayment starts a fresh payment attempt for an existing pending
	// order, with a new gateway order reference.
	InitiatePayment(ctx context.Context, orderID string) (*InitiateResponse, error)
	// HandleNotification verifies and applies one gateway callback. A nil
	// error means the caller should ack; callbacks for already settled orders
	// are acked without touching state.
	HandleNotification(ctx context.Context, encodedParams, signature string) error
	GetPaymentStatus(ctx context.Context, paymentID string) (*StatusResponse, error)
}

type paymentService struct {
	db          *sql.DB
	paymentRepo payment_repo.PaymentRepository
	orderRepo   order_repo.OrderRepository
	productRepo product_repo.ProductRepository
	outboxRepo  outbox_repo.OutboxRepository
	catalog     products.ProductService
	gateway     *redsys.Client
	successURL  string
	failureURL  string
	eventsTopic string
	logger      *zap.Logger
}

func NewPaymentService(
	db *sql.DB,
	paymentRepo payment_repo.PaymentRepository,
	orderRepo order_repo.OrderRepository,
	productRepo product_repo.ProductRepository,
	outboxRepo outbox_repo.OutboxRepository,
	catalog products.ProductService,
	gateway *redsys.Client,
	successURL, failureURL, eventsTopic string,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		db:          db,
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		catalog:     catalog,
		gateway:     gateway,
		successURL:  successURL,
		failureURL:  failureURL,
		eventsTopic: eventsTopic,
		logger:      logger,
	}
}

func (s *paymentService) InitiatePaymentTx(ctx context.Context, tx *sql.Tx, order *domain.Order) (*InitiateResponse, error) {
	now := time.Now()
	payment := &domain.Payment{
		ID:        util.GenerateUUID(),
		OrderID:   order.ID,
		DsOrder:   util.GenerateOrderNumber(now),
		Status:    domain.PaymentStatusPending,
		Amount:    order.TotalAmount,
		Currency:  redsys.CurrencyEUR,
		CreatedAt: now,
	}
	if err := s.paymentRepo.CreateTx(ctx, tx, payment); err != nil {
		return nil, err
	}
	return s.buildRedirect(order, payment)
}

func (s *paymentService) InitiatePayment(ctx context.Context, orderID string) (*InitiateResponse, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, fmt.Errorf("order %s is %s, only pending orders can be paid", order.OrderNumber, order.Status)
	}

	now := time.Now()
	payment := &domain.Payment{
		ID:        util.GenerateUUID(),
		OrderID:   order.ID,
		DsOrder:   util.GenerateOrderNumber(now),
		Status:    domain.PaymentStatusPending,
		Amount:    order.TotalAmount,
		Currency:  redsys.CurrencyEUR,
		CreatedAt: now,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("Payment attempt started",
		zap.String("order_number", order.OrderNumber),
		zap.String("ds_order", payment.DsOrder))
	return s.buildRedirect(order, payment)
}

func (s *paymentService) buildRedirect(order *domain.Order, payment *domain.Payment) (*InitiateResponse, error) {
	description := fmt.Sprintf("Pedido %s", order.OrderNumber)
	form, err := s.gateway.PrepareRequest(payment.DsOrder, payment.Amount, description, s.successURL, s.failureURL)
	if err != nil {
		s.logger.Error("Failed to build gateway redirect",
			zap.String("ds_order", payment.DsOrder), zap.Error(err))
		return nil, fmt.Errorf("failed to build gateway redirect: %w", err)
	}
	return &InitiateResponse{
		PaymentID: payment.ID,
		OrderID:   order.ID,
		DsOrder:   payment.DsOrder,
		Form:      form,
	}, nil
}

func (s *paymentService) HandleNotification(ctx context.Context, encodedParams, signature string) error {
	notif, err := s.gateway.ParseNotification(encodedParams, signature)
	if err != nil {
		if errors.Is(err, redsys.ErrInvalidSignature) {
			s.logger.Warn("Callback signature verification failed")
			return domain.ErrInvalidSignature
		}
		s.logger.Warn("Malformed callback payload", zap.Error(err))
		return domain.ErrMalformedCallback
	}

	payment, err := s.paymentRepo.GetByDsOrder(ctx, notif.Order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Callback for unknown payment", zap.String("ds_order", notif.Order))
			return domain.ErrPaymentNotFound
		}
		return err
	}

	order, err := s.loadOrder(ctx, payment.OrderID)
	if err != nil {
		return err
	}

	if order.Status.IsTerminal() {
		s.logger.Info("Callback for settled order ignored",
			zap.String("order_number", order.OrderNumber),
			zap.String("status", string(order.Status)))
		return nil
	}

	orderStatus, paymentStatus := statusesFor(redsys.OutcomeFor(notif.Response))
	return s.settle(ctx, order, payment, notif, orderStatus, paymentStatus)
}

func statusesFor(outcome redsys.Outcome) (domain.OrderStatus, domain.PaymentStatus) {
	switch outcome {
	case redsys.OutcomeAuthorized:
		return domain.OrderStatusPaid, domain.PaymentStatusCompleted
	case redsys.OutcomeCanceled:
		return domain.OrderStatusCanceled, domain.PaymentStatusCanceled
	default:
		return domain.OrderStatusFailed, domain.PaymentStatusFailed
	}
}

func (s *paymentService) settle(ctx context.Context, order *domain.Order, payment *domain.Payment, notif *redsys.Notification, orderStatus domain.OrderStatus, paymentStatus domain.PaymentStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	swapped, err := s.orderRepo.TransitionStatusTx(ctx, tx, order.ID, orderStatus, payment.ID)
	if err != nil {
		return err
	}
	if !swapped {
		// A concurrent callback settled the order first.
		s.logger.Info("Order already settled, callback ignored",
			zap.String("order_number", order.OrderNumber))
		return nil
	}

	// The row swap succeeded, so mirror it on the aggregate. The guard
	// in the Mark* methods keeps memory and row in lockstep.
	switch orderStatus {
	case domain.OrderStatusPaid:
		err = order.MarkAsPaid(payment.ID)
	case domain.OrderStatusCanceled:
		err = order.MarkAsCanceled()
	default:
		err = order.MarkAsFailed()
	}
	if err != nil {
		return err
	}

	now := time.Now()
	if err := s.paymentRepo.RecordResponseTx(ctx, tx, payment.ID, paymentStatus, notif.Response, notif.AuthorisationCode, now); err != nil {
		return err
	}

	if order.Status == domain.OrderStatusPaid {
		for _, item := range order.Items {
			err := s.productRepo.ReduceStockTx(ctx, tx, item.ProductID, item.Size, item.Quantity)
			if errors.Is(err, domain.ErrInsufficientStock) {
				// The payment already went through; never fail the
				// reconciliation over an oversold size.
				s.logger.Warn("Paid order oversold a size",
					zap.String("order_number", order.OrderNumber),
					zap.String("product_id", item.ProductID),
					zap.String("size", item.Size))
				continue
			}
			if err != nil {
				return err
			}
		}
	}

	payload, err := json.Marshal(orderStatusEvent{
		EventType:   eventOrderStatusChanged,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		PaymentID:   payment.ID,
		DsOrder:     payment.DsOrder,
		OccurredAt:  now,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	msg := &outbox_repo.OutboxMessage{
		ID:        util.GenerateUUID(),
		Topic:     s.eventsTopic,
		Payload:   payload,
		Status:    outbox_repo.StatusPending,
		CreatedAt: now,
	}
	if err := s.outboxRepo.CreateMessageTx(ctx, tx, msg); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}

	if order.Status == domain.OrderStatusPaid && s.catalog != nil {
		ids := make([]string, len(order.Items))
		for i, item := range order.Items {
			ids[i] = item.ProductID
		}
		// Stale cached stock is tolerable, so invalidation failure only logs.
		_ = s.catalog.InvalidateCatalog(ctx, ids...)
	}

	s.logger.Info("Order settled",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(order.Status)),
		zap.String("ds_response", notif.Response),
		zap.String("description", redsys.DescribeResponse(notif.Response)))
	return nil
}

func (s *paymentService) GetPaymentStatus(ctx context.Context, paymentID string) (*StatusResponse, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	resp := &StatusResponse{
		ID:                payment.ID,
		OrderID:           payment.OrderID,
		DsOrder:           payment.DsOrder,
		Status:            string(payment.Status),
		Amount:            payment.Amount,
		Currency:          payment.Currency,
		ResponseCode:      payment.ResponseCode,
		AuthorisationCode: payment.AuthorisationCode,
		SignatureVerified: payment.SignatureVerified,
		CreatedAt:         payment.CreatedAt,
		RespondedAt:       payment.RespondedAt,
	}
	if payment.ResponseCode != "" {
		resp.ResponseDescription = redsys.DescribeResponse(payment.ResponseCode)
	}
	return resp, nil
}

func (s *paymentService) loadOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}
