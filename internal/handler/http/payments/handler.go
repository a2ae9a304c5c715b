package payments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/app/payments"
	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
)

type PaymentHandler struct {
	service payments.PaymentService
	logger  *zap.Logger
}

func NewPaymentHandler(s payments.PaymentService, l *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: s, logger: l}
}

// GatewayCallback receives the server-to-server notification the gateway
// POSTs after the shopper leaves the payment page. The gateway retries until
// it gets a 200, so settled orders ack again without changing state.
func (h *PaymentHandler) GatewayCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("Unparseable callback form", zap.Error(err))
		http.Error(w, "Invalid callback", http.StatusBadRequest)
		return
	}

	encodedParams := r.PostFormValue("Ds_MerchantParameters")
	signature := r.PostFormValue("Ds_Signature")

	err := h.service.HandleNotification(r.Context(), encodedParams, signature)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSignature), errors.Is(err, domain.ErrMalformedCallback):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrPaymentNotFound), errors.Is(err, domain.ErrOrderNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error("Error handling gateway callback", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// InitiatePayment starts a fresh gateway redirect for a pending order, used
// when the shopper abandons the payment page and comes back.
func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	res, err := h.service.InitiatePayment(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		h.logger.Warn("Payment initiation rejected", zap.String("order_id", orderID), zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res)
}

func (h *PaymentHandler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		http.Error(w, "Payment ID is required", http.StatusBadRequest)
		return
	}

	res, err := h.service.GetPaymentStatus(r.Context(), paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			http.Error(w, "Payment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error getting payment status", zap.String("payment_id", paymentID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
