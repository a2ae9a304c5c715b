package discounts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/app/discounts"
	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
)

type DiscountHandler struct {
	service discounts.DiscountService
	logger  *zap.Logger
}

func NewDiscountHandler(s discounts.DiscountService, l *zap.Logger) *DiscountHandler {
	return &DiscountHandler{service: s, logger: l}
}

// PreviewCode quotes a discount without consuming a use, so storefronts can
// show the discounted total before checkout.
func (h *DiscountHandler) PreviewCode(w http.ResponseWriter, r *http.Request) {
	var req discounts.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for PreviewCode", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.Preview(r.Context(), req.Code, req.OriginalAmount)
	if err != nil {
		h.writeQuoteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (h *DiscountHandler) writeQuoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCodeNotFound):
		http.Error(w, "Discount code not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrCodeInactive),
		errors.Is(err, domain.ErrCodeNotYetActive),
		errors.Is(err, domain.ErrCodeExpired),
		errors.Is(err, domain.ErrUsageLimitReached),
		errors.Is(err, domain.ErrMinOrderNotMet),
		errors.Is(err, domain.ErrInvalidResultingAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("Error quoting discount code", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *DiscountHandler) CreateCode(w http.ResponseWriter, r *http.Request) {
	var req discounts.CreateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for CreateCode", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.CreateCode(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrCodeExists) {
			http.Error(w, "Discount code already exists", http.StatusConflict)
			return
		}
		h.logger.Warn("Bad request for CreateCode", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res)
}

func (h *DiscountHandler) UpdateCode(w http.ResponseWriter, r *http.Request) {
	codeID := chi.URLParam(r, "codeID")

	var req discounts.UpdateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for UpdateCode", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.UpdateCode(r.Context(), codeID, &req)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			http.Error(w, "Discount code not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error updating discount code", zap.String("code_id", codeID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (h *DiscountHandler) DeactivateCode(w http.ResponseWriter, r *http.Request) {
	codeID := chi.URLParam(r, "codeID")

	if err := h.service.DeactivateCode(r.Context(), codeID); err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			http.Error(w, "Discount code not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error deactivating discount code", zap.String("code_id", codeID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DiscountHandler) GetCode(w http.ResponseWriter, r *http.Request) {
	codeID := chi.URLParam(r, "codeID")

	res, err := h.service.GetCode(r.Context(), codeID)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			http.Error(w, "Discount code not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error getting discount code", zap.String("code_id", codeID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (h *DiscountHandler) ListCodes(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))

	res, err := h.service.ListCodes(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("Error listing discount codes", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
