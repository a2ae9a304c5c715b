package products

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/app/products"
	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
)

type ProductHandler struct {
	service products.ProductService
	logger  *zap.Logger
}

func NewProductHandler(s products.ProductService, l *zap.Logger) *ProductHandler {
	return &ProductHandler{service: s, logger: l}
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("Error listing products", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	if productID == "" {
		http.Error(w, "Product ID is required", http.StatusBadRequest)
		return
	}

	res, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error getting product", zap.String("product_id", productID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
