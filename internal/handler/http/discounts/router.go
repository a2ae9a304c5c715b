package discounts

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/app/discounts"
)

func RegisterRoutes(r chi.Router, s discounts.DiscountService, l *zap.Logger) {
	handler := NewDiscountHandler(s, l.With(zap.String("component", "DiscountHTTPHandler")))

	r.Route("/discounts", func(r chi.Router) {
		r.Post("/preview", handler.PreviewCode)
		r.Post("/", handler.CreateCode)
		r.Get("/", handler.ListCodes)
		r.Get("/{codeID}", handler.GetCode)
		r.Put("/{codeID}", handler.UpdateCode)
		r.Delete("/{codeID}", handler.DeactivateCode)
	})
}
