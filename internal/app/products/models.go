package products

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Canis-Ignem/total-keepers-be/internal/domain"
)

type SizeResponse struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

type ProductResponse struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Brand          string           `json:"brand"`
	Description    string           `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	SalePrice      *decimal.Decimal `json:"sale_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	Active         bool             `json:"active"`
	Sizes          []SizeResponse   `json:"sizes"`
	CreatedAt      time.Time        `json:"created_at"`
}

func mapProductToResponse(p *domain.Product) *ProductResponse {
	sizes := make([]SizeResponse, len(p.Sizes))
	for i, s := range p.Sizes {
		sizes[i] = SizeResponse{Size: s.Size, Stock: s.Stock}
	}
	return &ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Brand:          p.Brand,
		Description:    p.Description,
		Price:          p.Price,
		SalePrice:      p.SalePrice,
		EffectivePrice: p.CurrentPrice(),
		Active:         p.Active,
		Sizes:          sizes,
		CreatedAt:      p.CreatedAt,
	}
}
