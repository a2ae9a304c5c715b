package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductSize struct {
	Size  string
	Stock int
}

type Product struct {
	ID          string
	Name        string
	Brand       string
	Description string
	Price       decimal.Decimal
	SalePrice   *decimal.Decimal
	Active      bool
	Sizes       []ProductSize
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CurrentPrice returns the sale price when one is set.
func (p *Product) CurrentPrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// StockFor returns the stock for a size, zero when the size is unknown.
func (p *Product) StockFor(size string) int {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Stock
		}
	}
	return 0
}
