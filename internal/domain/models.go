package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}

type Product struct {
	ID                   string              `db:"id" json:"id"`
	CategoryID           string              `db:"category_id" json:"category_id"`
	Name                 string              `db:"name" json:"name"`
	Description          string              `db:"description" json:"description"`
	Price                decimal.Decimal     `db:"price" json:"price"`
	DiscountPercent      decimal.NullDecimal `db:"discount_percent" json:"discount_percent"`
	StockQuantity        int                 `db:"stock_quantity" json:"stock_quantity"`
	InStock              bool                `db:"in_stock" json:"in_stock"`
	RequiresPrescription bool                `db:"requires_prescription" json:"requires_prescription"`
	Active               bool                `db:"active" json:"active"`
	CreatedAt            string              `db:"created_at" json:"created_at"`
	UpdatedAt            string              `db:"updated_at" json:"updated_at"`
}

var hundred = decimal.NewFromInt(100)

// SalePrice applies the optional discount percentage, rounded to cents.
func (p Product) SalePrice() decimal.Decimal {
	if !p.DiscountPercent.Valid || p.DiscountPercent.Decimal.LessThanOrEqual(decimal.Zero) {
		return p.Price
	}
	off := p.Price.Mul(p.DiscountPercent.Decimal).Div(hundred)
	return p.Price.Sub(off).Round(2)
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty,omitempty"`
	ETA    string `json:"eta,omitempty"`
}

type FeatureFlag struct {
	Name      string `db:"name" json:"name"`
	Enabled   bool   `db:"enabled" json:"enabled"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}
