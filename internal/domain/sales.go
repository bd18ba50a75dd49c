package domain

import "github.com/shopspring/decimal"

// LineItem is one (product, quantity, price) entry of a sale or report.
type LineItem struct {
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

func NewLineItem(name string, qty int, price decimal.Decimal) LineItem {
	return LineItem{
		ProductName: name,
		Quantity:    qty,
		Price:       price,
		TotalPrice:  price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// SumLines is the only source of a sale total.
func SumLines(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.TotalPrice)
	}
	return total
}

type DailySale struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Lines       []LineItem      `json:"products_sold"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at,omitempty"`
}

type MonthlyReport struct {
	ID              string          `json:"id"`
	Month           string          `json:"month"` // YYYY-MM
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	Products        []LineItem      `json:"products_sold"`
	MostSoldProduct string          `json:"most_sold_product"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at,omitempty"`
}
