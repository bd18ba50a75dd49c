package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"medicart/internal/domain"
)

type SaleRepo struct{ base }

func NewSaleRepo(db sqlx.ExtContext) *SaleRepo { return &SaleRepo{base{db}} }

type saleRow struct {
	ID           string          `db:"id"`
	Date         string          `db:"sale_date"`
	ProductsSold string          `db:"products_sold"`
	TotalAmount  decimal.Decimal `db:"total_amount"`
	CreatedAt    string          `db:"created_at"`
	UpdatedAt    string          `db:"updated_at"`
}

const saleCols = `id, sale_date, products_sold, total_amount, created_at, updated_at`

func (row saleRow) decode() (domain.DailySale, error) {
	lines, err := decodeLines("daily_sales", row.ID, "products_sold", row.ProductsSold)
	if err != nil {
		return domain.DailySale{}, err
	}
	if sum := domain.SumLines(lines); !sum.Equal(row.TotalAmount) {
		return domain.DailySale{}, &DecodeError{
			Table: "daily_sales", ID: row.ID, Field: "total_amount",
			Err: fmt.Errorf("stored %s, lines sum to %s", row.TotalAmount, sum),
		}
	}
	return domain.DailySale{
		ID:          row.ID,
		Date:        row.Date,
		Lines:       lines,
		TotalAmount: row.TotalAmount,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func decodeSales(rows []saleRow) ([]domain.DailySale, error) {
	out := make([]domain.DailySale, 0, len(rows))
	for _, row := range rows {
		s, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Insert stores s with its total recomputed from the lines.
func (r *SaleRepo) Insert(ctx context.Context, s domain.DailySale) error {
	raw, err := encodeLines(s.Lines)
	if err != nil {
		return err
	}
	_, err = r.exec(ctx, `
  INSERT INTO daily_sales(id, sale_date, products_sold, total_amount, created_at, updated_at)
  VALUES(?,?,?,?,?,?)
`, s.ID, s.Date, raw, domain.SumLines(s.Lines).StringFixed(2), s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *SaleRepo) Get(ctx context.Context, id string) (domain.DailySale, error) {
	var row saleRow
	if err := r.get(ctx, &row, `SELECT `+saleCols+` FROM daily_sales WHERE id = ?`, id); err != nil {
		return domain.DailySale{}, err
	}
	return row.decode()
}

// Update replaces the lines (and so the total) of an existing record.
func (r *SaleRepo) Update(ctx context.Context, s domain.DailySale) error {
	raw, err := encodeLines(s.Lines)
	if err != nil {
		return err
	}
	return r.execOne(ctx, `
  UPDATE daily_sales SET products_sold = ?, total_amount = ?, updated_at = ? WHERE id = ?
`, raw, domain.SumLines(s.Lines).StringFixed(2), s.UpdatedAt, s.ID)
}

func (r *SaleRepo) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM daily_sales WHERE id = ?`, id)
}

// ListBetween returns records whose date falls in [from, to], both YYYY-MM-DD.
func (r *SaleRepo) ListBetween(ctx context.Context, from, to string) ([]domain.DailySale, error) {
	var rows []saleRow
	if err := r.sel(ctx, &rows, `
  SELECT `+saleCols+`
  FROM daily_sales
  WHERE sale_date >= ? AND sale_date <= ?
  ORDER BY sale_date, created_at, id
`, from, to); err != nil {
		return nil, err
	}
	return decodeSales(rows)
}

func (r *SaleRepo) ListLatest(ctx context.Context, limit int) ([]domain.DailySale, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []saleRow
	if err := r.sel(ctx, &rows, `
  SELECT `+saleCols+`
  FROM daily_sales
  ORDER BY sale_date DESC, created_at DESC
  LIMIT ?
`, limit); err != nil {
		return nil, err
	}
	return decodeSales(rows)
}
