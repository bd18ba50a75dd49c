package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"medicart/internal/domain"
)

type ReportRepo struct{ base }

func NewReportRepo(db sqlx.ExtContext) *ReportRepo { return &ReportRepo{base{db}} }

type reportRow struct {
	ID              string          `db:"id"`
	Month           string          `db:"month"`
	StartDate       string          `db:"start_date"`
	EndDate         string          `db:"end_date"`
	TotalSales      decimal.Decimal `db:"total_sales"`
	ProductsSold    string          `db:"products_sold"`
	MostSoldProduct string          `db:"most_sold_product"`
	CreatedAt       string          `db:"created_at"`
	UpdatedAt       string          `db:"updated_at"`
}

const reportCols = `id, month, start_date, end_date, total_sales, products_sold, most_sold_product, created_at, updated_at`

func (row reportRow) decode() (domain.MonthlyReport, error) {
	lines, err := decodeLines("monthly_reports", row.ID, "products_sold", row.ProductsSold)
	if err != nil {
		return domain.MonthlyReport{}, err
	}
	return domain.MonthlyReport{
		ID:              row.ID,
		Month:           row.Month,
		StartDate:       row.StartDate,
		EndDate:         row.EndDate,
		TotalSales:      row.TotalSales,
		Products:        lines,
		MostSoldProduct: row.MostSoldProduct,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}

func (r *ReportRepo) GetByMonth(ctx context.Context, month string) (domain.MonthlyReport, error) {
	var row reportRow
	if err := r.get(ctx, &row, `SELECT `+reportCols+` FROM monthly_reports WHERE month = ?`, month); err != nil {
		return domain.MonthlyReport{}, err
	}
	return row.decode()
}

func (r *ReportRepo) Exists(ctx context.Context, month string) (bool, error) {
	var n int
	if err := r.get(ctx, &n, `SELECT COUNT(*) FROM monthly_reports WHERE month = ?`, month); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ReportRepo) Insert(ctx context.Context, m domain.MonthlyReport) error {
	raw, err := encodeLines(m.Products)
	if err != nil {
		return err
	}
	_, err = r.exec(ctx, `
  INSERT INTO monthly_reports(id, month, start_date, end_date, total_sales, products_sold, most_sold_product, created_at, updated_at)
  VALUES(?,?,?,?,?,?,?,?,?)
`, m.ID, m.Month, m.StartDate, m.EndDate, m.TotalSales.StringFixed(2), raw, m.MostSoldProduct, m.CreatedAt, m.UpdatedAt)
	return err
}

// Update overwrites the aggregate for m.Month, keeping id and created_at.
func (r *ReportRepo) Update(ctx context.Context, m domain.MonthlyReport) error {
	raw, err := encodeLines(m.Products)
	if err != nil {
		return err
	}
	return r.execOne(ctx, `
  UPDATE monthly_reports
  SET start_date = ?, end_date = ?, total_sales = ?, products_sold = ?, most_sold_product = ?, updated_at = ?
  WHERE month = ?
`, m.StartDate, m.EndDate, m.TotalSales.StringFixed(2), raw, m.MostSoldProduct, m.UpdatedAt, m.Month)
}

func (r *ReportRepo) List(ctx context.Context) ([]domain.MonthlyReport, error) {
	var rows []reportRow
	if err := r.sel(ctx, &rows, `SELECT `+reportCols+` FROM monthly_reports ORDER BY month DESC`); err != nil {
		return nil, err
	}
	out := make([]domain.MonthlyReport, 0, len(rows))
	for _, row := range rows {
		m, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *ReportRepo) Delete(ctx context.Context, month string) error {
	return r.execOne(ctx, `DELETE FROM monthly_reports WHERE month = ?`, month)
}
