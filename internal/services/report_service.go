package services

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"medicart/internal/domain"
	"medicart/internal/events"
	applog "medicart/internal/log"
	"medicart/internal/repos"
)

type ReportService struct {
	Store *repos.Store
	Bus   *events.Bus
	Now   clock
}

func NewReportService(store *repos.Store, bus *events.Bus) *ReportService {
	return &ReportService{Store: store, Bus: bus}
}

// MonthBounds returns the first and last calendar day of "YYYY-MM", both inclusive.
func MonthBounds(month string) (string, string, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return "", "", invalid("month", "Month must look like YYYY-MM")
	}
	return t.Format("2006-01-02"), t.AddDate(0, 1, -1).Format("2006-01-02"), nil
}

func IsLastDayOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}

// Aggregate folds sales into per-product totals in first-seen order. The most
// sold product has the highest quantity; ties go to the smallest name.
func Aggregate(sales []domain.DailySale) ([]domain.LineItem, decimal.Decimal, string) {
	total := decimal.Zero
	idx := map[string]int{}
	var products []domain.LineItem
	for _, sale := range sales {
		total = total.Add(sale.TotalAmount)
		for _, l := range sale.Lines {
			i, ok := idx[l.ProductName]
			if !ok {
				i = len(products)
				idx[l.ProductName] = i
				products = append(products, domain.LineItem{ProductName: l.ProductName, TotalPrice: decimal.Zero})
			}
			products[i].Quantity += l.Quantity
			products[i].TotalPrice = products[i].TotalPrice.Add(l.TotalPrice)
		}
	}

	most, max := "", 0
	for i := range products {
		p := &products[i]
		if p.Quantity > 0 {
			p.Price = p.TotalPrice.DivRound(decimal.NewFromInt(int64(p.Quantity)), 2)
		}
		if p.Quantity > max || (p.Quantity == max && max > 0 && p.ProductName < most) {
			most, max = p.ProductName, p.Quantity
		}
	}
	return products, total, most
}

func (s *ReportService) build(ctx context.Context, r *repos.Repos, month string) (domain.MonthlyReport, error) {
	start, end, err := MonthBounds(month)
	if err != nil {
		return domain.MonthlyReport{}, err
	}
	sales, err := r.Sales.ListBetween(ctx, start, end)
	if err != nil {
		return domain.MonthlyReport{}, err
	}
	if len(sales) == 0 {
		return domain.MonthlyReport{}, ErrNoSalesData
	}
	products, total, most := Aggregate(sales)
	return domain.MonthlyReport{
		Month:           month,
		StartDate:       start,
		EndDate:         end,
		TotalSales:      total,
		Products:        products,
		MostSoldProduct: most,
	}, nil
}

// upsert writes m under its month key, keeping id and created_at of an existing row.
func (s *ReportService) upsert(ctx context.Context, r *repos.Repos, m domain.MonthlyReport) (domain.MonthlyReport, error) {
	ts := s.Now.stamp()
	exists, err := r.Reports.Exists(ctx, m.Month)
	if err != nil {
		return domain.MonthlyReport{}, err
	}
	m.UpdatedAt = ts
	if exists {
		if err := r.Reports.Update(ctx, m); err != nil {
			return domain.MonthlyReport{}, err
		}
		return r.Reports.GetByMonth(ctx, m.Month)
	}
	m.ID = uuid.NewString()
	m.CreatedAt = ts
	if err := r.Reports.Insert(ctx, m); err != nil {
		return domain.MonthlyReport{}, err
	}
	return m, nil
}

// refresh recomputes an already generated report after its sales changed.
// Months without a report are left alone.
func (s *ReportService) refresh(ctx context.Context, r *repos.Repos, month string) error {
	exists, err := r.Reports.Exists(ctx, month)
	if err != nil || !exists {
		return err
	}
	m, err := s.build(ctx, r, month)
	if errors.Is(err, ErrNoSalesData) {
		return r.Reports.Delete(ctx, month)
	}
	if err != nil {
		return err
	}
	_, err = s.upsert(ctx, r, m)
	return err
}

type GenerateOptions struct {
	// Auto marks scheduler runs: no-data is logged, not returned, and admins are notified.
	Auto bool
}

// GenerateMonthly aggregates month and upserts its report. In auto mode a month
// with no sales returns a zero report and nil.
func (s *ReportService) GenerateMonthly(ctx context.Context, month string, opts GenerateOptions) (domain.MonthlyReport, error) {
	var m domain.MonthlyReport
	err := s.Store.InTx(ctx, func(r *repos.Repos) error {
		built, err := s.build(ctx, r, month)
		if err != nil {
			return err
		}
		if m, err = s.upsert(ctx, r, built); err != nil {
			return err
		}
		if opts.Auto {
			return s.notifyAdmins(ctx, r, m)
		}
		return nil
	})
	if err != nil {
		if opts.Auto && errors.Is(err, ErrNoSalesData) {
			applog.Info(nil, "report.auto.no_data", map[string]any{"month": month})
			return domain.MonthlyReport{}, nil
		}
		return domain.MonthlyReport{}, err
	}
	s.Bus.Publish(events.ReportGenerated, map[string]any{"month": m.Month, "auto": opts.Auto})
	return m, nil
}

func (s *ReportService) notifyAdmins(ctx context.Context, r *repos.Repos, m domain.MonthlyReport) error {
	admins, err := r.Users.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	ts := s.Now.stamp()
	for _, a := range admins {
		n := domain.Notification{
			ID:        uuid.NewString(),
			Type:      domain.NotifyReport,
			Title:     "Monthly Report Generated",
			Message:   fmt.Sprintf("The monthly sales report for %s has been automatically generated.", m.Month),
			ActionURL: "/admin/reports/" + m.Month,
			UserID:    a.ID,
			CreatedAt: ts,
		}
		if err := r.Notifications.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// AutoGenerate runs on the last day of the month when no report exists yet.
func (s *ReportService) AutoGenerate(ctx context.Context) (bool, error) {
	now := s.Now.now()
	if !IsLastDayOfMonth(now) {
		return false, nil
	}
	month := now.Format("2006-01")
	exists, err := s.Store.Reports.Exists(ctx, month)
	if err != nil || exists {
		return false, err
	}
	m, err := s.GenerateMonthly(ctx, month, GenerateOptions{Auto: true})
	return m.ID != "", err
}

func (s *ReportService) List(ctx context.Context) ([]domain.MonthlyReport, error) {
	return s.Store.Reports.List(ctx)
}

func (s *ReportService) Get(ctx context.Context, month string) (domain.MonthlyReport, error) {
	m, err := s.Store.Reports.GetByMonth(ctx, month)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MonthlyReport{}, ErrReportNotFound
	}
	return m, err
}

// Delete removes the given months together; one unknown month aborts all.
func (s *ReportService) Delete(ctx context.Context, months ...string) error {
	if len(months) == 0 {
		return invalid("months", "Please select at least one report to delete")
	}
	return s.Store.InTx(ctx, func(r *repos.Repos) error {
		for _, m := range months {
			if err := r.Reports.Delete(ctx, m); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: %s", ErrReportNotFound, m)
				}
				return err
			}
		}
		return nil
	})
}

// Summary is what a CSV export holds: one headline row and per-product rows.
type Summary struct {
	Label    string // the month or the day
	Total    decimal.Decimal
	MostSold string
	Products []domain.LineItem
}

func MonthlySummary(m domain.MonthlyReport) Summary {
	return Summary{Label: m.Month, Total: m.TotalSales, MostSold: m.MostSoldProduct, Products: m.Products}
}

// DailySummary folds the sales of one day.
func (s *ReportService) DailySummary(ctx context.Context, date string) (Summary, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return Summary{}, invalid("date", "Date must look like YYYY-MM-DD")
	}
	sales, err := s.Store.Sales.ListBetween(ctx, date, date)
	if err != nil {
		return Summary{}, err
	}
	if len(sales) == 0 {
		return Summary{}, ErrNoSalesData
	}
	products, total, most := Aggregate(sales)
	return Summary{Label: date, Total: total, MostSold: most, Products: products}, nil
}

func MonthlyCSVName(month string) string { return "monthly_report_" + month + ".csv" }
func DailyCSVName(date string) string    { return "daily_report_" + date + ".csv" }

// WriteCSV emits the headline block, a blank line, then one row per product.
func WriteCSV(w io.Writer, s Summary) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Date", "Total Sales", "Most Sold Product"},
		{s.Label, s.Total.StringFixed(2), s.MostSold},
		{},
		{"Product Name", "Quantity", "Unit Price", "Total Price"},
	}
	for _, p := range s.Products {
		rows = append(rows, []string{p.ProductName, strconv.Itoa(p.Quantity), p.Price.StringFixed(2), p.TotalPrice.StringFixed(2)})
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
