package services_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"medicart/internal/domain"
	"medicart/internal/services"
)

func TestMonthBoundsAndLastDay(t *testing.T) {
	start, end, err := services.MonthBounds("2024-02")
	if err != nil || start != "2024-02-01" || end != "2024-02-29" {
		t.Fatalf("leap february: %s %s %v", start, end, err)
	}
	if _, _, err := services.MonthBounds("2024-13"); err == nil {
		t.Fatal("bad month accepted")
	}
	day := func(s string) time.Time { d, _ := time.Parse("2006-01-02", s); return d }
	if !services.IsLastDayOfMonth(day("2025-04-30")) || services.IsLastDayOfMonth(day("2025-04-29")) {
		t.Fatal("last-day check wrong for april")
	}
	if !services.IsLastDayOfMonth(day("2025-12-31")) {
		t.Fatal("december 31 is a last day")
	}
}

func TestAggregateTieBreakAndUnitPrice(t *testing.T) {
	sales := []domain.DailySale{
		{Lines: []domain.LineItem{
			domain.NewLineItem("Zinc Tablets", 4, dec("1.00")),
			domain.NewLineItem("Aspirin", 1, dec("3.00")),
		}},
		{Lines: []domain.LineItem{
			domain.NewLineItem("Aspirin", 3, dec("2.00")),
		}},
	}
	for i := range sales {
		sales[i].TotalAmount = domain.SumLines(sales[i].Lines)
	}

	products, total, most := services.Aggregate(sales)
	if most != "Aspirin" {
		t.Fatalf("tie should go to the smallest name, got %q", most)
	}
	if !total.Equal(dec("13.00")) {
		t.Fatalf("total %s", total)
	}
	if len(products) != 2 || products[0].ProductName != "Zinc Tablets" {
		t.Fatalf("first-seen order lost: %+v", products)
	}
	a := products[1]
	if a.Quantity != 4 || !a.TotalPrice.Equal(dec("9.00")) || !a.Price.Equal(dec("2.25")) {
		t.Fatalf("aspirin fold: %+v", a)
	}
}

func TestGenerateMonthlyNoData(t *testing.T) {
	e := newEnv(t, "2024-03-14T10:00:00Z")
	ctx := context.Background()

	_, err := e.reports.GenerateMonthly(ctx, "2024-03", services.GenerateOptions{})
	if !errors.Is(err, services.ErrNoSalesData) {
		t.Fatalf("want no data, got %v", err)
	}
	if ok, _ := e.store.Reports.Exists(ctx, "2024-03"); ok {
		t.Fatal("report written without data")
	}

	m, err := e.reports.GenerateMonthly(ctx, "2024-03", services.GenerateOptions{Auto: true})
	if err != nil || m.ID != "" {
		t.Fatalf("auto mode should swallow no data: %+v %v", m, err)
	}
}

func TestGenerateMonthlyUpsertIsStable(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	ctx := context.Background()
	if _, err := e.sales.Submit(ctx, []services.LineInput{line("Paracetamol 500mg", 4, "2.50"), line("Ibuprofen 400mg", 1, "4.75")}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.sales.Submit(ctx, []services.LineInput{line("Paracetamol 500mg", 2, "2.50")}); err != nil {
		t.Fatal(err)
	}

	first, err := e.reports.GenerateMonthly(ctx, "2025-03", services.GenerateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.reports.GenerateMonthly(ctx, "2025-03", services.GenerateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	list, _ := e.reports.List(ctx)
	if len(list) != 1 {
		t.Fatalf("want one report, got %d", len(list))
	}
	if first.ID != second.ID || !first.TotalSales.Equal(second.TotalSales) ||
		first.MostSoldProduct != second.MostSoldProduct || len(first.Products) != len(second.Products) {
		t.Fatalf("upsert drifted:\n%+v\n%+v", first, second)
	}
	if !second.TotalSales.Equal(dec("19.75")) || second.MostSoldProduct != "Paracetamol 500mg" {
		t.Fatalf("report: %+v", second)
	}
	if second.StartDate != "2025-03-01" || second.EndDate != "2025-03-31" {
		t.Fatalf("window: %s..%s", second.StartDate, second.EndDate)
	}
}

func TestExistingReportFollowsSaleChanges(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	ctx := context.Background()
	sale, err := e.sales.Submit(ctx, []services.LineInput{line("Paracetamol 500mg", 4, "2.50")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.reports.GenerateMonthly(ctx, "2025-03", services.GenerateOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.sales.Edit(ctx, sale.ID, []services.LineInput{line("Paracetamol 500mg", 2, "2.50")}, true); err != nil {
		t.Fatal(err)
	}
	m, err := e.reports.Get(ctx, "2025-03")
	if err != nil {
		t.Fatal(err)
	}
	if !m.TotalSales.Equal(dec("5.00")) {
		t.Fatalf("report not refreshed: %s", m.TotalSales)
	}
	if err := e.sales.Delete(ctx, sale.ID, true); err != nil {
		t.Fatal(err)
	}
	if _, err := e.reports.Get(ctx, "2025-03"); !errors.Is(err, services.ErrReportNotFound) {
		t.Fatalf("empty month kept its report: %v", err)
	}
}

func TestAutoGenerateOnLastDay(t *testing.T) {
	e := newEnv(t, "2025-03-31T18:00:00Z")
	ctx := context.Background()
	if _, err := e.sales.Submit(ctx, []services.LineInput{line("Ibuprofen 400mg", 2, "4.75")}); err != nil {
		t.Fatal(err)
	}

	ok, err := e.reports.AutoGenerate(ctx)
	if err != nil || !ok {
		t.Fatalf("auto generate: %v %v", ok, err)
	}
	notes, err := e.store.Notifications.ListForUser(ctx, "u-admin", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Type != domain.NotifyReport || notes[0].Title != "Monthly Report Generated" {
		t.Fatalf("admin notification: %+v", notes)
	}
	if !strings.Contains(notes[0].Message, "2025-03") {
		t.Fatalf("message: %q", notes[0].Message)
	}
	if n, _ := e.store.Notifications.UnreadCount(ctx, "u-alice"); n != 0 {
		t.Fatalf("customer notified: %d", n)
	}

	// already generated: nothing more
	ok, err = e.reports.AutoGenerate(ctx)
	if err != nil || ok {
		t.Fatalf("second run: %v %v", ok, err)
	}

	e.reports.Now = fixed("2025-03-30T18:00:00Z")
	if ok, _ := e.reports.AutoGenerate(ctx); ok {
		t.Fatal("ran before the last day")
	}
}

func TestReportDelete(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	ctx := context.Background()
	if _, err := e.sales.Submit(ctx, []services.LineInput{line("Ibuprofen 400mg", 2, "4.75")}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.reports.GenerateMonthly(ctx, "2025-03", services.GenerateOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := e.reports.Delete(ctx, "2025-03", "2025-01"); !errors.Is(err, services.ErrReportNotFound) {
		t.Fatalf("unknown month: %v", err)
	}
	if ok, _ := e.store.Reports.Exists(ctx, "2025-03"); !ok {
		t.Fatal("bulk delete not rolled back")
	}
	if err := e.reports.Delete(ctx, "2025-03"); err != nil {
		t.Fatal(err)
	}
}

func TestWriteCSVLayout(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	ctx := context.Background()
	if _, err := e.sales.Submit(ctx, []services.LineInput{
		line("Paracetamol 500mg", 3, "2.5"),
		line("Ibuprofen 400mg", 1, "4.75"),
	}); err != nil {
		t.Fatal(err)
	}
	sum, err := e.reports.DailySummary(ctx, "2025-03-14")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := services.WriteCSV(&buf, sum); err != nil {
		t.Fatal(err)
	}
	want := "Date,Total Sales,Most Sold Product\n" +
		"2025-03-14,12.25,Paracetamol 500mg\n" +
		"\n" +
		"Product Name,Quantity,Unit Price,Total Price\n" +
		"Paracetamol 500mg,3,2.50,7.50\n" +
		"Ibuprofen 400mg,1,4.75,4.75\n"
	if buf.String() != want {
		t.Fatalf("csv:\n%s\nwant:\n%s", buf.String(), want)
	}
	if services.DailyCSVName("2025-03-14") != "daily_report_2025-03-14.csv" ||
		services.MonthlyCSVName("2025-03") != "monthly_report_2025-03.csv" {
		t.Fatal("file names")
	}

	if _, err := e.reports.DailySummary(ctx, "2025-03-15"); !errors.Is(err, services.ErrNoSalesData) {
		t.Fatalf("empty day: %v", err)
	}
}
