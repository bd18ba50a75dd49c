package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"medicart/internal/events"
	"medicart/internal/repos"
	"medicart/internal/services"
)

type env struct {
	store   *repos.Store
	bus     *events.Bus
	sender  *recSender
	inv     *services.InventoryService
	sales   *services.SalesService
	reports *services.ReportService
}

// recSender records outbound alerts.
type recSender struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recSender) Send(_ context.Context, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func fixed(ts string) func() time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func newEnv(t *testing.T, now string) *env {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	e := &env{store: repos.NewStore(db), bus: events.NewBus(), sender: &recSender{}}
	e.inv = services.NewInventoryService(e.store, e.bus)
	e.reports = services.NewReportService(e.store, e.bus)
	e.sales = services.NewSalesService(e.store, e.inv, e.reports, e.bus)
	clk := fixed(now)
	e.inv.Now, e.reports.Now, e.sales.Now = clk, clk, clk
	return e
}

func (e *env) qty(t *testing.T, productID string) int {
	t.Helper()
	n, err := e.store.Inventory.Qty(context.Background(), productID)
	if err != nil {
		t.Fatalf("qty %s: %v", productID, err)
	}
	return n
}

func TestNextQuantity(t *testing.T) {
	cases := []struct {
		current int
		a       services.Adjustment
		want    int
	}{
		{5, services.Adjustment{Qty: 3, Mode: services.ModeSale}, 2},
		{2, services.Adjustment{Qty: 3, Mode: services.ModeSale}, 0},
		{0, services.Adjustment{Qty: 0, Mode: services.ModeSale}, 0},
		{2, services.Adjustment{Qty: 1, Original: 3, Mode: services.ModeEdit}, 4},
		{2, services.Adjustment{Qty: 0, Original: 3, Mode: services.ModeEdit}, 5},
		{1, services.Adjustment{Qty: 9, Original: 3, Mode: services.ModeEdit}, 0},
	}
	for _, c := range cases {
		if got := services.NextQuantity(c.current, c.a); got != c.want {
			t.Errorf("NextQuantity(%d, %+v) = %d, want %d", c.current, c.a, got, c.want)
		}
	}

	// max(0, q - d) and max(0, q + (o - n)) over a small grid
	for q := 0; q <= 6; q++ {
		for d := 0; d <= 6; d++ {
			want := q - d
			if want < 0 {
				want = 0
			}
			if got := services.NextQuantity(q, services.Adjustment{Qty: d}); got != want {
				t.Fatalf("sale q=%d d=%d: got %d want %d", q, d, got, want)
			}
			for o := 0; o <= 3; o++ {
				want := q + (o - d)
				if want < 0 {
					want = 0
				}
				if got := services.NextQuantity(q, services.Adjustment{Qty: d, Original: o, Mode: services.ModeEdit}); got != want {
					t.Fatalf("edit q=%d o=%d n=%d: got %d want %d", q, o, d, got, want)
				}
			}
		}
	}
}

func TestInventoryService_CheckAvailability(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	ctx := context.Background()

	for id, want := range map[string]string{
		"paracetamol-500": "IN_STOCK",
		"cetirizine-10":   "IN_STOCK",
		"vitamin-c-1000":  "OUT_OF_STOCK",
		"no-such-product": "OUT_OF_STOCK",
	} {
		a, err := e.inv.CheckAvailability(ctx, id)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if a.Status != want {
			t.Errorf("%s: want %s, got %+v", id, want, a)
		}
	}

	if err := e.inv.SetStock(ctx, "cetirizine-10", 2); err != nil {
		t.Fatal(err)
	}
	a, _ := e.inv.CheckAvailability(ctx, "cetirizine-10")
	if a.Status != "LOW_STOCK" || a.Qty != 2 {
		t.Fatalf("want LOW_STOCK(2), got %+v", a)
	}
}

func TestInventoryService_CheckAllAggregatesPerName(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	checks, err := e.inv.CheckAll(context.Background(), []services.LineInput{
		{Product: "Cetirizine 10mg", Quantity: 3},
		{Product: "Cetirizine 10mg", Quantity: 3},
		{Product: "Unknown Syrup", Quantity: 1},
		{Product: "", Quantity: 9},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(checks) != 2 {
		t.Fatalf("want 2 checks, got %+v", checks)
	}
	if c := checks[0]; c.Requested != 6 || c.Available != 5 || c.OK {
		t.Fatalf("cetirizine check: %+v", c)
	}
	if c := checks[1]; c.Found || c.Available != 0 || c.OK {
		t.Fatalf("unknown check: %+v", c)
	}
}

func TestInventoryService_AdjustPublishesAfterCommit(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	ch, cancel := e.bus.Subscribe(4)
	defer cancel()

	got, err := e.inv.Adjust(context.Background(), services.Adjustment{Product: "Ibuprofen 400mg", Qty: 10})
	if err != nil {
		t.Fatal(err)
	}
	if got.From != 60 || got.To != 50 {
		t.Fatalf("change: %+v", got)
	}
	select {
	case ev := <-ch:
		if ev.Type != events.StockUpdated || ev.Data["to"] != 50 {
			t.Fatalf("event: %+v", ev)
		}
	default:
		t.Fatal("no stock.updated event")
	}

	if _, err := e.inv.Adjust(context.Background(), services.Adjustment{Product: "Nope", Qty: 1}); err == nil {
		t.Fatal("expected not found")
	}
}
