package handlers_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func checkoutForm() url.Values {
	return url.Values{
		"name":           {"Alice"},
		"email":          {"alice@medicart.test"},
		"phone":          {"+1 555 0100"},
		"address":        {"1 Main St, Springfield"},
		"payment_method": {"cod"},
	}
}

// Cart prices are never trusted; checkout reprices from the catalog.
func TestOrderTotalsRecomputed(t *testing.T) {
	app, db, deps, _ := newBaseApp(t)
	app.Get("/login", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Post("/orders", deps.OrderHandler.Place)

	sid := "sid-tamper"
	if _, err := db.Exec(`INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,CURRENT_TIMESTAMP)`, sid, sid); err != nil {
		t.Fatal(err)
	}
	// paracetamol-500 really costs 2.50
	if _, err := db.Exec(`INSERT INTO cart_items(cart_id, product_id, qty, price_at_add, created_at) VALUES(?,?,?,?,CURRENT_TIMESTAMP)`,
		sid, "paracetamol-500", 2, 1.00); err != nil {
		t.Fatal(err)
	}

	tok := csrfToken(t, app, "/login")
	resp := postForm(t, app, "/orders", checkoutForm(), tok, sid)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect on order, got %d body=%s", resp.StatusCode, readBody(t, resp))
	}
	loc := resp.Header.Get("Location")
	oid := strings.TrimPrefix(loc, "/order/")
	if oid == "" || oid == loc {
		t.Fatalf("unexpected redirect %q", loc)
	}

	ctx := context.Background()
	ord, items, err := deps.Store.Orders.Get(ctx, oid)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !ord.Total.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("order total not recomputed; got %s", ord.Total)
	}
	if len(items) != 1 || !items[0].Price.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("unexpected items: %+v", items)
	}
	qty, err := deps.Store.Inventory.Qty(ctx, "paracetamol-500")
	if err != nil {
		t.Fatal(err)
	}
	if qty != 118 {
		t.Fatalf("stock should drop to 118, got %d", qty)
	}
}

func TestOrderShortfallKeepsStock(t *testing.T) {
	app, db, deps, _ := newBaseApp(t)
	app.Get("/login", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Post("/orders", deps.OrderHandler.Place)

	sid := "sid-short"
	_, _ = db.Exec(`INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,CURRENT_TIMESTAMP)`, sid, sid)
	_, _ = db.Exec(`INSERT INTO cart_items(cart_id, product_id, qty, price_at_add, created_at) VALUES(?,?,?,?,CURRENT_TIMESTAMP)`,
		sid, "paracetamol-500", 1, 2.50)
	_, _ = db.Exec(`INSERT INTO cart_items(cart_id, product_id, qty, price_at_add, created_at) VALUES(?,?,?,?,CURRENT_TIMESTAMP)`,
		sid, "cetirizine-10", 9, 3.20)

	tok := csrfToken(t, app, "/login")
	resp := postForm(t, app, "/orders", checkoutForm(), tok, sid)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for shortfall, got %d", resp.StatusCode)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, "Insufficient stock for Cetirizine") {
		t.Fatalf("shortfall message missing: %s", body)
	}

	ctx := context.Background()
	for id, want := range map[string]int{"paracetamol-500": 120, "cetirizine-10": 5} {
		got, err := deps.Store.Inventory.Qty(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("%s stock changed: got %d want %d", id, got, want)
		}
	}
}
