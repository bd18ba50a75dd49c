package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"medicart/internal/services"
)

func contact() services.Contact {
	return services.Contact{
		Name: "Tester", Email: "t@example.com", Phone: "+1 555 010 2000",
		Address: "12 Main St, Springfield", PaymentMethod: "upi",
	}
}

func TestOrderFlow_AddCartCheckout(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	ctx := context.Background()
	cartSvc := services.NewCartService(e.store.Carts, e.store.Products)
	orderSvc := services.NewOrderService(e.store, e.inv, e.sender)

	sid := "test-session"
	if err := cartSvc.Add(ctx, sid, "paracetamol-500", 2); err != nil {
		t.Fatal(err)
	}
	// discounted product is priced at its sale price
	if err := cartSvc.Add(ctx, sid, "bandage-roll", 1); err != nil {
		t.Fatal(err)
	}
	cv, err := cartSvc.View(ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	if len(cv.Items) != 2 || !cv.Total.Equal(dec("9.50")) {
		t.Fatalf("bad cart view: %+v", cv)
	}

	oid, err := orderSvc.Place(ctx, sid, contact())
	if err != nil {
		t.Fatal(err)
	}
	o, items, err := orderSvc.Get(ctx, oid)
	if err != nil {
		t.Fatal(err)
	}
	if !o.Total.Equal(dec("9.50")) || len(items) != 2 || o.PaymentMethod != "upi" || o.Status != "PLACED" {
		t.Fatalf("order: %+v %+v", o, items)
	}
	if got := e.qty(t, "paracetamol-500"); got != 118 {
		t.Fatalf("paracetamol stock %d", got)
	}
	cv, _ = cartSvc.View(ctx, sid)
	if len(cv.Items) != 0 {
		t.Fatalf("cart not cleared: %+v", cv.Items)
	}
	if e.sender.count() != 1 || !strings.Contains(e.sender.msgs[0], oid) {
		t.Fatalf("order alert: %v", e.sender.msgs)
	}

	if _, err := orderSvc.Place(ctx, sid, contact()); !errors.Is(err, services.ErrEmptyCart) {
		t.Fatalf("second checkout: %v", err)
	}
}

func TestOrderFlow_ShortfallKeepsCart(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	ctx := context.Background()
	cartSvc := services.NewCartService(e.store.Carts, e.store.Products)
	orderSvc := services.NewOrderService(e.store, e.inv, e.sender)

	sid := "short-session"
	_ = cartSvc.Add(ctx, sid, "ibuprofen-400", 1)
	_ = cartSvc.Add(ctx, sid, "cetirizine-10", 9)

	_, err := orderSvc.Place(ctx, sid, contact())
	var short *services.InsufficientStockError
	if !errors.As(err, &short) || short.Product != "Cetirizine 10mg" {
		t.Fatalf("want shortfall, got %v", err)
	}
	if got := e.qty(t, "ibuprofen-400"); got != 60 {
		t.Fatalf("ibuprofen moved: %d", got)
	}
	cv, _ := cartSvc.View(ctx, sid)
	if len(cv.Items) != 2 {
		t.Fatalf("cart lost items: %+v", cv.Items)
	}
}

func TestOrderContactValidation(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	orderSvc := services.NewOrderService(e.store, e.inv, e.sender)
	c := contact()
	c.PaymentMethod = "bitcoin"
	var ve *services.ValidationError
	if _, err := orderSvc.Place(context.Background(), "s", c); !errors.As(err, &ve) || ve.Field != "payment_method" {
		t.Fatalf("payment method: %v", err)
	}
	c = contact()
	c.Address = ""
	if _, err := orderSvc.Place(context.Background(), "s", c); !errors.As(err, &ve) || ve.Field != "address" {
		t.Fatalf("address: %v", err)
	}
}
