package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"medicart/internal/services"
)

func TestTokenRoundTrip(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	ctx := context.Background()
	auth := services.NewAuthService(e.store.Users, "test-secret", time.Hour)
	auth.Now = fixed("2025-03-14T10:00:00Z")

	if _, _, err := auth.IssueToken(ctx, "admin@medicart.test", "wrong-pass"); !errors.Is(err, services.ErrBadCreds) {
		t.Fatalf("bad creds: %v", err)
	}
	tok, exp, err := auth.IssueToken(ctx, "admin@medicart.test", "Passw0rd!")
	if err != nil {
		t.Fatal(err)
	}
	if !exp.Equal(time.Date(2025, 3, 14, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("expiry %s", exp)
	}
	u, err := auth.ParseToken(ctx, tok)
	if err != nil || !u.IsAdmin() || u.ID != "u-admin" {
		t.Fatalf("parse: %+v %v", u, err)
	}

	other := services.NewAuthService(e.store.Users, "another-secret", time.Hour)
	other.Now = auth.Now
	if _, err := other.ParseToken(ctx, tok); !errors.Is(err, services.ErrInvalidToken) {
		t.Fatalf("foreign signature: %v", err)
	}

	auth.Now = fixed("2025-03-14T12:00:00Z")
	if _, err := auth.ParseToken(ctx, tok); !errors.Is(err, services.ErrInvalidToken) {
		t.Fatalf("expired token: %v", err)
	}
}

func TestCustomerDeleteKeepsOrders(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	ctx := context.Background()
	cust := services.NewCustomerService(e.store)

	if err := e.store.Users.BindSession(ctx, "sid-alice", "u-alice"); err != nil {
		t.Fatal(err)
	}
	cartSvc := services.NewCartService(e.store.Carts, e.store.Products)
	orderSvc := services.NewOrderService(e.store, e.inv, e.sender)
	_ = cartSvc.Add(ctx, "sid-alice", "ibuprofen-400", 1)
	oid, err := orderSvc.Place(ctx, "sid-alice", contact())
	if err != nil {
		t.Fatal(err)
	}

	var ve *services.ValidationError
	if err := cust.Delete(ctx, "u-admin"); !errors.As(err, &ve) {
		t.Fatalf("admin deleted: %v", err)
	}
	if err := cust.Delete(ctx, "u-alice"); err != nil {
		t.Fatal(err)
	}
	if err := cust.Delete(ctx, "u-alice"); !errors.Is(err, services.ErrUserNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	o, _, err := orderSvc.Get(ctx, oid)
	if err != nil || o.Status != "CANCELED" {
		t.Fatalf("order after delete: %+v %v", o, err)
	}
}

func TestFlags(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	ctx := context.Background()
	flags := services.NewFlagService(e.store.Flags)
	if on, _ := flags.Enabled(ctx, "wishlist"); !on {
		t.Fatal("wishlist should start enabled")
	}
	if err := flags.Set(ctx, "wishlist", false); err != nil {
		t.Fatal(err)
	}
	if on, _ := flags.Enabled(ctx, "wishlist"); on {
		t.Fatal("wishlist still enabled")
	}
	if err := flags.Set(ctx, "teleport", true); !errors.Is(err, services.ErrFlagNotFound) {
		t.Fatalf("unknown flag: %v", err)
	}
}
