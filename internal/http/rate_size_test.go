package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func TestRateLimits(t *testing.T) {
	app, _, deps, _ := newBaseApp(t)
	app.Get("/search", limiter.New(limiter.Config{Max: 3, Expiration: time.Second}), deps.SearchHandler.Search)
	app.Get("/api/v1/availability", limiter.New(limiter.Config{Max: 3, Expiration: time.Second}), deps.InventoryHandler.Check)

	for _, path := range []string{"/api/v1/availability?productId=paracetamol-500", "/search?q=paracetamol"} {
		for i := 0; i < 4; i++ {
			resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
			if err != nil {
				t.Fatal(err)
			}
			if i < 3 && resp.StatusCode == http.StatusTooManyRequests {
				t.Fatalf("%s hit rate limit too early at %d", path, i)
			}
			if i == 3 && resp.StatusCode != http.StatusTooManyRequests {
				t.Fatalf("%s expected 429 after limit, got %d", path, resp.StatusCode)
			}
		}
	}
}

func TestBodySizeLimit(t *testing.T) {
	app, _, deps, _ := newBaseApp(t)
	app.Server().MaxRequestBodySize = 1 << 20
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	tok := csrfToken(t, app, "/cart")

	oversize := bytes.Repeat([]byte("A"), (1<<20)+10)
	req := httptest.NewRequest("POST", "/cart", bytes.NewReader(oversize))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
	resp, err := app.Test(req, -1)
	// app.Test surfaces the fasthttp read error instead of a response
	if err != nil {
		if strings.Contains(err.Error(), "body size exceeds") || strings.Contains(err.Error(), "too large") {
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversize, got %d body=%s", resp.StatusCode, readBody(t, resp))
	}
}
