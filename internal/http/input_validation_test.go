package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestValidationBadInputs(t *testing.T) {
	app, _, deps, _ := newBaseApp(t)
	app.Get("/search", deps.SearchHandler.Search)
	app.Get("/api/v1/availability", deps.InventoryHandler.Check)
	app.Post("/cart", deps.CartHandler.Add)
	app.Post("/orders", deps.OrderHandler.Place)
	app.Get("/cart", deps.CartHandler.View)

	for _, path := range []string{
		"/api/v1/availability",
		"/api/v1/availability?productId=%3Cx%3E",
		"/search?q=%3Cscript%3E",
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s expected 400, got %d", path, resp.StatusCode)
		}
	}

	tok := csrfToken(t, app, "/cart")
	respCart := postForm(t, app, "/cart", url.Values{"productId": {"paracetamol-500"}, "qty": {"1"}}, tok, "")
	sid := cookieValue(respCart, "sid")
	if sid == "" {
		t.Fatal("sid not set after cart add")
	}

	cases := map[string]func(url.Values){
		"phone":   func(v url.Values) { v.Set("phone", "call me") },
		"email":   func(v url.Values) { v.Set("email", "not-an-email") },
		"address": func(v url.Values) { v.Set("address", "") },
		"payment": func(v url.Values) { v.Set("payment_method", "cheque") },
	}
	for name, mutate := range cases {
		form := checkoutForm()
		mutate(form)
		resp := postForm(t, app, "/orders", form, tok, sid)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("bad %s expected 400, got %d body=%s", name, resp.StatusCode, readBody(t, resp))
		}
	}

	// nothing was placed, so the cart still holds the item
	resp := postForm(t, app, "/orders", checkoutForm(), tok, sid)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("valid order expected redirect, got %d", resp.StatusCode)
	}
}

func TestTemplateAutoEscape(t *testing.T) {
	app, db, deps, _ := newBaseApp(t)
	app.Get("/product/:id", deps.ProductHandler.Detail)
	_, err := db.Exec(`
		INSERT INTO products(id,category_id,name,description,price,stock_quantity,in_stock,active)
		VALUES('xss-1','pain-relief','<script>alert(1)</script>','<b>desc</b>',9.99,5,1,1)
	`)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/product/xss-1", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	s := readBody(t, resp)
	if strings.Contains(s, "<script>alert(1)</script>") {
		t.Fatalf("found unescaped script tag in output")
	}
	if !strings.Contains(s, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Fatalf("escaped script not found; output=%s", s)
	}
}
