package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"medicart/internal/http/handlers"
)

func TestAdminGuardRequiresAdmin(t *testing.T) {
	app, _, deps, authSvc := newBaseApp(t)
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("anonymous should be redirected to login, got %d", resp.StatusCode)
	}

	ctx := context.Background()
	if err := deps.Store.Users.BindSession(ctx, "sid-user", "u-alice"); err != nil {
		t.Fatal(err)
	}
	reqUser := httptest.NewRequest("GET", "/admin", nil)
	reqUser.AddCookie(&http.Cookie{Name: "sid", Value: "sid-user"})
	respUser, err := app.Test(reqUser)
	if err != nil {
		t.Fatal(err)
	}
	if respUser.StatusCode != http.StatusForbidden {
		t.Fatalf("expected forbidden for non-admin, got %d", respUser.StatusCode)
	}

	if err := deps.Store.Users.BindSession(ctx, "sid-admin", "u-admin"); err != nil {
		t.Fatal(err)
	}
	reqAdmin := httptest.NewRequest("GET", "/admin", nil)
	reqAdmin.AddCookie(&http.Cookie{Name: "sid", Value: "sid-admin"})
	respAdmin, err := app.Test(reqAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if respAdmin.StatusCode != http.StatusOK {
		t.Fatalf("admin expected 200, got %d", respAdmin.StatusCode)
	}
}
