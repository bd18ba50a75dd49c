package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"medicart/internal/domain"
	applog "medicart/internal/log"
	"medicart/internal/services"
)

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(c.UserContext(), sid)
		if err != nil || !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"sid": sid})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(c.UserContext(), sid)
		if err != nil || u == nil {
			return c.Redirect("/login")
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireBearerAdmin guards the owner JSON API with a signed token.
func RequireBearerAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || raw == "" {
			applog.Security(c, "access.denied.api", map[string]any{"reason": "missing_token"})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}
		u, err := auth.ParseToken(c.UserContext(), raw)
		if err != nil {
			applog.Security(c, "access.denied.api", map[string]any{"reason": "bad_token"})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.api", map[string]any{"reason": "not_admin", "user": u.ID})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin only"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireFlag hides a storefront feature while its flag is off.
func RequireFlag(flags *services.FlagService, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		on, err := flags.Enabled(c.UserContext(), name)
		if err != nil {
			applog.Error(c, "flag.lookup.fail", err, map[string]any{"flag": name})
		}
		if !on {
			return notFound(c, "Page not found")
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
