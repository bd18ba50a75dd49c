package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Inject user if present
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	// Pick up the token the CSRF middleware put into Locals; the cookie is the fallback.
	if tok, _ := c.Locals("CSRFToken").(string); tok != "" {
		data["CSRFToken"] = tok
	} else if _, set := data["CSRFToken"]; !set {
		data["CSRFToken"] = c.Cookies("csrf_")
	}
	return c.Render(tmpl, data)
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}

// ensureSID returns the session cookie, issuing one for first-time visitors.
func ensureSID(c *fiber.Ctx, secure bool) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   secure,
		})
	}
	return sid
}
