package handlers

import (
	"time"

	"medicart/internal/log"
	"medicart/internal/services"
	"medicart/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth   *services.AuthService
	Secure bool
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, fields map[string]any) error {
	log.Security(c, "auth.login.fail", fields)
	return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{
		"Err": "Invalid email or password", "CSRFToken": c.Cookies("csrf_"),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c, h.Secure)
	email := c.FormValue("email")
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok {
		return h.loginFailed(c, map[string]any{"email": email, "reason": "bad_format"})
	}
	if !validate.Password(pass) {
		return h.loginFailed(c, map[string]any{"email": email, "reason": "bad_password_format"})
	}

	u, err := h.Auth.Login(c.UserContext(), sid, email, pass)
	if err != nil {
		return h.loginFailed(c, map[string]any{"email": email})
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	if u.IsAdmin() {
		return c.Redirect("/admin")
	}
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c, h.Secure)
	_ = h.Auth.Logout(c.UserContext(), sid)
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.Secure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/v1/auth/token
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	email, ok := validate.Email(req.Email)
	if !ok || !validate.Password(req.Password) {
		log.Security(c, "auth.token.fail", map[string]any{"email": req.Email, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrBadCreds.Error()})
	}
	tok, exp, err := h.Auth.IssueToken(c.UserContext(), email, req.Password)
	if err != nil {
		log.Security(c, "auth.token.fail", map[string]any{"email": email})
		return jsonError(c, "auth.token", err)
	}
	log.Audit(c, "auth.token.issued", map[string]any{"email": email})
	return c.JSON(fiber.Map{"token": tok, "expires_at": exp.UTC().Format(time.RFC3339)})
}
