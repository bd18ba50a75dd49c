// Package server assembles the fiber app: middleware, static files and routes.
package server

import (
	"errors"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"medicart/internal/config"
	"medicart/internal/http/handlers"
	applog "medicart/internal/log"
	"medicart/internal/repos"
	"medicart/internal/services"
)

const friendlyError = "Something went wrong. Please try again."

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	// Log and show a friendly message
	applog.Error(c, "server.error", err, map[string]any{"status": code})
	msg := friendlyError
	if code == fiber.StatusRequestEntityTooLarge {
		msg = "Request body too large"
	}
	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	// Avoid leaking internals; best-effort render
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// isAPI marks the bearer-token JSON API, which carries no cookies to protect.
func isAPI(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

// New builds the app. Callers start the scheduler with deps.Reports.
func New(cfg config.Config, db *sqlx.DB) (*fiber.App, *handlers.Deps) {
	authSvc := services.NewAuthService(repos.NewUserRepo(db), cfg.JWTSecret, cfg.TokenTTL)
	authH := &handlers.AuthHandler{Auth: authSvc, Secure: cfg.CookieSecure}

	// Templates & app
	engine := html.New(cfg.TemplatesDir, ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: errorHandler,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach user to context if logged in (for templates/headers)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	perMinute := cfg.RateLimitMax
	if perMinute <= 0 {
		perMinute = 60
	}
	app.Use(limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/") || p == "/admin/events"
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		Next:           isAPI,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			formTok := c.FormValue("csrf")
			applog.Security(c, "csrf.fail", map[string]any{"form": formTok})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	staticDir := filepath.Join(filepath.Dir(filepath.Clean(cfg.TemplatesDir)), "static")
	log.Printf("[static] /static -> %s", staticDir)
	log.Printf("[static] /media  -> %s", mediaDir)

	app.Static("/static", staticDir)
	app.Get("/media/*", mediaHandler(mediaDir))

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc)
	routes(app, deps, authSvc, authH, cfg)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		if isAPI(c) {
			return c.Status(404).JSON(fiber.Map{"error": "not found"})
		}
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})
	return app, deps
}

// mediaHandler serves product photos and refuses anything that could walk
// out of dir.
func mediaHandler(dir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// Block encoded traversal attempts as well as raw .. or null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(dir, clean), true)
	}
}

func routes(app *fiber.App, deps *handlers.Deps, authSvc *services.AuthService, authH *handlers.AuthHandler, cfg config.Config) {
	// Public pages
	app.Get("/", deps.CategoryHandler.Home)
	app.Get("/search", limiter.New(limiter.Config{Max: 20, Expiration: time.Minute}), deps.SearchHandler.Search)
	app.Get("/category/:id", deps.CategoryHandler.List)

	// Product pages
	app.Get("/product", func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	})
	app.Get("/product/:id", deps.ProductHandler.Detail)

	// Medicine requests
	app.Get("/requests/new", deps.RequestHandler.Form)
	app.Post("/requests", limiter.New(limiter.Config{Max: 5, Expiration: 10 * time.Minute}), deps.RequestHandler.Create)

	// Cart & Orders
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Post("/cart/remove", deps.CartHandler.Remove)
	app.Get("/checkout", deps.OrderHandler.Checkout)
	app.Post("/orders", deps.OrderHandler.Place)
	app.Get("/order/:id", deps.OrderHandler.View)
	app.Get("/orders", handlers.RequireUser(authSvc), deps.OrderHandler.History)

	// Wishlist
	wish := app.Group("/wishlist", handlers.RequireFlag(deps.Flags, "wishlist"))
	wish.Get("/", deps.WishlistHandler.List)
	wish.Post("/", deps.WishlistHandler.Save)
	wish.Post("/delete", deps.WishlistHandler.Unsave)

	// Notifications
	notes := app.Group("/notifications", handlers.RequireUser(authSvc))
	notes.Get("/", deps.NotificationHandler.List)
	notes.Post("/read-all", deps.NotificationHandler.MarkAllRead)
	notes.Post("/:id/read", deps.NotificationHandler.MarkRead)

	// Auth routes (login throttled)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// API
	api := app.Group("/api/v1", cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	availLimiter := limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Get("/availability", availLimiter, handlers.RequireFlag(deps.Flags, "stockStatus"), deps.InventoryHandler.Check)
	api.Get("/flags", deps.AdminHandler.APIFlags)
	api.Post("/requests", limiter.New(limiter.Config{Max: 5, Expiration: 10 * time.Minute}), deps.RequestHandler.APICreate)
	api.Post("/auth/token", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.token.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts"})
		},
	}), authH.Token)

	owner := api.Group("/owner", handlers.RequireBearerAdmin(authSvc))
	owner.Get("/sales", deps.SalesHandler.APIList)
	owner.Post("/sales", deps.SalesHandler.APISubmit)
	owner.Post("/sales/check", deps.SalesHandler.APICheck)
	owner.Get("/sales/:id", deps.SalesHandler.APIGet)
	owner.Put("/sales/:id", deps.SalesHandler.APIEdit)
	owner.Delete("/sales/:id", deps.SalesHandler.APIDelete)
	owner.Get("/reports", deps.ReportHandler.APIList)
	owner.Get("/reports/daily", deps.ReportHandler.APIDaily)
	owner.Get("/reports/:month", deps.ReportHandler.APIGet)
	owner.Post("/reports/:month/generate", deps.ReportHandler.APIGenerate)
	owner.Delete("/reports/:month", deps.ReportHandler.APIDelete)
	owner.Get("/requests", deps.RequestHandler.APIList)
	owner.Put("/requests/:id/status", deps.RequestHandler.APIUpdateStatus)
	owner.Get("/notifications", deps.NotificationHandler.APIList)
	owner.Post("/notifications/:id/read", deps.NotificationHandler.APIMarkRead)
	owner.Put("/flags/:name", deps.AdminHandler.APISetFlag)

	// Admin
	adminH := deps.AdminHandler
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", adminH.Dashboard)
	admin.Get("/orders", adminH.OrdersPage)
	admin.Post("/orders/:id/status", adminH.UpdateOrderStatus)
	admin.Get("/inventory", adminH.Inventory)
	admin.Post("/inventory", adminH.UpdateInventory)
	admin.Get("/users", adminH.UsersPage)
	admin.Post("/users/:id/delete", adminH.DeleteUser)
	admin.Get("/flags", adminH.FlagsPage)
	admin.Post("/flags/:name", adminH.ToggleFlag)
	admin.Get("/products", adminH.ProductsPage)
	admin.Get("/products/new", adminH.NewProduct)
	admin.Post("/products", adminH.CreateProduct)
	admin.Get("/products/:id/edit", adminH.EditProduct)
	admin.Post("/products/:id", adminH.UpdateProduct)

	admin.Get("/sales", deps.SalesHandler.Page)
	admin.Post("/sales", deps.SalesHandler.Submit)
	admin.Get("/sales/:id/edit", deps.SalesHandler.EditForm)
	admin.Post("/sales/:id", deps.SalesHandler.Edit)
	admin.Post("/sales/:id/delete", deps.SalesHandler.Delete)

	admin.Get("/reports", deps.ReportHandler.Page)
	admin.Post("/reports", deps.ReportHandler.Generate)
	admin.Post("/reports/delete", deps.ReportHandler.Delete)
	admin.Get("/reports/daily/export", deps.ReportHandler.DailyExport)
	admin.Get("/reports/:month", deps.ReportHandler.Detail)
	admin.Get("/reports/:month/export", deps.ReportHandler.Export)

	admin.Get("/requests", deps.RequestHandler.List)
	admin.Get("/requests/:id", deps.RequestHandler.Detail)
	admin.Post("/requests/:id/status", deps.RequestHandler.UpdateStatus)
	admin.Post("/requests/:id/reminder", deps.RequestHandler.Reminder)
	admin.Post("/unavailable/status", deps.RequestHandler.UnavailableStatus)

	admin.Get("/events", deps.EventsHandler.Stream)
}
