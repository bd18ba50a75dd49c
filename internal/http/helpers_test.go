package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"medicart/internal/config"
	"medicart/internal/http/handlers"
	"medicart/internal/repos"
	"medicart/internal/services"
)

func testConfig() config.Config {
	return config.Config{
		DBDriver:     "sqlite",
		DBDSN:        ":memory:",
		MediaDir:     "../../web/media",
		TemplatesDir: "../../web/templates",
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
		RateLimitMax: 1000,
		CORSOrigins:  "*",
	}
}

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newBaseApp mirrors the production middleware that handlers rely on. Tests
// register only the routes they exercise.
func newBaseApp(t *testing.T) (*fiber.App, *sqlx.DB, *handlers.Deps, *services.AuthService) {
	t.Helper()
	db := openTestDB(t)
	cfg := testConfig()
	authSvc := services.NewAuthService(repos.NewUserRepo(db), cfg.JWTSecret, cfg.TokenTTL)

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(requestid.New())
	app.Use(limiter.New(limiter.Config{Max: 100, Expiration: 0}))
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})

	return app, db, handlers.NewDeps(db, cfg, authSvc), authSvc
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// csrfToken fetches a page through the csrf middleware and returns the issued token.
func csrfToken(t *testing.T, app *fiber.App, path string) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	tok := cookieValue(resp, "csrf_")
	if tok == "" {
		t.Fatalf("no csrf cookie from %s", path)
	}
	return tok
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values, csrfTok, sid string) *http.Response {
	t.Helper()
	form.Set("csrf", csrfTok)
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs swaps the std logger output for the duration of fn and parses
// every JSON line it wrote.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	mu.Lock()
	raw := buf.String()
	mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
