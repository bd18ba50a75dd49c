package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DBDriver     string // sqlite | pgx
	DBDSN        string
	MediaDir     string
	TemplatesDir string
	LogFile      string

	// JWTSecret signs bearer tokens for the owner JSON API.
	JWTSecret string
	TokenTTL  time.Duration

	WhatsAppAPIKey        string
	WhatsAppPhone         string
	WhatsAppPhoneNumberID string
	WhatsAppURL           string

	ReportCheckInterval time.Duration
	RateLimitMax        int
	CORSOrigins         string
	CookieSecure        bool
}

func Load() Config {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		DBDriver:     strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:        getEnv("DB_DSN", "medicart.db"), // sqlite file in project root
		MediaDir:     getEnv("MEDIA_DIR", "./web/media"),
		TemplatesDir: getEnv("TEMPLATES_DIR", "./web/templates"),
		LogFile:      getEnv("LOG_FILE", "./medicart.log"),

		JWTSecret: getEnv("JWT_SECRET", "dev_secret"),
		TokenTTL:  getDuration("TOKEN_TTL", 24*time.Hour),

		WhatsAppAPIKey:        os.Getenv("WHATSAPP_API_KEY"),
		WhatsAppPhone:         os.Getenv("WHATSAPP_PHONE"),
		WhatsAppPhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		WhatsAppURL:           getEnv("WHATSAPP_URL", "https://graph.facebook.com/v18.0"),

		ReportCheckInterval: getDuration("REPORT_CHECK_INTERVAL", 24*time.Hour),
		RateLimitMax:        getInt("RATE_LIMIT_MAX", 60),
		CORSOrigins:         getEnv("CORS_ORIGINS", "*"),
		CookieSecure:        getEnv("COOKIE_SECURE", "false") == "true",
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "pgx" {
		log.Printf("[config] unknown DB_DRIVER %q, using sqlite", cfg.DBDriver)
		cfg.DBDriver = "sqlite"
	}
	if cfg.JWTSecret == "dev_secret" {
		log.Printf("[config] JWT_SECRET not set; using development secret")
	}

	log.Printf("[config] PORT=%s DB_DRIVER=%s MEDIA_DIR=%s LOG_FILE=%s REPORT_CHECK_INTERVAL=%s",
		cfg.Port, cfg.DBDriver, cfg.MediaDir, cfg.LogFile, cfg.ReportCheckInterval)
	return cfg
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] invalid %s value %q, defaulting to %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] invalid %s value %q, defaulting to %s", key, v, fallback)
		return fallback
	}
	return d
}
