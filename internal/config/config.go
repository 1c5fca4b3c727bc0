package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Transport
	TelegramToken      string
	WebhookSecret      string // Standard Webhooks secret (whsec_...) for /events and outbound posts
	WebhookOutboundURL string

	// Text generation
	GeminiAPIKey      string
	GeminiModel       string
	GenerationTimeout time.Duration

	// Check-ins
	CheckinScanEvery      time.Duration
	CheckinDailyInterval  time.Duration
	CheckinWeeklyInterval time.Duration
	CheckinWeeklyDay      time.Weekday
	CheckinWeeklyHour     int
	CheckinActiveWindow   time.Duration
	CheckinConcurrency    int

	// Admin API
	AdminJWTSecret string
	AdminJWTExpiry time.Duration

	// Observability (optional)
	SentryDSN string

	// Storage for progress exports (S3-compatible, optional)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for S3-compatible services (MinIO, R2, etc.)
	S3PresignExpiry time.Duration // Expiry of export download links
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Execution Coach"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:    envString("PORT", "10000"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/coach.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"),

		// Transport
		TelegramToken:      envString("TELEGRAM_TOKEN", ""),
		WebhookSecret:      envString("WEBHOOK_SECRET", ""),
		WebhookOutboundURL: envString("WEBHOOK_OUTBOUND_URL", ""),

		// Text generation (no key means canned fallback replies only)
		GeminiAPIKey:      envString("GEMINI_API_KEY", ""),
		GeminiModel:       envString("GEMINI_MODEL", "gemini-2.5-flash"),
		GenerationTimeout: envDuration("GENERATION_TIMEOUT", 25*time.Second),

		// Check-ins
		CheckinScanEvery:      envDuration("CHECKIN_SCAN_EVERY", 5*time.Minute),
		CheckinDailyInterval:  envDuration("CHECKIN_DAILY_INTERVAL", 20*time.Hour),
		CheckinWeeklyInterval: envDuration("CHECKIN_WEEKLY_INTERVAL", 144*time.Hour), // 6 days
		CheckinWeeklyDay:      time.Weekday(envInt("CHECKIN_WEEKLY_DAY", int(time.Sunday))),
		CheckinWeeklyHour:     envInt("CHECKIN_WEEKLY_HOUR", 10),
		CheckinActiveWindow:   envDuration("CHECKIN_ACTIVE_WINDOW", 7*24*time.Hour),
		CheckinConcurrency:    envInt("CHECKIN_CONCURRENCY", 4),

		// Admin API
		AdminJWTSecret: envString("ADMIN_JWT_SECRET", ""),
		AdminJWTExpiry: envDuration("ADMIN_JWT_EXPIRY", 24*time.Hour),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage (exports are disabled without a bucket)
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 24*time.Hour),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures a production deployment can actually reach its users.
// Development allows running with only the webhook endpoint for local testing.
func validateProduction(cfg *Config) {
	if cfg.TelegramToken == "" && cfg.WebhookSecret == "" {
		slog.Error("production deployment requires TELEGRAM_TOKEN or WEBHOOK_SECRET",
			"hint", "set APP_ENV=development to run without a transport")
		os.Exit(1)
	}
	if cfg.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, replies will use fallback coaching text")
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ExportsEnabled reports whether an export bucket is configured.
func (c *Config) ExportsEnabled() bool {
	return c.S3Bucket != ""
}

// CheckinsEnabled lets operators switch the scheduler off (CHECKINS_ENABLED=false).
func (c *Config) CheckinsEnabled() bool {
	return envBool("CHECKINS_ENABLED", true)
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
// Safe to expose in admin responses and logs.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName: c.AppName,
		AppEnv:  c.AppEnv,
		Port:    c.Port,

		DBDriver: c.DBDriver,

		GeminiModel:       c.GeminiModel,
		GenerationTimeout: c.GenerationTimeout,

		CheckinScanEvery:      c.CheckinScanEvery,
		CheckinDailyInterval:  c.CheckinDailyInterval,
		CheckinWeeklyInterval: c.CheckinWeeklyInterval,
		CheckinWeeklyDay:      c.CheckinWeeklyDay,
		CheckinWeeklyHour:     c.CheckinWeeklyHour,
		CheckinActiveWindow:   c.CheckinActiveWindow,
		CheckinConcurrency:    c.CheckinConcurrency,

		S3Region:   c.S3Region,
		S3Bucket:   c.S3Bucket,
		S3Endpoint: c.S3Endpoint,
	}
}
