package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is built once in main and
// passed explicitly to every constructor that needs a setting.
type Config struct {
	AppName     string
	ServerPort  string
	GinMode     string
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	MaxDBConns  int32
	RedisURL    string

	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int

	UploadDir string
	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string

	AuthRatePerMinute int
	AuthRateBurst     int
	PaperCacheTTL     time.Duration

	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	EmailFrom     string
	MailQueueSize int

	// loadErrs holds values Load could not parse; Validate reports them.
	loadErrs []error
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
// Call Validate before using the result.
func Load() *Config {
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		AppName:           getEnv("APP_NAME", "Unisphere"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		MaxDBConns:        int32(env.Int("DB_MAX_CONNS", 20)),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTExpiry:         time.Duration(env.Int("JWT_EXPIRY_HOURS", 168)) * time.Hour,
		BcryptCost:        env.Int("BCRYPT_COST", 10),
		UploadDir:         getEnv("UPLOAD_DIR", "./uploads"),
		AllowedOrigins:    parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		AuthRatePerMinute: env.Int("AUTH_RATE_LIMIT", 30),
		AuthRateBurst:     env.Int("AUTH_RATE_BURST", 10),
		PaperCacheTTL:     time.Duration(env.Int("EXAM_PAPER_CACHE_TTL_SECONDS", 300)) * time.Second,
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPPort:          env.Int("SMTP_PORT", 587),
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPass:          os.Getenv("SMTP_PASS"),
		EmailFrom:         os.Getenv("EMAIL_FROM"),
		MailQueueSize:     env.Int("MAIL_QUEUE_SIZE", 256),
	}
	cfg.loadErrs = env.errs
	return cfg
}

// MailEnabled reports whether welcome emails go out over SMTP.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// Validate checks every setting and returns all problems at once.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.loadErrs...)

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET is required and must be at least 32 bytes"))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY_HOURS must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost))
	}
	if c.MaxDBConns < 1 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be at least 1"))
	}
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		errs = append(errs, fmt.Errorf("SERVER_PORT %q is not a number", c.ServerPort))
	}
	if c.AuthRatePerMinute < 1 || c.AuthRateBurst < 1 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be at least 1"))
	}
	if c.PaperCacheTTL <= 0 {
		errs = append(errs, errors.New("EXAM_PAPER_CACHE_TTL_SECONDS must be positive"))
	}
	if c.MailQueueSize < 1 {
		errs = append(errs, errors.New("MAIL_QUEUE_SIZE must be at least 1"))
	}
	if c.MailEnabled() {
		if c.SMTPPort < 1 || c.SMTPPort > 65535 {
			errs = append(errs, fmt.Errorf("SMTP_PORT %d is out of range", c.SMTPPort))
		}
		if _, err := mail.ParseAddress(c.EmailFrom); err != nil {
			errs = append(errs, errors.New("EMAIL_FROM must be a valid address when SMTP_HOST is set"))
		}
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envReader parses typed variables and remembers every malformed value.
type envReader struct {
	errs []error
}

// Int returns the integer value of key, or fallback when key is unset.
func (r *envReader) Int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s %q is not an integer", key, v))
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
