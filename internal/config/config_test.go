package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		ServerPort:        "8080",
		DatabaseURL:       "postgres://localhost/exam",
		MaxDBConns:        4,
		JWTSecret:         strings.Repeat("s", 32),
		JWTExpiry:         168 * time.Hour,
		BcryptCost:        10,
		AuthRatePerMinute: 30,
		AuthRateBurst:     10,
		PaperCacheTTL:     time.Minute,
		MailQueueSize:     16,
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = ""
	cfg.JWTSecret = "short"
	cfg.BcryptCost = 99

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"DATABASE_URL", "JWT_SECRET", "BCRYPT_COST"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidate_SMTPRequiresSender(t *testing.T) {
	cfg := validConfig()
	cfg.SMTPHost = "smtp.example.com"
	cfg.SMTPPort = 587

	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "EMAIL_FROM") {
		t.Fatalf("expected EMAIL_FROM error, got %v", err)
	}

	cfg.EmailFrom = "Exams <noreply@example.com>"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseOrigins(t *testing.T) {
	if got := parseOrigins(""); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	got := parseOrigins(" https://a.example , ,https://b.example")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", got)
	}
}

func TestLoad_MalformedNumbersFailValidation(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/exam")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("BCRYPT_COST", "abc")
	t.Setenv("JWT_EXPIRY_HOURS", "7d")

	cfg := Load()
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want fallback 10", cfg.BcryptCost)
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for malformed values")
	}
	for _, want := range []string{`BCRYPT_COST "abc"`, `JWT_EXPIRY_HOURS "7d"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoad_WellFormedNumbers(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/exam")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("BCRYPT_COST", "12")

	cfg := Load()
	if cfg.BcryptCost != 12 {
		t.Fatalf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
