package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv(EnvJWTSecret, strings.Repeat("s", 32))
	return fromEnv("test")
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg := validConfig(t)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %s, want %s", cfg.Port, DefaultPort)
	}
	if cfg.SlotGranularityMin != 30 || cfg.DayStart != "09:00" || cfg.DayEnd != "18:00" {
		t.Errorf("unexpected availability defaults: %d %s %s", cfg.SlotGranularityMin, cfg.DayStart, cfg.DayEnd)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvJWTSecret, strings.Repeat("k", 40))
	t.Setenv(EnvDayStart, "08:00")
	t.Setenv(EnvDayEnd, "24:00")
	t.Setenv(EnvSlotGranularityMin, "60")
	t.Setenv(EnvSlotIncludeClosing, "true")
	t.Setenv(EnvAllowedOrigins, "http://localhost:3000, https://rooms.example.com")
	t.Setenv(EnvBookingLockTTL, "40s")

	cfg := fromEnv("test")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	opts := cfg.SlotOptions()
	if opts.Granularity != 60 || opts.DayStart != "08:00" || opts.DayEnd != "24:00" || !opts.IncludeClosing {
		t.Errorf("SlotOptions() = %+v", opts)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://rooms.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.BookingLockTTL != 40*time.Second {
		t.Errorf("BookingLockTTL = %s", cfg.BookingLockTTL)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		expect string
	}{
		{name: "bad port", mutate: func(c *Config) { c.Port = "99999" }, expect: "Port"},
		{name: "bad mongo uri", mutate: func(c *Config) { c.MongoURI = "postgres://x" }, expect: "MongoURI"},
		{name: "short secret", mutate: func(c *Config) { c.JWTSecret = "short" }, expect: "JWTSecret"},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, expect: "RequestTimeout"},
		{name: "inverted day", mutate: func(c *Config) { c.DayStart, c.DayEnd = "18:00", "09:00" }, expect: "Availability window"},
		{name: "malformed day start", mutate: func(c *Config) { c.DayStart = "9am" }, expect: "Availability window"},
		{name: "negative granularity", mutate: func(c *Config) { c.SlotGranularityMin = -1 }, expect: "Availability window"},
		{name: "bcrypt cost", mutate: func(c *Config) { c.BcryptCost = 2 }, expect: "BcryptCost"},
		{name: "lock shorter than guarded io", mutate: func(c *Config) { c.BookingLockTTL = 10 * time.Second }, expect: "BookingLockTTL must exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.expect) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.expect)
			}
		})
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:hunter2@db:27017")
	if strings.Contains(got, "hunter2") {
		t.Errorf("password leaked: %s", got)
	}
	if got != "mongodb://***:***@db:27017" {
		t.Errorf("redactMongoURI = %s", got)
	}
}

func TestNormalizePagination(t *testing.T) {
	if NormalizePaginationLimit(0) != 10 {
		t.Error("zero limit should default to 10")
	}
	if NormalizePaginationLimit(1000) != DefaultPaginationLimit {
		t.Error("large limit should be capped")
	}
	if NormalizeOffset(-4) != 0 {
		t.Error("negative offset should clamp to 0")
	}
}
