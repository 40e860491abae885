package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Addr:               ":8080",
		DatabaseURL:        "postgres://localhost/hrportal",
		JWTSecret:          "secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    720 * time.Hour,
		Environment:        "development",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 60,
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = "  "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestValidateProductionRequiresSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "production"
	cfg.JWTSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing JWT_SECRET in production")
	}

	cfg.JWTSecret = "secret"
	cfg.DataEncryptionKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing DATA_ENCRYPTION_KEY in production")
	}
}

func TestValidateTokenTTLOrder(t *testing.T) {
	cfg := validConfig()
	cfg.RefreshTokenTTL = cfg.AccessTokenTTL
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when refresh TTL does not exceed access TTL")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
