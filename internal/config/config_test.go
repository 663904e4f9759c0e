package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		AppEnv:         "dev",
		HTTPAddr:       ":8080",
		MetricsAddr:    ":9090",
		Env:            "prod",
		AdminAPIKey:    "admin-123",
		StoreType:      "memory",
		RateLimitPerIP: 300,
		LogLevel:       "info",
	}
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateStoreType(t *testing.T) {
	c := validConfig()
	c.StoreType = "redis"
	err := c.Validate()
	if err == nil {
		t.Fatal("expected error for unknown store type")
	}
	if !strings.Contains(err.Error(), "STORE_TYPE") {
		t.Errorf("error should name the field, got %q", err)
	}
}

func TestValidatePostgresRequiresDSN(t *testing.T) {
	c := validConfig()
	c.StoreType = "postgres"
	c.DatabaseDSN = ""
	if err := c.Validate(); err == nil {
		t.Fatal("expected error when DB_DSN is empty for postgres store")
	}
}

func TestValidateFileRequiresPath(t *testing.T) {
	c := validConfig()
	c.StoreType = "file"
	c.SegmentsFile = ""
	if err := c.Validate(); err == nil {
		t.Fatal("expected error when SEGMENTS_FILE is empty for file store")
	}
}

func TestValidateRejectsDefaultKeyInProd(t *testing.T) {
	c := validConfig()
	c.AppEnv = "prod"
	if err := c.Validate(); err == nil {
		t.Fatal("expected default admin key to be rejected in prod")
	}
}

func TestValidateRateLimit(t *testing.T) {
	c := validConfig()
	c.RateLimitPerIP = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for non-positive rate limit")
	}
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.StoreType != "memory" {
		t.Errorf("StoreType default = %q, want memory", c.StoreType)
	}
	if c.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr default = %q, want :8080", c.HTTPAddr)
	}
}
