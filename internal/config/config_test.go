package config

import (
	"strings"
	"testing"
)

func TestValidate_DevWithoutKey(t *testing.T) {
	cfg := &Config{Env: "development", RequestTimeout: 30}
	if err := cfg.Validate(); err != nil {
		t.Errorf("development mode should not require a signing key: %v", err)
	}
}

func TestValidate_ProductionRequiresKey(t *testing.T) {
	cfg := &Config{Env: "production", RequestTimeout: 30}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for production without signing key")
	}
	if !strings.Contains(err.Error(), "AUTH_SIGNING_KEY") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_BadHexKey(t *testing.T) {
	cfg := &Config{Env: "production", RequestTimeout: 30, AuthSigningKey: "not-hex"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-hex key")
	}
}

func TestValidate_WrongKeyLength(t *testing.T) {
	cfg := &Config{Env: "production", RequestTimeout: 30, AuthSigningKey: "abcd"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestValidate_GoodKey(t *testing.T) {
	key := strings.Repeat("ab", 32)
	cfg := &Config{Env: "production", RequestTimeout: 30, AuthSigningKey: key}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
	if len(cfg.SigningKey()) != 32 {
		t.Errorf("expected 32-byte decoded key, got %d", len(cfg.SigningKey()))
	}
}

func TestValidate_TimeoutRequired(t *testing.T) {
	cfg := &Config{Env: "development"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero request timeout")
	}
}

func TestIsDev(t *testing.T) {
	if !(&Config{Env: "development"}).IsDev() {
		t.Error("expected IsDev true")
	}
	if (&Config{Env: "production"}).IsDev() {
		t.Error("expected IsDev false")
	}
	if !(&Config{Env: "production"}).IsProduction() {
		t.Error("expected IsProduction true")
	}
}
