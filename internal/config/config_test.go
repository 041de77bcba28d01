package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "policysonar-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "policysonar-auth")
	}
	if cfg.JWTAudience != "policysonar-api,policysonar-dashboard" {
		t.Errorf("JWTAudience = %q, want default pair", cfg.JWTAudience)
	}
	if cfg.JWTAccessTTL != "15m" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "15m")
	}
	if cfg.JWTRefreshTTL != "168h" {
		t.Errorf("JWTRefreshTTL = %q, want %q", cfg.JWTRefreshTTL, "168h")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.SonarBaseURL != "https://api.policysonar.com/v1" {
		t.Errorf("SonarBaseURL = %q, want default", cfg.SonarBaseURL)
	}
}

func TestLoad_MissingSecretDoesNotFail(t *testing.T) {
	// Documented inconsistency: an absent JWT_SECRET is logged, not fatal.
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWTSecret != "" {
		t.Errorf("JWTSecret = %q, want empty", cfg.JWTSecret)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("Load: want error for out-of-range BCRYPT_COST")
	}
}

func TestConfig_TTLHelpers(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "5m", JWTRefreshTTL: "48h", ConsensusCacheTTL: "30m"}
	if got := cfg.AccessTTL(); got != 5*time.Minute {
		t.Errorf("AccessTTL = %v, want 5m", got)
	}
	if got := cfg.RefreshTTL(); got != 48*time.Hour {
		t.Errorf("RefreshTTL = %v, want 48h", got)
	}
	if got := cfg.CacheTTL(); got != 30*time.Minute {
		t.Errorf("CacheTTL = %v, want 30m", got)
	}

	bad := &Config{JWTAccessTTL: "nope", JWTRefreshTTL: "-1h", ConsensusCacheTTL: ""}
	if got := bad.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL fallback = %v, want 15m", got)
	}
	if got := bad.RefreshTTL(); got != 168*time.Hour {
		t.Errorf("RefreshTTL fallback = %v, want 168h", got)
	}
	if got := bad.CacheTTL(); got != time.Hour {
		t.Errorf("CacheTTL fallback = %v, want 1h", got)
	}
}

func TestConfig_AudienceList(t *testing.T) {
	cfg := &Config{JWTAudience: "policysonar-api, policysonar-dashboard ,"}
	got := cfg.AudienceList()
	if len(got) != 2 || got[0] != "policysonar-api" || got[1] != "policysonar-dashboard" {
		t.Errorf("AudienceList = %v", got)
	}
	var nilCfg *Config
	if nilCfg.AudienceList() != nil {
		t.Error("AudienceList on nil config should be nil")
	}
}
