// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; empty until DB is wired.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret is the shared HMAC-SHA256 signing secret for session tokens.
	// A missing value is logged loudly at load time but does not fail startup;
	// token verification will reject everything until it is set.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim (e.g. "policysonar-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the comma-separated aud claim set (e.g. "policysonar-api,policysonar-dashboard").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token lifetime (e.g. "168h").
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// SonarAPIKey is the API key for the external policy analysis API.
	SonarAPIKey string `mapstructure:"SONAR_API_KEY"`
	// SonarBaseURL is the policy analysis API base URL.
	SonarBaseURL string `mapstructure:"SONAR_BASE_URL"`
	// RedisAddr is the Redis address for the consensus cache (e.g. localhost:6379). Empty disables caching.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// ConsensusCacheTTL is how long cached consensus responses live (e.g. "1h").
	ConsensusCacheTTL string `mapstructure:"CONSENSUS_CACHE_TTL"`
	// OTLPEndpoint is the OTLP collector endpoint for traces/metrics/logs. Empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// CORSOrigin is the allowed browser origin for the dashboard frontend.
	CORSOrigin string `mapstructure:"CORS_ORIGIN"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "policysonar-auth")
	v.SetDefault("JWT_AUDIENCE", "policysonar-api,policysonar-dashboard")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h") // 7d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SONAR_API_KEY", "")
	v.SetDefault("SONAR_BASE_URL", "https://api.policysonar.com/v1")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CONSENSUS_CACHE_TTL", "1h")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	// Known inconsistency kept from the original deployment: an absent signing
	// secret is reported here but does not stop the process.
	if cfg.JWTSecret == "" {
		log.Printf("config: JWT_SECRET is not set; session token verification will fail")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// RefreshTTL parses JWTRefreshTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTRefreshTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// CacheTTL parses ConsensusCacheTTL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.ConsensusCacheTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// AudienceList returns the audience claim values from the comma-separated config.
func (c *Config) AudienceList() []string {
	if c == nil || c.JWTAudience == "" {
		return nil
	}
	parts := strings.Split(c.JWTAudience, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
