// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// minSecretLen is the shortest accepted HS256 secret in bytes.
const minSecretLen = 32

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "staging", "production").
	Env string `mapstructure:"APP_ENV"`

	// JWTSecret is the HS256 signing secret. Required unless a key pair is configured; there is no default.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; with JWT_PUBLIC_KEY switches signing to RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTTTL is the session token lifetime (e.g. "168h").
	JWTTTL string `mapstructure:"JWT_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// SessionCookieName is the name of the HTTP-only cookie carrying the session token.
	SessionCookieName string `mapstructure:"SESSION_COOKIE_NAME"`
	// CookieDomain is optional; empty means a host-only cookie.
	CookieDomain string `mapstructure:"COOKIE_DOMAIN"`
	// CORSOrigin is the allowed origin list for CORS (defaults to *).
	CORSOrigin string `mapstructure:"CORS_ORIGIN"`
	// AuthRateLimitMax is the number of login attempts allowed per IP per minute.
	AuthRateLimitMax int `mapstructure:"AUTH_RATE_LIMIT_MAX"`

	// TelemetryDir is the directory holding the flat telemetry aggregate files.
	TelemetryDir string `mapstructure:"TELEMETRY_DIR"`
	// TelemetryRecentLimit bounds the recent-items list kept in each telemetry file.
	TelemetryRecentLimit int `mapstructure:"TELEMETRY_RECENT_LIMIT"`
	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses. Empty disables the Kafka forwarder.
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for telemetry records.
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// LokiURL is used by the worker to push telemetry records (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty means no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// S3Bucket is the bucket for menu item images; empty disables image uploads.
	S3Bucket string `mapstructure:"S3_BUCKET"`
	S3Region string `mapstructure:"S3_REGION"`
	// S3Endpoint overrides the S3 endpoint (e.g. MinIO at http://127.0.0.1:9000).
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	// S3PublicBaseURL is prefixed to image keys on the public menu.
	S3PublicBaseURL string `mapstructure:"S3_PUBLIC_BASE_URL"`

	// DefaultTaxRateBps is the tax rate in basis points used when settings has no value.
	DefaultTaxRateBps int `mapstructure:"DEFAULT_TAX_RATE"`
	// Currency is the ISO 4217 code used when settings has no value.
	Currency string `mapstructure:"CURRENCY"`
	// RestaurantName is shown on the public menu when settings has no value.
	RestaurantName string `mapstructure:"RESTAURANT_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	return load(true)
}

// LoadTooling is Load for binaries that never sign or verify tokens (migrate, worker).
// It skips the JWT signing key requirement.
func LoadTooling() (*Config, error) {
	return load(false)
}

func load(requireSigningKey bool) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "pos-auth")
	v.SetDefault("JWT_AUDIENCE", "pos-api")
	v.SetDefault("JWT_TTL", "168h") // 7d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SESSION_COOKIE_NAME", "token")
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("AUTH_RATE_LIMIT_MAX", 10)
	v.SetDefault("TELEMETRY_DIR", "data/telemetry")
	v.SetDefault("TELEMETRY_RECENT_LIMIT", 100)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "pos-telemetry")
	v.SetDefault("KAFKA_GROUP_ID", "pos-telemetry-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "pos-api")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_PUBLIC_BASE_URL", "")
	v.SetDefault("DEFAULT_TAX_RATE", 0)
	v.SetDefault("CURRENCY", "USD")
	v.SetDefault("RESTAURANT_NAME", "Restaurant")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	if requireSigningKey && !cfg.HasKeyPair() {
		if cfg.JWTSecret == "" {
			return nil, errors.New("config: JWT_SECRET must be set (or JWT_PRIVATE_KEY and JWT_PUBLIC_KEY)")
		}
		if len(cfg.JWTSecret) < minSecretLen {
			return nil, errors.New("config: JWT_SECRET must be at least 32 bytes")
		}
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = "token"
	}
	if cfg.AuthRateLimitMax <= 0 {
		cfg.AuthRateLimitMax = 10
	}
	if cfg.TelemetryRecentLimit <= 0 {
		cfg.TelemetryRecentLimit = 100
	}
	if cfg.DefaultTaxRateBps < 0 || cfg.DefaultTaxRateBps > 10000 {
		return nil, errors.New("config: DEFAULT_TAX_RATE must be between 0 and 10000 basis points")
	}

	return &cfg, nil
}

// HasKeyPair reports whether both JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are set.
func (c *Config) HasKeyPair() bool {
	return strings.TrimSpace(c.JWTPrivateKey) != "" && strings.TrimSpace(c.JWTPublicKey) != ""
}

// TokenTTL parses JWTTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// SecureCookies reports whether session cookies must carry the Secure flag.
func (c *Config) SecureCookies() bool {
	env := strings.ToLower(strings.TrimSpace(c.Env))
	return env == "production" || env == "staging"
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the Kafka forwarder is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
