package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (SUMMIT_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL; empty runs on in-memory storage with seed data" flag:"database-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (SUMMIT_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Webhooks     WebhooksConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// WebhooksConfig carries per-provider signing secrets. An empty secret
// disables signature verification for that provider (local development).
type WebhooksConfig struct {
	MercadoPagoSecret string `env:"MERCADOPAGO_SECRET" usage:"MercadoPago webhook signing secret" flag:"mercadopago-secret"`
	CryptoSecret      string `env:"CRYPTO_SECRET" usage:"Crypto gateway webhook signing secret" flag:"crypto-secret"`
	GitHubSecret      string `env:"GITHUB_SECRET" usage:"GitHub Sponsors webhook signing secret" flag:"github-secret"`
}

// RateLimitConfig sizes the per-client sliding window limiter. Keyed by
// client IP, so the defaults assume a trusted proxy setting X-Forwarded-For.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per client per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window"`
}

// CORSConfig configures cross-origin access for the booking frontend.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow cookies and auth headers cross-origin" flag:"cors-credentials"`
}

// GracefulConfig times the shutdown sequence: readiness flips first so load
// balancers stop routing here, then in-flight requests get ShutdownTimeout
// to drain. Webhook retries can hold a request for several seconds, so the
// timeout is generous.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Wait after readiness=false before closing the listener" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum time to drain in-flight requests" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SUMMIT",
		Files:     []string{"config.yaml", "/etc/summit/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	return &cfg, nil
}

// applyPlatformDefaults picks up the unprefixed DATABASE_URL and PORT
// variables that hosting platforms (Railway, Render) inject, without
// overriding anything set through the SUMMIT_ namespace.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
