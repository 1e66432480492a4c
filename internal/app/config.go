package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/bistro-kart/internal/domain/order"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (BISTRO_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL; the embedded menu is served when empty" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL for menu images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	Channel      ChannelConfig
	Pricing      PricingConfig
	Checkout     CheckoutConfig
	Session      SessionConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// ChannelConfig points at the messaging endpoint that receives orders.
type ChannelConfig struct {
	BaseURL string `default:"https://api.whatsapp.com/send" usage:"Messaging deep link endpoint" flag:"channel-url"`
	Phone   string `usage:"Restaurant phone number in international format; the visitor picks a contact when empty" flag:"channel-phone"`
}

// PricingConfig controls how the order summary renders money.
type PricingConfig struct {
	Currency    string `default:"$" usage:"Currency symbol used in order summaries"`
	DeliveryFee string `default:"0" usage:"Flat delivery fee added to every order" flag:"delivery-fee"`
	TaxRate     string `default:"0" usage:"Tax rate as a fraction of the subtotal (0.08 for 8%)" flag:"tax-rate"`
}

// Charges parses the configured fee and tax rate.
func (c PricingConfig) Charges() (order.Charges, error) {
	fee, err := parseAmount(c.DeliveryFee)
	if err != nil {
		return order.Charges{}, errors.Wrap(err, "delivery fee")
	}
	rate, err := parseAmount(c.TaxRate)
	if err != nil {
		return order.Charges{}, errors.Wrap(err, "tax rate")
	}
	return order.Charges{DeliveryFee: fee, TaxRate: rate}, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if v.IsNegative() {
		return decimal.Zero, errors.Errorf("negative value %s", s)
	}
	return v, nil
}

// CheckoutConfig controls checkout validation.
type CheckoutConfig struct {
	RequiredFields []string `default:"full_name,phone,address,neighborhood,city" usage:"Delivery fields that must be filled" flag:"required-fields"`
}

// SessionConfig controls visitor sessions.
type SessionConfig struct {
	TTL          time.Duration `default:"2h" usage:"Idle time after which a cart is dropped" flag:"session-ttl"`
	MaxSessions  int           `default:"10000" usage:"Maximum number of live sessions" flag:"max-sessions"`
	CookieSecure bool          `default:"false" usage:"Mark the session cookie HTTPS-only" flag:"cookie-secure"`
}

// RateLimitConfig controls the per-client token bucket rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Let listed origins send the session cookie" flag:"cors-credentials"`
}

// explicitOrigins reports whether at least one origin other than "*" is
// listed.
func (c CORSConfig) explicitOrigins() bool {
	for _, o := range c.Origins {
		if o != "*" && o != "" {
			return true
		}
	}
	return false
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "BISTRO",
		Files:     []string{"config.yaml", "/etc/bistro/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's BISTRO_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	if _, err := c.Pricing.Charges(); err != nil {
		return errors.Wrap(err, "pricing")
	}
	if c.CORS.AllowCredentials && !c.CORS.explicitOrigins() {
		return errors.New("cors: credentials require explicit origins")
	}
	for _, f := range c.Checkout.RequiredFields {
		if !order.IsField(f) {
			return errors.Errorf("checkout: unknown required field %q", f)
		}
	}
	return nil
}
