package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// DevSessionSecret is the SESSION_SECRET default. It keys the CSRF HMAC and
// the token seal, so deployments must override it.
const DevSessionSecret = "lifeline-dev-secret-change-me"

// Config holds application configuration
type Config struct {
	ServerPort    string `env:"PORT" envDefault:"8080"`
	APIBaseURLRaw string `env:"API_BASE_URL" envDefault:"http://localhost:8000"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	DatabaseType string `env:"DB_TYPE" envDefault:"sqlite"`
	DatabasePath string `env:"DB_PATH" envDefault:"./lifeline.db"`
	DatabaseURL  string `env:"DATABASE_URL"`

	SessionDuration       time.Duration `env:"SESSION_DURATION" envDefault:"168h"`
	SessionSecret         string        `env:"SESSION_SECRET" envDefault:"lifeline-dev-secret-change-me"`
	CallbackRedirectDelay time.Duration `env:"CALLBACK_REDIRECT_DELAY" envDefault:"100ms"`
	DashboardIdleTimeout  time.Duration `env:"DASHBOARD_IDLE_TIMEOUT" envDefault:"2h"`

	APITimeout    time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
	UploadMaxSize int64         `env:"UPLOAD_MAX_SIZE" envDefault:"10485760"` // 10MiB

	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`

	ChatWebhookURL string `env:"CHAT_WEBHOOK_URL"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"<root>=INFO"`
	OpenBrowser bool   `env:"OPEN_BROWSER" envDefault:"false"`
	Debug       bool   `env:"DEBUG" envDefault:"false"`

	AWSRegion    string `env:"AWS_REGION" envDefault:"us-east-1"`
	SESFromEmail string `env:"SES_FROM_EMAIL"`
	SESFromName  string `env:"SES_FROM_NAME" envDefault:"LifeLine"`

	apiBaseURL *url.URL
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIBaseURLRaw)
	if err != nil {
		return fmt.Errorf("invalid API_BASE_URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid API_BASE_URL %q: must be an absolute URL", c.APIBaseURLRaw)
	}
	c.apiBaseURL = u

	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET must not be empty")
	}
	if c.SessionDuration <= 0 {
		return errors.New("SESSION_DURATION must be positive")
	}
	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		return errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
	}
	return nil
}

// UsesDevSessionSecret reports whether SESSION_SECRET was left at its default
func (c *Config) UsesDevSessionSecret() bool {
	return c.SessionSecret == DevSessionSecret
}

// APIBaseURL returns the parsed LifeLine REST backend URL
func (c *Config) APIBaseURL() *url.URL {
	u := *c.apiBaseURL
	return &u
}
