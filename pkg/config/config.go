package config

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MinSlugLength is the shortest configurable UID slug; anything below falls back to DefaultSlugLength.
const (
	MinSlugLength     = 4
	DefaultSlugLength = 8
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:urls.sqlite"`
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	SiteURL     string `env:"SITE_URL" envDefault:"http://localhost:8080"`

	Slug     SlugConfig
	Storage  StorageConfig
	Public   PublicConfig
	Auth     AuthConfig
	Redirect RedirectConfig
}

type SlugConfig struct {
	Style         string `env:"SLUG_STYLE" envDefault:"Pair"`
	Length        int    `env:"SLUG_LENGTH" envDefault:"8"`
	TryLonger     bool   `env:"TRY_LONGER_SLUG" envDefault:"false"`
	AllowCapitals bool   `env:"ALLOW_CAPITAL_LETTERS" envDefault:"false"`
}

type StorageConfig struct {
	UseWALMode      bool          `env:"USE_WAL_MODE" envDefault:"false"`
	EnsureACID      bool          `env:"ENSURE_ACID" envDefault:"true"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"24h"`
}

type PublicConfig struct {
	Enabled        bool    `env:"PUBLIC_MODE" envDefault:"false"`
	ExpiryDelay    int64   `env:"PUBLIC_MODE_EXPIRY_DELAY" envDefault:"0"`
	RateLimitRPS   float64 `env:"PUBLIC_RATE_LIMIT_RPS" envDefault:"1"`
	RateLimitBurst int     `env:"PUBLIC_RATE_LIMIT_BURST" envDefault:"5"`
}

type AuthConfig struct {
	APIKey             string   `env:"API_KEY"`
	Password           string   `env:"PASSWORD"`
	JWTSecret          string   `env:"JWT_SECRET"`
	GoogleClientID     string   `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string   `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string   `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:8080/auth/google/callback"`
	AllowedEmails      []string `env:"ALLOWED_EMAILS" envSeparator:","`
	FrontendURL        string   `env:"FRONTEND_URL" envDefault:"http://localhost:8080/admin"`
}

type RedirectConfig struct {
	UseTempRedirect bool `env:"USE_TEMP_REDIRECT" envDefault:"false"`
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GoogleLoginEnabled reports whether both OAuth client credentials are set.
func (c *Config) GoogleLoginEnabled() bool {
	return c.Auth.GoogleClientID != "" && c.Auth.GoogleClientSecret != ""
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	if c.Slug.Length < MinSlugLength {
		c.Slug.Length = DefaultSlugLength
	}
	if c.Public.ExpiryDelay < 0 {
		c.Public.ExpiryDelay = 0
	}
	if c.Storage.CleanupInterval <= 0 {
		c.Storage.CleanupInterval = 24 * time.Hour
	}
	// Without JWT_SECRET, sessions only survive until the next restart.
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = rand.Text()
	}
}
