package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds application configuration values.
type Config struct {
	AppEnv       string        `envconfig:"APP_ENV" default:"development"`
	HTTPAddr     string        `envconfig:"HTTP_ADDR" default:"127.0.0.1:8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	LogFormat    string        `envconfig:"LOG_FORMAT" default:"pretty"`
	CORSOrigins  []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,app://."`

	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"tienda.db"`
	Secret      string `envconfig:"SECRET" default:"dev_secret"`

	TaxRate       string        `envconfig:"TAX_RATE" default:"0.18"`
	SearchLimit   int           `envconfig:"SEARCH_LIMIT" default:"50"`
	CommitTimeout time.Duration `envconfig:"COMMIT_TIMEOUT" default:"5s"`

	BackupDir  string `envconfig:"BACKUP_DIR" default:"backups"`
	BackupKeep int    `envconfig:"BACKUP_KEEP" default:"30"`

	AdminUsername   string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword   string `envconfig:"ADMIN_PASSWORD" default:"admin123"`
	SeedProductsCSV string `envconfig:"SEED_PRODUCTS_CSV"`
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return fmt.Errorf("config: invalid TAX_RATE %q: %w", c.TaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("config: TAX_RATE %s must be in [0, 1)", rate)
	}
	if c.SearchLimit <= 0 {
		return errors.New("config: SEARCH_LIMIT must be positive")
	}
	if c.CommitTimeout <= 0 {
		return errors.New("config: COMMIT_TIMEOUT must be positive")
	}
	if c.BackupKeep <= 0 {
		return errors.New("config: BACKUP_KEEP must be positive")
	}
	if c.IsProduction() && c.Secret == "dev_secret" {
		return errors.New("config: SECRET must be set in production")
	}
	return nil
}

// Tax returns the configured tax rate as a decimal.
func (c *Config) Tax() decimal.Decimal {
	return decimal.RequireFromString(strings.TrimSpace(c.TaxRate))
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
