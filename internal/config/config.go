// Package config loads the GIMS settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultTestStationsGroup is the organisation group whose members must
// document their test station managers.
const DefaultTestStationsGroup = "COVID-19 Test Stations"

// Config holds all settings of the service and the CLI.
type Config struct {
	DBPath   string `env:"GIMS_DB_PATH"`
	HTTPAddr string `env:"GIMS_HTTP_ADDR" envDefault:":8080"`
	LogLevel string `env:"GIMS_LOG_LEVEL" envDefault:"info"`
	BaseURL  string `env:"GIMS_BASE_URL" envDefault:"http://localhost:8080"`

	JWTSecret string        `env:"GIMS_JWT_SECRET"`
	TokenTTL  time.Duration `env:"GIMS_TOKEN_TTL" envDefault:"12h"`

	AMQPURL     string `env:"GIMS_AMQP_URL"`
	NotifyQueue string `env:"GIMS_NOTIFY_QUEUE" envDefault:"gims.notifications"`

	RedisAddr     string        `env:"GIMS_REDIS_ADDR"`
	RedisPassword string        `env:"GIMS_REDIS_PASSWORD"`
	RedisDB       int           `env:"GIMS_REDIS_DB" envDefault:"0"`
	RegistryTTL   time.Duration `env:"GIMS_REGISTRY_TTL" envDefault:"5m"`

	TestStationsGroup string `env:"GIMS_TESTSTATIONS_GROUP" envDefault:"COVID-19 Test Stations"`
}

// Load reads an optional .env file, then parses the environment.
// A missing envFile is not an error; variables already set in the
// environment take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.DBPath == "" {
		path, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		cfg.DBPath = path
	}

	return &cfg, nil
}

// DefaultDBPath returns the default database location (~/.gims/gims.db).
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".gims", "gims.db"), nil
}

// Validate checks the settings required to serve the HTTP API.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("GIMS_JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("GIMS_JWT_SECRET must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("GIMS_TOKEN_TTL must be positive")
	}
	return nil
}
