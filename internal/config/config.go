package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backend selects the storage implementation
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

var (
	ErrUnknownBackend     = errors.New("unknown backend")
	ErrMissingDatabaseURL = errors.New("DATABASE_URL must be set for the postgres backend")
)

// Config is everything the CLI needs to open a store
type Config struct {
	Backend     Backend `env:"LABEL_STORE_BACKEND"     envDefault:"sqlite"`
	DatabaseURL string  `env:"DATABASE_URL"`
	SQLitePath  string  `env:"LABEL_STORE_SQLITE_PATH" envDefault:"labels.db"`
	MaxConns    int32   `env:"LABEL_STORE_MAX_CONNS"   envDefault:"4"`
	LogLevel    string  `env:"LABEL_STORE_LOG_LEVEL"   envDefault:"info"`
	LogJSON     bool    `env:"LABEL_STORE_LOG_JSON"`
}

// Load reads the optional env files into the process environment and then
// parses Config from it. Variables already set win over the files. A missing
// file is not an error.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate checks the combination of settings
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path must not be empty")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.MaxConns < 1 {
		return fmt.Errorf("max conns must be positive, got %d", c.MaxConns)
	}
	return nil
}
