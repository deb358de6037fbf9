package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"label-store/internal/logger"
)

const (
	defaultMaxConns       = 4
	defaultConnectTimeout = 5 * time.Second
	defaultPingTimeout    = 3 * time.Second
)

// Store owns the connection pool and exposes the record repository on it
type Store struct {
	*Repository
	pool *pgxpool.Pool
}

// NewStore opens a pool from cfg and verifies it with a ping
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres: config is required")
	}
	poolCfg, err := buildPoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	pingTimeout := defaultPingTimeout
	if cfg.PingTimeout > 0 {
		pingTimeout = cfg.PingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	logger.FromContext(ctx).With(
		"store", "postgres",
		"host", poolCfg.ConnConfig.Host,
		"db_name", poolCfg.ConnConfig.Database,
		"max_conns", poolCfg.MaxConns,
	).Debug("Store initialized")
	return &Store{Repository: NewRepository(pool), pool: pool}, nil
}

func buildPoolConfig(cfg *Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	poolCfg.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = min(cfg.MinConns, poolCfg.MaxConns)
	}
	poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	return poolCfg, nil
}

// Migrate applies the embedded migrations over the pool
func (s *Store) Migrate(ctx context.Context) error {
	return ApplyMigrations(ctx, s.pool)
}

// Close shuts down the connection pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
