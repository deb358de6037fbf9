package main

import (
	"context"
	"fmt"

	"label-store/internal/config"
	"label-store/internal/db"
	"label-store/internal/label"
	"label-store/internal/logger"
	"label-store/internal/models"
	"label-store/internal/postgres"
)

// recordStore is what both backends offer
type recordStore interface {
	CreateRecord(ctx context.Context, l label.Label) (*models.Record, error)
	GetRecord(ctx context.Context, id int64) (*models.Record, error)
	ListRecords(ctx context.Context) ([]models.Record, error)
	BulkCreateRecords(ctx context.Context, labels []label.Label) ([]models.Record, error)
	Migrate(ctx context.Context) error
	Close() error
}

var (
	_ recordStore = (*db.DB)(nil)
	_ recordStore = (*postgres.Store)(nil)
)

// openStore opens the configured backend and brings its schema up to date
func openStore(ctx context.Context, cfg *config.Config) (recordStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var (
		store recordStore
		err   error
	)
	switch cfg.Backend {
	case config.BackendPostgres:
		store, err = postgres.NewStore(ctx, &postgres.Config{
			ConnString: cfg.DatabaseURL,
			MaxConns:   cfg.MaxConns,
		})
	default:
		store, err = db.New(ctx, cfg.SQLitePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	logger.FromContext(ctx).Debug("Store ready", "backend", cfg.Backend)
	return store, nil
}
