package main

import (
	"context"

	"github.com/urban-analytics/sppt-cli/internal/store"
)

// initStore opens the configured run registry backend, migrated and
// ready for use.
func initStore(ctx context.Context) (store.Store, error) {
	dsn := cfg.Store.DatabaseURL
	if cfg.Store.Driver == "sqlite" && dsn == "" {
		dsn = "sppt.db"
	}
	return store.Open(ctx, cfg.Store.Driver, dsn, cfg.Store.Pool)
}
