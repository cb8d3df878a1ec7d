// Package backend selects a storage.Store implementation by driver name.
package backend

import (
	"context"
	"fmt"

	"github.com/hongminglow/messagely/internal/storage"
	"github.com/hongminglow/messagely/internal/storage/postgres"
	"github.com/hongminglow/messagely/internal/storage/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the store identified by driver and applies migrations.
func Open(ctx context.Context, driver, databaseURL string) (storage.Store, error) {
	switch driver {
	case DriverPostgres:
		return postgres.NewStore(ctx, databaseURL)
	case DriverSQLite:
		return sqlite.NewStore(ctx, databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
