package db

import (
	"context"

	"github.com/tordrt/d2schema/internal/config"
	"github.com/tordrt/d2schema/internal/schema"
)

// Catalog is a connected catalog reader. Close must be called once the
// run ends, whatever its outcome.
type Catalog interface {
	schema.Catalog
	schema.BatchTypeResolver
	// Schemas lists the non-system schemas of the database.
	Schemas(ctx context.Context) ([]string, error)
	Close() error
}

// OpenOptions tunes the catalog readers.
type OpenOptions struct {
	// ShortTypes maps verbose PostgreSQL type names to common aliases.
	ShortTypes bool
}

// Open validates cfg and connects to the configured store. Configuration
// errors are reported before any connection attempt.
func Open(ctx context.Context, cfg config.Config, opts OpenOptions) (Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.DriverName() {
	case config.DriverMySQL:
		client, err := NewMySQLClient(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, err
		}
		return NewMySQLCatalog(client), nil
	case config.DriverSQLite:
		client, err := NewSQLiteClient(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return NewSQLiteCatalog(client), nil
	default:
		client, err := NewPostgresClient(ctx, cfg.PostgresURL())
		if err != nil {
			return nil, err
		}
		return NewPostgresCatalog(client, opts.ShortTypes), nil
	}
}
