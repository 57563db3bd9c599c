package schema

import (
	"context"
	"fmt"
	"log/slog"
)

// Catalog reads raw metadata rows for one schema at a time.
type Catalog interface {
	// Columns lists every (table, column) of the schema in a stable order.
	Columns(ctx context.Context, schemaName string) ([]ColumnRow, error)
	// Constraints lists one row per (constraint, column) pair for tables
	// owned by the schema.
	Constraints(ctx context.Context, schemaName string) ([]ConstraintRow, error)
	// ColumnType resolves a single column. ok is false if the column no
	// longer exists.
	ColumnType(ctx context.Context, schemaName, table, column string) (ct ColumnType, ok bool, err error)
}

// BatchTypeResolver is implemented by catalogs that can resolve every
// column type of a schema in one round trip.
type BatchTypeResolver interface {
	ColumnTypes(ctx context.Context, schemaName string) (map[ColumnKey]ColumnType, error)
}

// ExtractOptions configures Extract.
type ExtractOptions struct {
	// Batch resolves types with one query per schema when the catalog
	// implements BatchTypeResolver.
	Batch  bool
	Logger *slog.Logger
}

// Extract builds the model of each schema in order and merges the results.
// The first catalog failure aborts the run.
func Extract(ctx context.Context, catalog Catalog, schemaNames []string, opts ExtractOptions) (*Model, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	builder := NewBuilder(logger)

	model := NewModel()
	for _, schemaName := range schemaNames {
		m, err := extractSchema(ctx, catalog, builder, schemaName, opts.Batch)
		if err != nil {
			return nil, err
		}
		logger.Debug("schema extracted", "schema", schemaName, "tables", m.Len())
		model.Merge(m)
	}

	return model, nil
}

func extractSchema(ctx context.Context, catalog Catalog, builder *Builder, schemaName string, batch bool) (*Model, error) {
	columns, err := catalog.Columns(ctx, schemaName)
	if err != nil {
		return nil, &CatalogError{Schema: schemaName, Op: "enumerate columns", Err: err}
	}

	constraints, err := catalog.Constraints(ctx, schemaName)
	if err != nil {
		return nil, &CatalogError{Schema: schemaName, Op: "enumerate constraints", Err: err}
	}

	lookup, err := typeLookup(ctx, catalog, schemaName, batch)
	if err != nil {
		return nil, err
	}

	return builder.Build(schemaName, columns, constraints, lookup)
}

func typeLookup(ctx context.Context, catalog Catalog, schemaName string, batch bool) (TypeLookup, error) {
	if resolver, ok := catalog.(BatchTypeResolver); ok && batch {
		types, err := resolver.ColumnTypes(ctx, schemaName)
		if err != nil {
			return nil, &CatalogError{Schema: schemaName, Op: "resolve column types", Err: err}
		}
		return MapLookup(types), nil
	}

	return func(table, column string) (ColumnType, bool, error) {
		ct, ok, err := catalog.ColumnType(ctx, schemaName, table, column)
		if err != nil {
			return ColumnType{}, false, &CatalogError{
				Schema: schemaName,
				Op:     fmt.Sprintf("resolve type of %s.%s", table, column),
				Err:    err,
			}
		}
		return ct, ok, nil
	}, nil
}

// MapLookup serves lookups from a pre-fetched set of column types.
func MapLookup(types map[ColumnKey]ColumnType) TypeLookup {
	return func(table, column string) (ColumnType, bool, error) {
		ct, ok := types[ColumnKey{Table: table, Column: column}]
		return ct, ok, nil
	}
}
