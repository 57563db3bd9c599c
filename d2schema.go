// Package d2schema introspects a relational database catalog and renders
// its tables, keys and foreign-key relationships as a D2 diagram.
//
// The pipeline has three stages: catalog rows are read per schema, merged
// into an ordered model, and serialized as one sql_table shape per table
// followed by one edge per foreign key column.
//
// # Quick Start
//
//	err := d2schema.Generate(
//		context.Background(),
//		d2schema.Config{Host: "localhost", Database: "app", User: "app", Password: "secret"},
//		nil,
//		&d2schema.OutputOptions{Writer: os.Stdout},
//	)
//
// # Drivers
//
// PostgreSQL is the default. MySQL is selected with Driver "mysql" and uses
// the same four connection parameters. SQLite is selected with Driver
// "sqlite" and only needs Database, the path of the database file.
//
// # Output Formats
//
//   - "d2" (default): the diagram document
//   - "markdown": a readable listing of the same model
//
// Output is rendered in memory and written only once extraction has
// fully succeeded.
package d2schema

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tordrt/d2schema/internal/config"
	"github.com/tordrt/d2schema/internal/db"
	"github.com/tordrt/d2schema/internal/formatter"
	"github.com/tordrt/d2schema/internal/schema"
)

// Output formats.
const (
	FormatD2       = "d2"
	FormatMarkdown = "markdown"
)

// Config holds the connection parameters. See FromEnv.
type Config = config.Config

// Model is the extracted table model.
type Model = schema.Model

// FromEnv reads DB_HOST, DB_NAME, DB_USER, DB_PASSWORD and the optional
// DB_DRIVER, DB_PORT and DB_SSLMODE variables.
func FromEnv() Config {
	return config.FromEnv()
}

// Options configures extraction.
//
// All fields are optional. If not specified:
//   - Schemas: every non-system schema of the database
//   - ExcludeTables: no table is excluded
//   - PerColumnTypes: types are resolved with one query per schema
//   - Logger: slog.Default()
type Options struct {
	// Schemas restricts extraction to the named schemas, used as given.
	Schemas []string

	// ExcludeTables drops tables by bare ("users") or qualified
	// ("public.users") name after extraction.
	ExcludeTables []string

	// PerColumnTypes resolves each column type with its own query instead
	// of one query per schema. The resulting model is identical.
	PerColumnTypes bool

	// ShortTypes maps verbose PostgreSQL type names to their common
	// aliases (varchar(255), timestamptz, integer[]).
	ShortTypes bool

	// Logger receives data-integrity warnings and progress messages.
	Logger *slog.Logger
}

// OutputOptions configures rendering.
type OutputOptions struct {
	// Writer receives the document. Defaults to os.Stdout.
	Writer io.Writer

	// Format is "d2" (default) or "markdown".
	Format string
}

// Generate extracts the catalog model and writes the rendered document.
// Nothing is written if extraction fails.
func Generate(ctx context.Context, cfg Config, opts *Options, outOpts *OutputOptions) error {
	m, err := ExtractModel(ctx, cfg, opts)
	if err != nil {
		return err
	}

	return FormatModel(m, outOpts)
}

// ExtractModel connects with cfg, extracts every requested schema and
// releases the connection before returning.
//
// Returns an error if:
//   - a required connection parameter is missing (config error)
//   - the database cannot be reached (db.ConnectionError)
//   - any catalog read fails (schema.CatalogError)
func ExtractModel(ctx context.Context, cfg Config, opts *Options) (*Model, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	catalog, err := db.Open(ctx, cfg, db.OpenOptions{ShortTypes: opts.ShortTypes})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			logger.Warn("failed to close database connection", "error", err)
		}
	}()

	return extract(ctx, catalog, opts, logger)
}

func extract(ctx context.Context, catalog db.Catalog, opts *Options, logger *slog.Logger) (*Model, error) {
	schemaNames := opts.Schemas
	if len(schemaNames) == 0 {
		var err error
		schemaNames, err = catalog.Schemas(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list schemas: %w", err)
		}
	}

	m, err := schema.Extract(ctx, catalog, schemaNames, schema.ExtractOptions{
		Batch:  !opts.PerColumnTypes,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	return schema.FilterTables(m, opts.ExcludeTables), nil
}

// FormatModel renders m and writes it to the configured writer.
func FormatModel(m *Model, opts *OutputOptions) error {
	if opts == nil {
		opts = &OutputOptions{}
	}

	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}

	var buf bytes.Buffer
	switch opts.Format {
	case "", FormatD2:
		if err := formatter.NewD2Formatter(&buf).Format(m); err != nil {
			return err
		}
	case FormatMarkdown:
		if err := formatter.NewMarkdownFormatter(&buf).Format(m); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid format: %s (must be 'd2' or 'markdown')", opts.Format)
	}

	if _, err := buf.WriteTo(writer); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
