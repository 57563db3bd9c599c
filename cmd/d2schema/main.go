package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tordrt/d2schema"
	"github.com/tordrt/d2schema/internal/config"
)

var (
	driver        string
	host          string
	port          string
	dbName        string
	user          string
	password      string
	sslMode       string
	envFile       string
	schemas       []string
	excludeTables string
	outputFile    string
	format        string
	batch         bool
	shortTypes    bool
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "d2schema",
	Short: "Render a database schema as a D2 entity-relationship diagram",
	Long: `d2schema reads table, column and key metadata from a PostgreSQL, MySQL or SQLite
catalog and writes a D2 diagram with one sql_table shape per table and one edge per foreign key.

Connection parameters are read from DB_HOST, DB_NAME, DB_USER and DB_PASSWORD
(optionally from a .env file) and can be overridden with flags.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&driver, "driver", "", "Database driver: postgres, mysql or sqlite (env DB_DRIVER, default: postgres)")
	rootCmd.Flags().StringVar(&host, "host", "", "Database host (env DB_HOST)")
	rootCmd.Flags().StringVar(&port, "port", "", "Database port (env DB_PORT)")
	rootCmd.Flags().StringVar(&dbName, "dbname", "", "Database name, or file path for sqlite (env DB_NAME)")
	rootCmd.Flags().StringVar(&user, "user", "", "Database user (env DB_USER)")
	rootCmd.Flags().StringVar(&password, "password", "", "Database password (env DB_PASSWORD)")
	rootCmd.Flags().StringVar(&sslMode, "sslmode", "", "PostgreSQL sslmode (env DB_SSLMODE, default: prefer)")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "Dotenv file to load before reading the environment")
	rootCmd.Flags().StringSliceVarP(&schemas, "schema", "s", nil, "Schemas to include (repeatable, default: all non-system schemas)")
	rootCmd.Flags().StringVar(&excludeTables, "exclude-tables", "", "Tables to exclude (comma-separated, bare or schema-qualified)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	rootCmd.Flags().StringVarP(&format, "format", "f", d2schema.FormatD2, "Output format: d2 or markdown")
	rootCmd.Flags().BoolVar(&batch, "batch", true, "Resolve column types with one query per schema")
	rootCmd.Flags().BoolVar(&shortTypes, "short-types", false, "Use short PostgreSQL type names (varchar(n), timestamptz)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	logger := newLogger(cmd.ErrOrStderr(), verbose)

	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}
	cfg := config.FromEnv()
	applyFlagOverrides(&cfg, cmd.Flags())

	if format != d2schema.FormatD2 && format != d2schema.FormatMarkdown {
		return fmt.Errorf("invalid format: %s (must be 'd2' or 'markdown')", format)
	}

	model, err := d2schema.ExtractModel(ctx, cfg, &d2schema.Options{
		Schemas:        schemas,
		ExcludeTables:  parseTableList(excludeTables),
		PerColumnTypes: !batch,
		ShortTypes:     shortTypes,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	// Single-file output
	writer := cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
			}
		}()
		writer = f
	}

	if err := d2schema.FormatModel(model, &d2schema.OutputOptions{Writer: writer, Format: format}); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	return nil
}

// applyFlagOverrides replaces environment values with explicitly set flags
func applyFlagOverrides(cfg *config.Config, flags *pflag.FlagSet) {
	overrides := []struct {
		flag  string
		value string
		field *string
	}{
		{"driver", driver, &cfg.Driver},
		{"host", host, &cfg.Host},
		{"port", port, &cfg.Port},
		{"dbname", dbName, &cfg.Database},
		{"user", user, &cfg.User},
		{"password", password, &cfg.Password},
		{"sslmode", sslMode, &cfg.SSLMode},
	}

	for _, o := range overrides {
		if flags.Changed(o.flag) {
			*o.field = o.value
		}
	}
}

func parseTableList(tablesStr string) []string {
	if tablesStr == "" {
		return nil
	}

	tableList := strings.Split(tablesStr, ",")
	for i, t := range tableList {
		tableList[i] = strings.TrimSpace(t)
	}
	return tableList
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
