package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tordrt/d2schema/internal/config"
)

func TestParseTableList(t *testing.T) {
	tests := []struct {
		name       string
		tablesStr  string
		wantTables []string
	}{
		{
			name:       "single table",
			tablesStr:  "users",
			wantTables: []string{"users"},
		},
		{
			name:       "multiple tables",
			tablesStr:  "users,public.posts,comments",
			wantTables: []string{"users", "public.posts", "comments"},
		},
		{
			name:       "tables with spaces",
			tablesStr:  "users, posts, comments",
			wantTables: []string{"users", "posts", "comments"},
		},
		{
			name:       "empty string",
			tablesStr:  "",
			wantTables: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTables, parseTableList(tt.tablesStr))
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringVar(&host, "host", "", "")
	flags.StringVar(&user, "user", "", "")
	flags.StringVar(&dbName, "dbname", "", "")
	flags.StringVar(&password, "password", "", "")
	t.Cleanup(func() { host, user, dbName, password = "", "", "", "" })

	require.NoError(t, flags.Parse([]string{"--host", "db.internal", "--user", "reader"}))

	cfg := config.Config{Host: "localhost", Database: "app", User: "app", Password: "secret"}
	applyFlagOverrides(&cfg, flags)

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, "reader", cfg.User)
	assert.Equal(t, "app", cfg.Database, "unset flags must keep the environment value")
	assert.Equal(t, "secret", cfg.Password)
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer

	newLogger(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, true).Debug("shown", "table", "public.users")
	assert.True(t, strings.Contains(buf.String(), "table=public.users"))
}

func TestRootCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")
	conn, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = conn.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, "table" TEXT)`)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	outPath := filepath.Join(dir, "schema.d2")
	missingOut := filepath.Join(dir, "never.d2")

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	rootCmd.SetArgs([]string{"--env-file", "", "--driver", "sqlite", "--dbname", dbPath, "-o", outPath})
	require.NoError(t, rootCmd.Execute())

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "main.users: {\n  shape: sql_table\n  id: INTEGER {constraint: primary_key}\n  `table`: TEXT\n}\n\n", string(out))

	rootCmd.SetArgs([]string{"--env-file", "", "--driver", "sqlite", "--dbname", filepath.Join(dir, "missing.db"), "-o", missingOut})
	require.Error(t, rootCmd.Execute())
	assert.NoFileExists(t, missingOut)
}
