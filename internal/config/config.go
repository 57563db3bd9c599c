// Package config holds the database connection settings and their
// environment loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// ErrMissingParameter is matched by every Error reporting missing settings.
var ErrMissingParameter = errors.New("missing connection parameter")

// Error is a configuration error detected before any connection attempt.
type Error struct {
	Missing []string // environment names of the missing settings
	Reason  string
}

func (e *Error) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("configuration error: %s must be set", strings.Join(e.Missing, ", "))
	}
	return "configuration error: " + e.Reason
}

func (e *Error) Is(target error) bool {
	return target == ErrMissingParameter && len(e.Missing) > 0
}

// Config holds the connection parameters of the catalog store.
type Config struct {
	Driver   string // postgres (default), mysql or sqlite
	Host     string
	Port     string // optional, driver default when empty
	Database string // database name, or file path for sqlite
	User     string
	Password string
	SSLMode  string // postgres only, default "prefer"
}

// FromEnv reads the DB_* environment variables.
func FromEnv() Config {
	return Config{
		Driver:   os.Getenv("DB_DRIVER"),
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		Database: os.Getenv("DB_NAME"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		SSLMode:  os.Getenv("DB_SSLMODE"),
	}
}

// LoadEnvFile loads a dotenv file into the process environment without
// overriding variables that are already set. A missing file is ignored.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// DriverName returns the configured driver, defaulting to postgres.
func (c Config) DriverName() string {
	if c.Driver == "" {
		return DriverPostgres
	}
	return c.Driver
}

// Validate checks that every required parameter is present.
func (c Config) Validate() error {
	switch c.DriverName() {
	case DriverPostgres, DriverMySQL:
		var missing []string
		if c.Host == "" {
			missing = append(missing, "DB_HOST")
		}
		if c.Database == "" {
			missing = append(missing, "DB_NAME")
		}
		if c.User == "" {
			missing = append(missing, "DB_USER")
		}
		if c.Password == "" {
			missing = append(missing, "DB_PASSWORD")
		}
		if len(missing) > 0 {
			return &Error{Missing: missing}
		}
	case DriverSQLite:
		if c.Database == "" {
			return &Error{Missing: []string{"DB_NAME"}}
		}
	default:
		return &Error{Reason: fmt.Sprintf("unsupported driver %q (must be postgres, mysql or sqlite)", c.Driver)}
	}
	return nil
}

// PostgresURL builds a postgres:// connection URL.
func (c Config) PostgresURL() string {
	port := c.Port
	if port == "" {
		port = "5432"
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// MySQLDSN builds a go-sql-driver/mysql data source name.
func (c Config) MySQLDSN() string {
	port := c.Port
	if port == "" {
		port = "3306"
	}

	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, port)
	mc.DBName = c.Database
	return mc.FormatDSN()
}
