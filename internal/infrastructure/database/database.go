// Package database provides persistence for weather requests and their daily
// records, backed by SQLite by default or PostgreSQL when configured.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverSQLite selects the embedded SQLite store.
	DriverSQLite = "sqlite3"

	// DriverPostgres selects a PostgreSQL server.
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when a weather request row does not exist.
var ErrNotFound = errors.New("record not found")

// Config holds connection settings for the store.
type Config struct {
	Driver                string
	DSN                   string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
}

// Open connects to the configured database and verifies the connection.
//
// SQLite connections are pinned to a single pooled connection: writes are
// serialized and an in-memory database stays visible to every caller.
//
// Parameters:
//   - cfg: Connection settings
//
// Returns:
//   - *sql.DB: Open database handle
//   - error: Unsupported driver, open or ping error
func Open(cfg Config) (*sql.DB, error) {
	var dsn string

	switch cfg.Driver {
	case DriverSQLite:
		dsn = sqliteDSN(cfg.DSN)
	case DriverPostgres:
		dsn = cfg.DSN
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		if cfg.MaxConnections > 0 {
			db.SetMaxOpenConns(cfg.MaxConnections)
		}
		if cfg.MaxIdleConnections >= 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConnections)
		}
		db.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// sqliteDSN enables foreign key enforcement unless the caller already set it.
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "weather.db"
	}

	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + "_foreign_keys=on"
}

// statementBuilder returns a squirrel builder using the driver's placeholder style.
func statementBuilder(driver string) squirrel.StatementBuilderType {
	if driver == DriverPostgres {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}

	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}
