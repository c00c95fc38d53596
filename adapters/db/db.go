// Package db persists client sessions with sqlx on PostgreSQL or SQLite.
package db

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"disputelens/internal/errors"
)

// Driver names registered by the imported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DriverFor picks the driver for a DSN: postgres:// and postgresql:// URLs
// use lib/pq, anything else is a SQLite path.
func DriverFor(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open connects to the store and applies pending migrations.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.ConfigInvalid("session store DSN is empty")
	}

	driver := DriverFor(dsn)
	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to session store", err)
	}

	if driver == DriverSQLite {
		// SQLite allows one writer; in-memory databases exist per connection.
		conn.SetMaxOpenConns(1)
	}

	if err := NewMigrator(conn).Up(ctx); err != nil {
		conn.Close()
		return nil, errors.DatabaseError("failed to migrate session store", err)
	}
	return conn, nil
}
