package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

//go:embed schema.sql
var schema string

// DB is a *sql.DB that remembers which driver it was opened with, so
// repositories can pick the dialect-specific parts of their queries.
type DB struct {
	*sql.DB
	Driver string
}

func Connect(ctx context.Context, driverName, dsn string) (*DB, error) {
	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driverName, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driverName, err)
	}
	if driverName == DriverSQLite {
		// SQLite allows a single writer; one connection also keeps a
		// ":memory:" database alive and shared.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(5)
	}
	return &DB{DB: conn, Driver: driverName}, nil
}

// ForUpdate is the row-lock suffix for a SELECT inside a transaction.
// SQLite has no row locks and serializes writers instead.
func (db *DB) ForUpdate() string {
	if db.Driver == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// Migrate creates missing tables and seeds the status and task type
// catalogues. It is safe to run on every start.
func (db *DB) Migrate(ctx context.Context) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range statements(schema) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply %q: %w", firstLine(stmt), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

func statements(src string) []string {
	var out []string
	for _, stmt := range strings.Split(src, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func firstLine(stmt string) string {
	line, _, _ := strings.Cut(stmt, "\n")
	return line
}
