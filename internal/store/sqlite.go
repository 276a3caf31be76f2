package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Drivers accepted by Open: mattn (cgo) and modernc (pure Go)
const (
	DriverCGO  = "sqlite3"
	DriverPure = "sqlite"
)

// SQLite stores values in a single kv table
type SQLite struct {
	db *sql.DB
}

// Open creates a SQLite store with the given driver and database path
func Open(driver, dbPath string) (*SQLite, error) {
	if driver != DriverCGO && driver != DriverPure {
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}

	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer keeps read-modify-write callers from tripping SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get key: %w", err)
	}
	return []byte(value), nil
}

// Set replaces the value stored under key
func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, string(value), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set key: %w", err)
	}
	return nil
}
