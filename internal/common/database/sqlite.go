// internal/common/database/sqlite.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteClient wraps the embedded SQL database connection
type SQLiteClient struct {
	DB   *sql.DB
	Path string
}

// NewSQLite opens the index database under dataDir, creating the
// directory and file on first use.
func NewSQLite(dataDir string) (*SQLiteClient, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dataDir, err)
	}
	path := filepath.Join(dataDir, "index.db")

	// WAL keeps readers unblocked while a write is in flight
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	return &SQLiteClient{DB: db, Path: path}, nil
}

// Ping tests the database connection
func (c *SQLiteClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// GetDB returns the underlying *sql.DB for compatibility
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.DB
}
