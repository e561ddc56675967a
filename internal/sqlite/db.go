// Package sqlite is the embedded SQLite backend for the collection store.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// Config holds database settings for file-backed databases.
type Config struct {
	// Path is the database file. ":memory:" opens a private in-memory database.
	Path string

	// BusyTimeout is how long a connection waits on a locked database before
	// failing with SQLITE_BUSY.
	BusyTimeout time.Duration

	// JournalMode is the SQLite journal mode, WAL unless set.
	JournalMode string
}

// Open creates the parent directory if needed and opens the database with
// per-connection pragmas applied through the DSN.
func Open(cfg Config) (*DB, error) {
	if cfg.Path == "" || isMemory(cfg.Path) {
		return New(":memory:")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	journal := cfg.JournalMode
	if journal == "" {
		journal = "WAL"
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(%s)&_pragma=foreign_keys(1)",
		filepath.ToSlash(cfg.Path), busy.Milliseconds(), journal)
	return New(dsn)
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to an in-memory database would get its own
	// empty database.
	if isMemory(dataSourceName) {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
