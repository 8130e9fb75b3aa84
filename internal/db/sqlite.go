// Package db opens the SQL backends for the message history store. SQLite
// runs with a single writer connection plus a read-only pool (WAL mode);
// Postgres uses one pgx-managed pool for both roles.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	busyTimeout = 5 * time.Second

	// WAL allows many readers alongside the single writer; four read
	// connections is plenty for the history endpoints.
	sqliteReaderConns = 4
)

// OpenSQLite opens the write side of a SQLite database: exactly one
// connection, so writes serialize instead of failing with SQLITE_BUSY.
// The file and its parent directory are created if missing.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	path := absSQLitePath(dbPath)
	if err := ensureSQLiteFile(path); err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}

	// journal_mode=WAL for concurrent readers, busy_timeout to ride out
	// transient locks, synchronous=NORMAL as the durability tradeoff for
	// best-effort message history.
	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_mode=rwc&_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL&_cache=shared",
		path,
		int(busyTimeout/time.Millisecond),
	)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	return conn, nil
}

// OpenSQLiteReader opens the read side: a pool of read-only connections
// that serve history queries without blocking on the writer.
func OpenSQLiteReader(dbPath string) (*sql.DB, error) {
	// journal_mode and synchronous are database-level settings owned by
	// the writer.
	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_mode=ro&_busy_timeout=%d&_cache=shared",
		absSQLitePath(dbPath),
		int(busyTimeout/time.Millisecond),
	)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open read-only database: %w", err)
	}

	conn.SetMaxOpenConns(sqliteReaderConns)
	conn.SetMaxIdleConns(sqliteReaderConns)

	return conn, nil
}

func ensureSQLiteFile(dbPath string) error {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	return file.Close()
}

func absSQLitePath(dbPath string) string {
	if dbPath == "" {
		return dbPath
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return dbPath
	}
	return abs
}
