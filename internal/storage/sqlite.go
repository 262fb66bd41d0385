package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	apperrors "github.com/UdayIND/MC3-Summit/internal/errors"
)

// DB wraps the SQLite catalog connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) the SQLite file at dbPath and applies the schema.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, apperrors.NewStorageError("create db directory", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, apperrors.NewStorageError("open sqlite", err)
	}
	// single writer
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, path: dbPath}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, apperrors.NewStorageError("migrate", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS indicator_values (
			indicator TEXT NOT NULL,
			field TEXT NOT NULL,
			year INTEGER NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (indicator, year)
		)`,
		`CREATE TABLE IF NOT EXISTS theme_values (
			theme TEXT NOT NULL,
			field TEXT NOT NULL,
			year INTEGER NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (theme, field, year)
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			status TEXT NOT NULL,
			manifest_json TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_theme_values_theme ON theme_values(theme)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.ExecContext(context.Background(), m); err != nil {
			return fmt.Errorf("migration failed: %.40s: %w", m, err)
		}
	}
	return nil
}
