package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	conn *sql.DB
	Path string
}

const schema = `
CREATE TABLE IF NOT EXISTS movies (
	row_index    INTEGER PRIMARY KEY,
	id           INTEGER NOT NULL,
	title        TEXT    NOT NULL UNIQUE,
	overview     TEXT    NOT NULL DEFAULT '',
	release_year INTEGER NOT NULL DEFAULT 0,
	vote_average REAL    NOT NULL DEFAULT 0,
	poster_path  TEXT    NOT NULL DEFAULT '',
	genres       TEXT    NOT NULL DEFAULT '[]'
);
CREATE VIRTUAL TABLE IF NOT EXISTS movies_fts USING fts5(
	title, overview, content='movies', content_rowid='row_index'
);
CREATE TABLE IF NOT EXISTS similarity (
	row_index INTEGER PRIMARY KEY REFERENCES movies(row_index) ON DELETE CASCADE,
	scores    BLOB    NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// OpenDB opens a SQLite database with WAL mode and foreign keys enabled,
// creating the file and schema when missing.
func OpenDB(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		conn.SetMaxOpenConns(1)
	}

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{conn: conn, Path: path}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}
