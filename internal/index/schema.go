// Package index provides a SQLite-backed catalog of the books logged in vault
// tables, with optional FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS books (
	path          TEXT    NOT NULL,
	block         INTEGER NOT NULL,
	row_index     INTEGER NOT NULL,
	isbn          TEXT    NOT NULL,
	title         TEXT    NOT NULL DEFAULT '',
	authors       TEXT    NOT NULL DEFAULT '[]',
	pages         INTEGER,
	date_added    TEXT    NOT NULL DEFAULT '',
	date_finished TEXT    NOT NULL DEFAULT '',
	rating        REAL,
	review        TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (path, block, row_index)
);

CREATE INDEX IF NOT EXISTS idx_books_isbn ON books(isbn);
`

// DB wraps a sql.DB with catalog-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database connection is alive.
func (db *DB) Ping() error {
	return db.conn.Ping()
}
