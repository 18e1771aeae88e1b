//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/booker/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the books table.
	return nil
}

func ftsInsert(_ *sql.Tx, _ string, _ models.CatalogEntry) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) error { return nil }

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]models.CatalogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT `+bookColumns+`
		FROM books
		WHERE isbn LIKE ? OR title LIKE ? OR authors LIKE ? OR review LIKE ?
		ORDER BY path, block, row_index
		LIMIT ?
	`, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanEntries(rows)
}
