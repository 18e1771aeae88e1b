//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/booker/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS books_fts USING fts5(
			path UNINDEXED,
			block UNINDEXED,
			row_index UNINDEXED,
			isbn,
			title,
			authors,
			review,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, path string, e models.CatalogEntry) error {
	_, err := tx.Exec(`INSERT INTO books_fts (path, block, row_index, isbn, title, authors, review) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		path, e.Block, e.RowIndex, e.ISBN, e.Title, strings.Join(e.Authors, " "), e.Review)
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) error {
	if _, err := tx.Exec(`DELETE FROM books_fts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search over ISBN, title, authors and
// review.
func (db *DB) Search(query string, limit int) ([]models.CatalogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT b.path, b.block, b.row_index, b.isbn, b.title, b.authors, b.pages,
		       b.date_added, b.date_finished, b.rating, b.review
		FROM books_fts f
		JOIN books b ON b.path = f.path AND b.block = f.block AND b.row_index = f.row_index
		WHERE books_fts MATCH ?
		ORDER BY f.rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanEntries(rows)
}
