package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/booker/internal/models"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

const bookColumns = `path, block, row_index, isbn, title, authors, pages, date_added, date_finished, rating, review`

// UpsertDocument replaces every catalog entry for a document within a
// transaction.
func (db *DB) UpsertDocument(d DocumentRow, entries []models.CatalogEntry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now()
	}
	_, err = tx.Exec(`
		INSERT INTO documents (path, checksum, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, d.Path, d.Checksum, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM books WHERE path = ?`, d.Path); err != nil {
		return fmt.Errorf("index: clear books: %w", err)
	}
	if err := ftsDelete(tx, d.Path); err != nil {
		return err
	}

	if len(entries) > 0 {
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO books (` + bookColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare book insert: %w", err)
		}
		defer stmt.Close()
		for _, e := range entries {
			authors, _ := json.Marshal(nonNilSlice(e.Authors))
			if _, err := stmt.Exec(d.Path, e.Block, e.RowIndex, e.ISBN, e.Title, string(authors),
				nullInt(e.PageCount), e.DateAdded, e.DateFinished, nullFloat(e.Rating), e.Review); err != nil {
				return fmt.Errorf("index: insert book: %w", err)
			}
			if err := ftsInsert(tx, d.Path, e); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document and all of its books.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM books WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete books: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or "" if it is not
// indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListBooks returns a page of catalog entries ordered by document and row,
// plus the total count.
func (db *DB) ListBooks(limit, offset int) ([]models.CatalogEntry, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM books`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count books: %w", err)
	}
	rows, err := db.conn.Query(`SELECT `+bookColumns+` FROM books
		ORDER BY path, block, row_index
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list books: %w", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// FindByISBN returns every place the ISBN was logged.
func (db *DB) FindByISBN(isbn string) ([]models.CatalogEntry, error) {
	rows, err := db.conn.Query(`SELECT `+bookColumns+` FROM books WHERE isbn = ?
		ORDER BY path, block, row_index`, isbn)
	if err != nil {
		return nil, fmt.Errorf("index: find by isbn: %w", err)
	}
	return scanEntries(rows)
}

// FindByPath returns the books catalogued from one document.
func (db *DB) FindByPath(path string) ([]models.CatalogEntry, error) {
	rows, err := db.conn.Query(`SELECT `+bookColumns+` FROM books WHERE path = ?
		ORDER BY block, row_index`, path)
	if err != nil {
		return nil, fmt.Errorf("index: find by path: %w", err)
	}
	return scanEntries(rows)
}

// scanEntries reads bookColumns rows and closes rows.
func scanEntries(rows *sql.Rows) ([]models.CatalogEntry, error) {
	defer rows.Close()
	var out []models.CatalogEntry
	for rows.Next() {
		var (
			e       models.CatalogEntry
			authors string
			pages   sql.NullInt64
			rating  sql.NullFloat64
		)
		if err := rows.Scan(&e.Path, &e.Block, &e.RowIndex, &e.ISBN, &e.Title, &authors,
			&pages, &e.DateAdded, &e.DateFinished, &rating, &e.Review); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(authors), &e.Authors)
		if pages.Valid {
			n := int(pages.Int64)
			e.PageCount = &n
		}
		if rating.Valid {
			f := rating.Float64
			e.Rating = &f
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
