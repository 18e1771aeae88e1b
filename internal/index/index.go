package index

import "github.com/starford/booker/internal/models"

// Catalog defines the book catalog operations.
// Consumers should depend on this interface rather than the concrete *DB type.
type Catalog interface {
	UpsertDocument(d DocumentRow, entries []models.CatalogEntry) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListBooks(limit, offset int) ([]models.CatalogEntry, int, error)
	FindByISBN(isbn string) ([]models.CatalogEntry, error)
	FindByPath(path string) ([]models.CatalogEntry, error)
	Search(query string, limit int) ([]models.CatalogEntry, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
