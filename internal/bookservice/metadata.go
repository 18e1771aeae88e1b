package bookservice

import (
	"context"

	"github.com/starford/booker/internal/models"
)

// MetadataSource resolves the catalogue data for an ISBN.
type MetadataSource interface {
	Lookup(ctx context.Context, isbn string) (models.Book, error)
}

// Static is a MetadataSource that returns a caller-supplied record stamped
// with the requested ISBN.
type Static struct {
	Book models.Book
}

// Lookup implements MetadataSource.
func (s Static) Lookup(_ context.Context, isbn string) (models.Book, error) {
	b := s.Book
	b.ISBN = isbn
	if b.Authors != nil {
		b.Authors = append([]string(nil), b.Authors...)
	}
	return b, nil
}
