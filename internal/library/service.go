// Package library coordinates vault storage, the book catalog and the
// reading-log commands for the HTTP, MCP and CLI front ends.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/booker/internal/apperr"
	"github.com/starford/booker/internal/bookservice"
	"github.com/starford/booker/internal/checksum"
	"github.com/starford/booker/internal/document"
	"github.com/starford/booker/internal/host"
	"github.com/starford/booker/internal/index"
	"github.com/starford/booker/internal/models"
	"github.com/starford/booker/internal/storage"
)

// Events receives change notifications. *sse.Broker satisfies it.
type Events interface {
	PublishDocumentEvent(kind, path string)
	PublishBookInserted(path, isbn, title string)
}

// DocumentDetail is the full representation of a vault document.
type DocumentDetail struct {
	Path        string                `json:"path"`
	Content     string                `json:"content"`
	Checksum    string                `json:"checksum"`
	Frontmatter map[string]any        `json:"frontmatter,omitempty"`
	Tables      []int                 `json:"tables"`
	Books       []models.CatalogEntry `json:"books"`
}

// Result reports the outcome of a command together with the notifications
// the command produced.
type Result struct {
	Book     *models.Book    `json:"book,omitempty"`
	Messages []host.Message  `json:"messages"`
	Document *DocumentDetail `json:"document,omitempty"`
}

// Service coordinates storage, catalog and book commands.
type Service struct {
	store  storage.Provider
	db     index.Catalog
	books  *bookservice.Service
	logger *slog.Logger
	events Events

	// Writes to one document run one at a time, so a command never commits
	// over a change it did not read.
	locks pathLocks
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEvents sets the change notification sink.
func WithEvents(e Events) Option {
	return func(s *Service) { s.events = e }
}

// NewService creates a new library service.
func NewService(store storage.Provider, db index.Catalog, opts ...Option) *Service {
	s := &Service{store: store, db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.books = bookservice.NewService(bookservice.WithLogger(s.logger))
	return s
}

// GetDocument reads a document and the books catalogued from it.
func (s *Service) GetDocument(_ context.Context, path string) (*DocumentDetail, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(path, data)
}

// PutDocument creates or replaces a document. A non-empty ifMatch must equal
// the current checksum.
func (s *Service) PutDocument(_ context.Context, path string, content []byte, ifMatch string) (*DocumentDetail, error) {
	defer s.locks.lock(path)()

	existing, err := s.read(path)
	created := errors.Is(err, apperr.ErrNotFound)
	if err != nil && !created {
		return nil, err
	}
	if ifMatch != "" && !checksum.Matches(ifMatch, existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	kind := "updated"
	if created {
		kind = "created"
	}
	s.reindex(path, content, kind)
	return s.buildDetail(path, content)
}

// DeleteDocument removes a document from the vault and the catalog.
func (s *Service) DeleteDocument(_ context.Context, path string) error {
	defer s.locks.lock(path)()

	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	if err := s.db.DeleteDocument(path); err != nil {
		return err
	}
	s.publishDocument("deleted", path)
	return nil
}

// InsertBook inserts a book into the table above block of the document at
// path. The ISBN is read from the block itself; the rest of the record comes
// from meta.
func (s *Service) InsertBook(ctx context.Context, path string, block int, meta bookservice.MetadataSource) (*Result, error) {
	defer s.locks.lock(path)()

	if _, err := s.read(path); err != nil {
		return &Result{Messages: []host.Message{}}, err
	}
	h := host.NewVault(s.store, path, block, s.logger)
	book, err := s.books.InsertBook(ctx, h, meta)
	res := &Result{Messages: h.Messages()}
	if err != nil {
		return res, err
	}
	res.Book = &book
	if s.events != nil {
		s.events.PublishBookInserted(path, book.ISBN, book.Title)
	}
	res.Document, err = s.afterWrite(path)
	return res, err
}

// CreateTable seeds block of the document at path with a table template.
func (s *Service) CreateTable(ctx context.Context, path string, block int, template string) (*Result, error) {
	defer s.locks.lock(path)()

	h := host.NewVault(s.store, path, block, s.logger)
	err := s.books.CreateTable(ctx, h, template)
	res := &Result{Messages: h.Messages()}
	if err != nil {
		return res, err
	}
	res.Document, err = s.afterWrite(path)
	return res, err
}

// Search runs a catalog search.
func (s *Service) Search(_ context.Context, query string, limit int) ([]models.CatalogEntry, error) {
	return s.db.Search(query, limit)
}

// ListBooks returns a page of the catalog.
func (s *Service) ListBooks(_ context.Context, limit, offset int) ([]models.CatalogEntry, int, error) {
	return s.db.ListBooks(limit, offset)
}

// FindByISBN returns every place an ISBN was logged.
func (s *Service) FindByISBN(_ context.Context, isbn string) ([]models.CatalogEntry, error) {
	return s.db.FindByISBN(isbn)
}

// Sync reconciles the catalog with the vault.
func (s *Service) Sync(_ context.Context) error {
	return index.Sync(s.db, s.store, s.logger)
}

func (s *Service) afterWrite(path string) (*DocumentDetail, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	s.reindex(path, data, "updated")
	return s.buildDetail(path, data)
}

// reindex refreshes the catalog for one document. Failures are logged; the
// watcher and the next sync will retry.
func (s *Service) reindex(path string, data []byte, kind string) {
	if err := index.IndexDocument(s.db, path, data); err != nil {
		s.logger.Warn("reindex failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	s.publishDocument(kind, path)
}

func (s *Service) publishDocument(kind, path string) {
	if s.events != nil {
		s.events.PublishDocumentEvent(kind, path)
	}
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("document %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

func (s *Service) buildDetail(path string, data []byte) (*DocumentDetail, error) {
	books, err := s.db.FindByPath(path)
	if err != nil {
		return nil, err
	}
	doc := document.Parse(data)
	return &DocumentDetail{
		Path:        path,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Frontmatter: doc.Frontmatter,
		Tables:      nonNilSlice(doc.Tables()),
		Books:       nonNilSlice(books),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
