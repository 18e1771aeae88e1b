// Package bookservice runs the reading-log commands against a host: inserting
// a book into the table above the cursor and seeding a block with a table.
package bookservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/booker/internal/apperr"
	"github.com/starford/booker/internal/booktable"
	"github.com/starford/booker/internal/host"
	"github.com/starford/booker/internal/models"
	"github.com/starford/booker/internal/templates"
)

// User-facing messages.
const (
	MsgNoISBN        = "No ISBN found!"
	MsgNoTable       = "No table found above the current block"
	MsgNoEmptyRow    = "No empty row found in the table"
	MsgInserted      = "Book inserted successfully!"
	MsgBlockNotEmpty = "Block must be empty to create a table"
	MsgTableCreated  = "Table created"
)

// InsertedFunc is called after a book has been committed.
type InsertedFunc func(ctx context.Context, book models.Book)

// Service coordinates the table engine with a host and a metadata source.
type Service struct {
	logger     *slog.Logger
	onInserted InsertedFunc
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithInsertedHook registers fn to run after each successful insert.
func WithInsertedHook(fn InsertedFunc) Option {
	return func(s *Service) { s.onInserted = fn }
}

// NewService creates a new book service.
func NewService(opts ...Option) *Service {
	s := &Service{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InsertBook reads an ISBN from the block under the cursor, resolves it
// through meta and writes the book into the first empty row of the table
// above. The table gains a new empty row.
func (s *Service) InsertBook(ctx context.Context, h host.Host, meta MetadataSource) (models.Book, error) {
	content, err := h.CurrentContent(ctx)
	if err != nil {
		return models.Book{}, err
	}
	isbn := booktable.ExtractISBN(content)
	if isbn == "" {
		h.Notify(ctx, MsgNoISBN, host.LevelError)
		return models.Book{}, apperr.ErrNoISBN
	}

	book, err := meta.Lookup(ctx, isbn)
	if err != nil {
		h.Notify(ctx, fmt.Sprintf("Lookup failed for %s", isbn), host.LevelError)
		return models.Book{}, fmt.Errorf("bookservice: lookup %s: %w", isbn, err)
	}

	table, err := h.PreviousTableText(ctx)
	if err != nil {
		return models.Book{}, err
	}
	if strings.TrimSpace(table) == "" {
		h.Notify(ctx, MsgNoTable, host.LevelError)
		return models.Book{}, apperr.ErrNoTable
	}

	updated, err := booktable.InsertBook(table, book)
	if err != nil {
		if errors.Is(err, apperr.ErrNoEmptyRow) {
			h.Notify(ctx, MsgNoEmptyRow, host.LevelError)
		}
		return models.Book{}, err
	}

	if err := h.Commit(ctx, updated); err != nil {
		h.Notify(ctx, "Could not save the table", host.LevelError)
		return models.Book{}, fmt.Errorf("bookservice: commit: %w", err)
	}

	s.logger.Debug("book inserted", slog.String("isbn", book.ISBN), slog.String("title", book.Title))
	h.Notify(ctx, MsgInserted, host.LevelSuccess)
	if s.onInserted != nil {
		s.onInserted(ctx, book)
	}
	return book, nil
}

// CreateTable writes the named template into the block under the cursor,
// which must be empty.
func (s *Service) CreateTable(ctx context.Context, h host.Host, template string) error {
	table, err := templates.Get(template)
	if err != nil {
		h.Notify(ctx, fmt.Sprintf("Template %s not found", template), host.LevelError)
		return err
	}

	content, err := h.CurrentContent(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) != "" {
		h.Notify(ctx, MsgBlockNotEmpty, host.LevelError)
		return apperr.ErrBlockNotEmpty
	}

	if err := h.ReplaceCurrent(ctx, table); err != nil {
		h.Notify(ctx, "Could not save the table", host.LevelError)
		return fmt.Errorf("bookservice: write template: %w", err)
	}

	s.logger.Debug("table created", slog.String("template", template))
	h.Notify(ctx, MsgTableCreated, host.LevelSuccess)
	return nil
}
