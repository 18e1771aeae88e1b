package api

import (
	"github.com/starford/booker/internal/bookservice"
	"github.com/starford/booker/internal/host"
	"github.com/starford/booker/internal/library"
	"github.com/starford/booker/internal/models"
)

// PutDocumentRequest is the request body for creating or replacing a document.
type PutDocumentRequest struct {
	Content string `json:"content" example:"# 2025\n" validate:"required"`
}

// InsertBookRequest is the request body for POST /documents/{path}/books.
// The ISBN is read from the addressed block; the remaining fields fill the row.
// Block defaults to the last block of the document.
type InsertBookRequest struct {
	Block        *int     `json:"block,omitempty" example:"-1"`
	Title        string   `json:"title" example:"Dune"`
	Authors      []string `json:"authors" example:"Frank Herbert"`
	PageCount    *int     `json:"pageCount,omitempty" example:"412"`
	DateAdded    string   `json:"dateAdded,omitempty" example:"2025-01-02"`
	DateFinished string   `json:"dateFinished,omitempty" example:"2025-02-10"`
	Rating       *float64 `json:"rating,omitempty" example:"4.5"`
	Review       string   `json:"review,omitempty"`
}

func (r InsertBookRequest) block() int {
	if r.Block == nil {
		return -1
	}
	return *r.Block
}

func (r InsertBookRequest) metadata() bookservice.MetadataSource {
	return bookservice.Static{Book: models.Book{
		Title:        r.Title,
		Authors:      r.Authors,
		PageCount:    r.PageCount,
		DateAdded:    r.DateAdded,
		DateFinished: r.DateFinished,
		Rating:       r.Rating,
		Review:       r.Review,
	}}
}

// CreateTableRequest is the request body for POST /documents/{path}/tables.
// Without a block the table is appended after the last block.
type CreateTableRequest struct {
	Template string `json:"template" example:"basic"`
	Block    *int   `json:"block,omitempty"`
}

func (r CreateTableRequest) block() int {
	if r.Block == nil {
		return host.NewBlock
	}
	return *r.Block
}

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = library.DocumentDetail

// CommandResponse is returned by the book and table commands.
type CommandResponse = library.Result

// BookListResponse wraps catalog listings and search hits.
type BookListResponse struct {
	Books []models.CatalogEntry `json:"books" validate:"required"`
	Total int                   `json:"total" example:"42" validate:"required"`
}

// TemplateListResponse lists the table templates.
type TemplateListResponse struct {
	Templates []Template `json:"templates" validate:"required"`
}

// Template is a named table template.
type Template struct {
	Name     string `json:"name" example:"basic"`
	Markdown string `json:"markdown"`
}
