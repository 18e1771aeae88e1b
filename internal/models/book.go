// Package models defines the domain types for Booker.
package models

import "time"

// Book is a single reading-log record. Zero values mean "absent" and render
// as empty cells.
type Book struct {
	ISBN         string   `json:"isbn"`
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	PageCount    *int     `json:"page_count,omitempty"`
	DateAdded    string   `json:"date_added,omitempty"`
	DateFinished string   `json:"date_finished,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	Review       string   `json:"review,omitempty"`
}

// DocumentMetadata is a lightweight representation returned by vault listings.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CatalogEntry is a book found in a vault table: the document, the block
// holding the table and the data row within it.
type CatalogEntry struct {
	Book
	Path     string `json:"path"`
	Block    int    `json:"block"`
	RowIndex int    `json:"row_index"`
}
