// Package apperr holds the sentinel errors shared across booker packages.
package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrInvalidPath = errors.New("invalid document path")

	// Table editing.
	ErrIndexOutOfRange = errors.New("row index out of range")
	ErrNoEmptyRow      = errors.New("no empty row in table")

	// Host-level preconditions for the insert and table commands.
	ErrNoISBN        = errors.New("no ISBN found")
	ErrNoTable       = errors.New("no table found")
	ErrBlockNotEmpty = errors.New("block is not empty")
)
