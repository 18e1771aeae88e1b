package booktable

import (
	"strconv"
	"strings"

	"github.com/starford/booker/internal/models"
)

// Column thresholds for the optional trailing fields.
const (
	ratingColumns = 7
	reviewColumns = 8
)

// FormatRow renders book as a table row with exactly columnCount cells.
//
// Cells follow a fixed order: ISBN, title, authors, pages, date added, date
// finished, then rating and review when the table is wide enough to hold
// them. Missing values become blank cells; extra header columns get blank
// cells; fields past columnCount are dropped.
func FormatRow(book models.Book, columnCount int) string {
	cells := []string{
		book.ISBN,
		book.Title,
		strings.Join(book.Authors, ", "),
		formatInt(book.PageCount),
		book.DateAdded,
		book.DateFinished,
	}
	if columnCount >= ratingColumns {
		cells = append(cells, formatFloat(book.Rating))
	}
	if columnCount >= reviewColumns {
		cells = append(cells, book.Review)
	}
	return joinRow(fitCells(cells, columnCount))
}

// EmptyRow renders a row of columnCount blank cells.
func EmptyRow(columnCount int) string {
	return joinRow(fitCells(nil, columnCount))
}

func fitCells(cells []string, columnCount int) []string {
	if columnCount < 0 {
		columnCount = 0
	}
	if len(cells) > columnCount {
		return cells[:columnCount]
	}
	for len(cells) < columnCount {
		cells = append(cells, "")
	}
	return cells
}

func joinRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ParseRow reads a row written by FormatRow back into a Book. It reports
// false when the first cell is not an ISBN.
func ParseRow(row string) (models.Book, bool) {
	cells := Cells(row)
	if len(cells) == 0 {
		return models.Book{}, false
	}
	isbn := ExtractISBN(cells[0])
	if isbn == "" {
		return models.Book{}, false
	}

	cell := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	book := models.Book{
		ISBN:         isbn,
		Title:        cell(1),
		Authors:      splitAuthors(cell(2)),
		DateAdded:    cell(4),
		DateFinished: cell(5),
		Review:       cell(7),
	}
	if n, err := strconv.Atoi(cell(3)); err == nil {
		book.PageCount = &n
	}
	if f, err := strconv.ParseFloat(cell(6), 64); err == nil {
		book.Rating = &f
	}
	return book, true
}

func splitAuthors(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
