package booktable

import (
	"fmt"
	"strings"

	"github.com/starford/booker/internal/apperr"
	"github.com/starford/booker/internal/models"
)

// ReplaceRow swaps the data row at rowIndex for newRow and returns the whole
// table. Every other line is kept as is.
func ReplaceRow(table string, rowIndex int, newRow string) (string, error) {
	ls := lines(table)
	rows := DataRows(table)
	if rowIndex < 0 || rowIndex >= len(rows) {
		return "", fmt.Errorf("%w: index %d, table has %d data rows", apperr.ErrIndexOutOfRange, rowIndex, len(rows))
	}

	out := make([]string, len(ls))
	copy(out, ls)
	out[firstDataLine+rowIndex] = newRow
	return strings.Join(out, "\n"), nil
}

// AppendEmptyRow adds a blank row of columnCount cells as the last line. The
// count is not checked against the header.
func AppendEmptyRow(table string, columnCount int) string {
	return table + "\n" + EmptyRow(columnCount)
}

// InsertBook writes book into the first empty data row of table and appends
// a fresh empty row so the next insert has somewhere to go.
func InsertBook(table string, book models.Book) (string, error) {
	idx := FindFirstEmptyRowIndex(table)
	if idx == -1 {
		return "", apperr.ErrNoEmptyRow
	}
	columns := ColumnCount(table)
	updated, err := ReplaceRow(table, idx, FormatRow(book, columns))
	if err != nil {
		return "", err
	}
	return AppendEmptyRow(updated, columns), nil
}
