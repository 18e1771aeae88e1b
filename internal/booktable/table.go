package booktable

import "strings"

const (
	headerLine    = 0
	separatorLine = 1
	firstDataLine = 2
)

func lines(table string) []string {
	return strings.Split(table, "\n")
}

// ColumnCount returns the number of non-blank header cells. A table without a
// header line has zero columns.
func ColumnCount(table string) int {
	header := lines(table)[headerLine]
	if header == "" {
		return 0
	}
	n := 0
	for _, cell := range strings.Split(header, "|") {
		if strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}

// IsEmptyRow reports whether every cell of row is blank. Rows made only of
// pipes and whitespace, and the empty string, are empty.
func IsEmptyRow(row string) bool {
	for _, cell := range strings.Split(row, "|") {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// DataRows returns the lines after the header and separator.
func DataRows(table string) []string {
	ls := lines(table)
	if len(ls) <= firstDataLine {
		return nil
	}
	return ls[firstDataLine:]
}

// FindFirstEmptyRowIndex returns the index, relative to the first data row, of
// the first empty data row, or -1.
func FindFirstEmptyRowIndex(table string) int {
	for i, row := range DataRows(table) {
		if IsEmptyRow(row) {
			return i
		}
	}
	return -1
}

// Cells splits row on pipes and trims every cell. The boundary cells produced
// by a leading or trailing pipe are dropped; blank interior cells are kept.
func Cells(row string) []string {
	trimmed := strings.TrimSpace(row)
	if trimmed == "" {
		return nil
	}
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")
	parts := strings.Split(trimmed, "|")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// IsTable reports whether text starts with a header and a separator line.
func IsTable(text string) bool {
	ls := lines(text)
	if len(ls) < firstDataLine || ColumnCount(text) == 0 {
		return false
	}
	return isSeparator(ls[separatorLine])
}

func isSeparator(line string) bool {
	dashes := 0
	for _, r := range line {
		switch r {
		case '-':
			dashes++
		case '|', ':', ' ', '\t', '\r':
		default:
			return false
		}
	}
	return dashes > 0
}
