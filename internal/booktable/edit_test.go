package booktable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/booker/internal/apperr"
	"github.com/starford/booker/internal/models"
)

const logTable = "| ISBN | Title | Authors |\n|---|---|---|\n| 1111111111 | A | X |\n|  |  |  |\n| 2222222222 | B | Y |"

func TestReplaceRow(t *testing.T) {
	got, err := ReplaceRow(logTable, 1, "| 3 | C | Z |")
	require.NoError(t, err)
	assert.Equal(t, "| ISBN | Title | Authors |\n|---|---|---|\n| 1111111111 | A | X |\n| 3 | C | Z |\n| 2222222222 | B | Y |", got)
}

func TestReplaceRow_Bounds(t *testing.T) {
	rows := len(DataRows(logTable))

	_, err := ReplaceRow(logTable, -1, "| x |")
	assert.ErrorIs(t, err, apperr.ErrIndexOutOfRange)

	_, err = ReplaceRow(logTable, rows, "| x |")
	assert.ErrorIs(t, err, apperr.ErrIndexOutOfRange)

	got, err := ReplaceRow(logTable, rows-1, "| x |")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "\n| x |"))
}

func TestReplaceRow_MalformedTable(t *testing.T) {
	for _, table := range []string{"", "| a |", "| a |\n|---|"} {
		_, err := ReplaceRow(table, 0, "| x |")
		assert.ErrorIs(t, err, apperr.ErrIndexOutOfRange, "table %q", table)
	}
}

func TestAppendEmptyRow(t *testing.T) {
	got := AppendEmptyRow("| a | b |\n|---|---|", 2)
	assert.Equal(t, "| a | b |\n|---|---|\n|  |  |", got)
	// The count is taken as given.
	assert.Equal(t, "| a |\n|---|\n|  |  |  |", AppendEmptyRow("| a |\n|---|", 3))
}

func TestRoundTrip(t *testing.T) {
	table := "| ISBN | Title | Authors | Pages | Date added | Date Finished |\n" +
		"|-----|-------|---------|-------|------------|---------------|\n" +
		"| 1111111111 | A | X |  |  |  |\n" +
		"|     |       |         |       |            |               |\n" +
		"| 2222222222 | B | Y |  |  |  |"
	c := ColumnCount(table)
	i := FindFirstEmptyRowIndex(table)
	require.Equal(t, 6, c)
	require.Equal(t, 1, i)

	book := models.Book{ISBN: "9780441013593", Title: "Dune", Authors: []string{"Frank Herbert"}}
	got, err := ReplaceRow(AppendEmptyRow(table, c), i, FormatRow(book, c))
	require.NoError(t, err)

	before := strings.Split(table, "\n")
	after := strings.Split(got, "\n")
	require.Len(t, after, len(before)+1)
	for n := range before {
		if n == firstDataLine+i {
			assert.Equal(t, FormatRow(book, c), after[n])
			continue
		}
		assert.Equal(t, before[n], after[n], "line %d", n)
	}
	assert.Equal(t, EmptyRow(c), after[len(after)-1])
}

func TestInsertBook(t *testing.T) {
	table := "| ISBN | Title |\n|---|---|\n|  |  |"
	assert.Equal(t, 0, FindFirstEmptyRowIndex(table))

	got, err := InsertBook(table, models.Book{ISBN: "123", Title: "X", Authors: []string{}})
	require.NoError(t, err)
	assert.Equal(t, "| ISBN | Title |\n|---|---|\n| 123 | X |\n|  |  |", got)
}

func TestInsertBook_NoEmptyRow(t *testing.T) {
	_, err := InsertBook("| ISBN | Title |\n|---|---|\n| 1 | A |", models.Book{ISBN: "123"})
	assert.ErrorIs(t, err, apperr.ErrNoEmptyRow)
}
