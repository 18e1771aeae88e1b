package booktable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnCount(t *testing.T) {
	assert.Equal(t, 3, ColumnCount("| a | b | c |\n|---|---|---|"))
	assert.Equal(t, 2, ColumnCount("a | b\n---|---"))
	assert.Equal(t, 0, ColumnCount(""))
	assert.Equal(t, 0, ColumnCount("\n|---|"))
	// Blank header cells are not columns.
	assert.Equal(t, 2, ColumnCount("| a |   | b |"))
}

func TestIsEmptyRow(t *testing.T) {
	for _, row := range []string{"|  |  |  |", "| | |", "", "   ", "|", "||", "|     |       |"} {
		assert.True(t, IsEmptyRow(row), "row %q", row)
	}
	for _, row := range []string{"| a | | |", "|---|---|", "x", "| | | z"} {
		assert.False(t, IsEmptyRow(row), "row %q", row)
	}
}

func TestFindFirstEmptyRowIndex(t *testing.T) {
	tests := []struct {
		name  string
		table string
		want  int
	}{
		{
			name:  "filled then blank",
			table: "| ISBN | Title |\n|---|---|\n| 1 | A |\n|  |  |",
			want:  1,
		},
		{
			name:  "first row blank",
			table: "| ISBN | Title |\n|---|---|\n|  |  |",
			want:  0,
		},
		{
			name:  "no blank row",
			table: "| ISBN | Title |\n|---|---|\n| 1 | A |",
			want:  -1,
		},
		{
			name:  "header and separator only",
			table: "| ISBN | Title |\n|---|---|",
			want:  -1,
		},
		{
			name:  "blank header is not inspected",
			table: "|  |  |\n|  |  |\n| 1 | A |",
			want:  -1,
		},
		{
			name:  "trailing newline yields a blank row",
			table: "| ISBN | Title |\n|---|---|\n| 1 | A |\n",
			want:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindFirstEmptyRowIndex(tt.table))
		})
	}
}

func TestCells(t *testing.T) {
	assert.Equal(t, []string{"a", "", "c"}, Cells("| a |  | c |"))
	assert.Equal(t, []string{"a", "b"}, Cells("a | b"))
	assert.Nil(t, Cells("   "))
}

func TestIsTable(t *testing.T) {
	assert.True(t, IsTable("| a | b |\n|---|:--:|"))
	assert.True(t, IsTable("| a | b |\n|---|---|\n|  |  |"))
	assert.False(t, IsTable("| a | b |"))
	assert.False(t, IsTable("just a paragraph\nwith two lines"))
	assert.False(t, IsTable("| a | b |\n| c | d |"))
	assert.False(t, IsTable(""))
}
