package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/booker/internal/apperr"
	"github.com/starford/booker/internal/booktable"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		columns int
	}{
		{name: Basic, columns: 6},
		{name: Advanced, columns: 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Get(tt.name)
			require.NoError(t, err)
			assert.True(t, booktable.IsTable(table))
			assert.Equal(t, tt.columns, booktable.ColumnCount(table))
			assert.Equal(t, 0, booktable.FindFirstEmptyRowIndex(table))
		})
	}
}

func TestGet_Unknown(t *testing.T) {
	_, err := Get("fancy")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestNames(t *testing.T) {
	for _, name := range Names() {
		_, err := Get(name)
		assert.NoError(t, err, name)
	}
	assert.Equal(t, []string{Basic, Advanced}, Names())
}
