// Package templates provides the reading-log tables that a new block can be
// seeded with.
package templates

import (
	"fmt"

	"github.com/starford/booker/internal/apperr"
)

// Template names.
const (
	Basic    = "basic"
	Advanced = "advanced"
)

const basic = `| ISBN | Title | Authors | Pages | Date added | Date finished |
|------|-------|---------|-------|------------|---------------|
|      |       |         |       |            |               |`

const advanced = `| ISBN | Title | Authors | Pages | Date added | Date finished | Rating | Review |
|------|-------|---------|-------|------------|---------------|--------|--------|
|      |       |         |       |            |               |        |        |`

var byName = map[string]string{
	Basic:    basic,
	Advanced: advanced,
}

// Names returns the available template names.
func Names() []string {
	return []string{Basic, Advanced}
}

// Get returns the markdown for the named template.
func Get(name string) (string, error) {
	t, ok := byName[name]
	if !ok {
		return "", fmt.Errorf("template %q: %w", name, apperr.ErrNotFound)
	}
	return t, nil
}
