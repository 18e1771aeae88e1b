// Package document splits a Markdown file into blocks (runs of non-blank
// lines) so that a single block can be read and rewritten in place. Fenced
// code is kept in one block, blank lines included.
//
// Rendering splices edited blocks into the original bytes: frontmatter, the
// gaps between blocks, line endings and untouched blocks are written back
// exactly as they were read.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/booker/internal/apperr"
	"github.com/starford/booker/internal/booktable"
)

// Document is a parsed Markdown file. Blocks hold the text of each block with
// "\n" line endings.
type Document struct {
	Frontmatter map[string]any
	Blocks      []string

	src    string
	spans  []span
	edited map[int]bool
}

// span is the byte range of a block in src, excluding its final line
// terminator. Blocks added after parsing have start < 0.
type span struct {
	start, end int
}

// Parse splits data into optional YAML frontmatter and body blocks.
func Parse(data []byte) *Document {
	fm, body := splitFrontmatter(data)
	d := &Document{
		Frontmatter: fm,
		src:         string(data),
		edited:      make(map[int]bool),
	}
	d.Blocks, d.spans = splitBlocks(d.src, len(data)-len(body))
	return d
}

// Len returns the number of blocks.
func (d *Document) Len() int {
	return len(d.Blocks)
}

// Index resolves i to an absolute block position. Negative values count from
// the end (-1 is the last block). Len() itself is valid and addresses a new
// block after the last one.
func (d *Document) Index(i int) (int, error) {
	abs := i
	if i < 0 {
		abs = len(d.Blocks) + i
	}
	if abs < 0 || abs > len(d.Blocks) {
		return 0, fmt.Errorf("document: block %d of %d: %w", i, len(d.Blocks), apperr.ErrIndexOutOfRange)
	}
	return abs, nil
}

// Block returns the text of block i, or "" for the position after the last
// block.
func (d *Document) Block(i int) (string, error) {
	abs, err := d.Index(i)
	if err != nil {
		return "", err
	}
	if abs == len(d.Blocks) {
		return "", nil
	}
	return d.Blocks[abs], nil
}

// SetBlock replaces block i with text, appending when i addresses the
// position after the last block.
func (d *Document) SetBlock(i int, text string) error {
	abs, err := d.Index(i)
	if err != nil {
		return err
	}
	text = strings.Trim(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if abs == len(d.Blocks) {
		d.Blocks = append(d.Blocks, text)
		d.spans = append(d.spans, span{start: -1, end: -1})
	} else {
		if d.Blocks[abs] == text {
			return nil
		}
		d.Blocks[abs] = text
	}
	d.edited[abs] = true
	return nil
}

// Tables returns the positions of blocks that hold a markdown table.
func (d *Document) Tables() []int {
	var out []int
	for i, b := range d.Blocks {
		if booktable.IsTable(b) {
			out = append(out, i)
		}
	}
	return out
}

// Bytes renders the document. Without edits it returns the parsed bytes
// unchanged. New blocks are appended after a blank line.
func (d *Document) Bytes() []byte {
	if len(d.edited) == 0 {
		return []byte(d.src)
	}
	eol := d.eol()

	var b strings.Builder
	cursor := 0
	for i, sp := range d.spans {
		if sp.start < 0 {
			continue
		}
		b.WriteString(d.src[cursor:sp.start])
		if d.edited[i] {
			b.WriteString(strings.ReplaceAll(d.Blocks[i], "\n", d.blockEOL(sp, eol)))
		} else {
			b.WriteString(d.src[sp.start:sp.end])
		}
		cursor = sp.end
	}
	b.WriteString(d.src[cursor:])

	out := b.String()
	for i, sp := range d.spans {
		if sp.start >= 0 || d.Blocks[i] == "" {
			continue
		}
		if out != "" {
			if !strings.HasSuffix(out, "\n") {
				out += eol
			}
			if !endsWithBlankLine(out) {
				out += eol
			}
		}
		out += strings.ReplaceAll(d.Blocks[i], "\n", eol) + eol
	}
	return []byte(out)
}

// eol is the line terminator of the first line in the source, "\n" by
// default.
func (d *Document) eol() string {
	if i := strings.IndexByte(d.src, '\n'); i > 0 && d.src[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// blockEOL is the line terminator used inside the parsed block at sp, or
// after it for a single-line block.
func (d *Document) blockEOL(sp span, fallback string) string {
	raw := d.src[sp.start:sp.end]
	switch {
	case strings.Contains(raw, "\r\n"):
		return "\r\n"
	case strings.Contains(raw, "\n"):
		return "\n"
	case strings.HasPrefix(d.src[sp.end:], "\r\n"):
		return "\r\n"
	case strings.HasPrefix(d.src[sp.end:], "\n"):
		return "\n"
	}
	return fallback
}

func endsWithBlankLine(s string) bool {
	s = strings.TrimSuffix(s, "\n")
	last := s[strings.LastIndexByte(s, '\n')+1:]
	return strings.TrimSpace(last) == "" && strings.Contains(s, "\n")
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the body. The body is always a suffix of data; without valid
// frontmatter it is all of data.
func splitFrontmatter(data []byte) (map[string]any, []byte) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, data
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, data
	}

	yamlBlock := rest[:idx]
	end := len(delim) + idx + 1 + len(delim)

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, data
	}
	return fm, trimmed[end:]
}

// splitBlocks scans src from offset off and returns the blocks with their
// spans. Lines that are empty or whitespace-only separate blocks, except
// inside a ``` or ~~~ fence.
func splitBlocks(src string, off int) ([]string, []span) {
	var (
		blocks  []string
		spans   []span
		current []string
		cur     span
		fence   string
	)
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			spans = append(spans, cur)
			current = nil
		}
	}

	pos := off
	for pos <= len(src) {
		end := len(src)
		if i := strings.IndexByte(src[pos:], '\n'); i >= 0 {
			end = pos + i
		}
		line := strings.TrimSuffix(src[pos:end], "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case fence != "":
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
		case strings.HasPrefix(trimmed, "```"):
			fence = "```"
		case strings.HasPrefix(trimmed, "~~~"):
			fence = "~~~"
		}

		if trimmed == "" && fence == "" {
			flush()
		} else {
			if len(current) == 0 {
				cur.start = pos
			}
			current = append(current, line)
			cur.end = pos + len(line)
		}

		if end == len(src) {
			break
		}
		pos = end + 1
	}
	flush()
	return blocks, spans
}
