// Package booktable edits pipe-delimited markdown tables that hold a reading
// log: it finds ISBN tokens, locates blank rows, formats book rows and splices
// them back into the table text.
//
// Every function is pure. Tables are reparsed from the text on each call.
package booktable

import (
	"regexp"
	"strings"
)

var (
	isbnGateRe  = regexp.MustCompile(`^\d{10,13}\s*$`)
	isbnTokenRe = regexp.MustCompile(`(\d{10,13})\s*$`)
)

// ExtractISBN returns the 10-13 digit ISBN that makes up text, or "" when the
// trimmed text is anything other than the digits themselves. Labels such as
// "ISBN 978..." are rejected.
func ExtractISBN(text string) string {
	trimmed := strings.TrimSpace(text)
	if !isbnGateRe.MatchString(trimmed) {
		return ""
	}
	m := isbnTokenRe.FindStringSubmatch(trimmed)
	if m == nil {
		return ""
	}
	return m[1]
}
