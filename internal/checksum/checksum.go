// Package checksum fingerprints vault documents for change detection and
// optimistic concurrency.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Of returns the checksum of a document that may not exist: nil data yields
// "".
func Of(data []byte) string {
	if data == nil {
		return ""
	}
	return Sum(data)
}

// Matches reports whether an If-Match style token (optionally quoted,
// case-insensitive) names the checksum of data.
func Matches(token string, data []byte) bool {
	token = strings.Trim(strings.TrimSpace(token), `"`)
	return data != nil && strings.EqualFold(token, Sum(data))
}
