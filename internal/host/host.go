// Package host defines the collaborators the book commands run against: a
// source of the current text, the table above it, somewhere to store the
// result, and a way to tell the user what happened.
package host

import "context"

// Level is the severity of a user-facing notification.
type Level string

// Notification levels.
const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is a notification delivered through Host.Notify.
type Message struct {
	Text  string `json:"text"`
	Level Level  `json:"level"`
}

// Host is the editing surface a command operates on.
type Host interface {
	// CurrentContent returns the text of the block under the cursor.
	CurrentContent(ctx context.Context) (string, error)
	// PreviousTableText returns the table immediately above the cursor, or
	// "" when there is none.
	PreviousTableText(ctx context.Context) (string, error)
	// Commit stores text in place of the table returned by PreviousTableText.
	Commit(ctx context.Context, text string) error
	// ReplaceCurrent stores text in place of the block under the cursor.
	ReplaceCurrent(ctx context.Context, text string) error
	// Notify reports message to the user.
	Notify(ctx context.Context, message string, level Level)
}
