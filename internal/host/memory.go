package host

import "context"

// Memory is an in-process Host holding plain strings.
type Memory struct {
	Current  string
	Table    string
	Messages []Message

	// Committed and Replaced record the last text written by each method.
	Committed string
	Replaced  string

	// CommitErr, when set, is returned by Commit and ReplaceCurrent.
	CommitErr error
}

var _ Host = (*Memory)(nil)

// CurrentContent implements Host.
func (m *Memory) CurrentContent(context.Context) (string, error) { return m.Current, nil }

// PreviousTableText implements Host.
func (m *Memory) PreviousTableText(context.Context) (string, error) { return m.Table, nil }

// Commit implements Host.
func (m *Memory) Commit(_ context.Context, text string) error {
	if m.CommitErr != nil {
		return m.CommitErr
	}
	m.Committed = text
	m.Table = text
	return nil
}

// ReplaceCurrent implements Host.
func (m *Memory) ReplaceCurrent(_ context.Context, text string) error {
	if m.CommitErr != nil {
		return m.CommitErr
	}
	m.Replaced = text
	m.Current = text
	return nil
}

// Notify implements Host.
func (m *Memory) Notify(_ context.Context, message string, level Level) {
	m.Messages = append(m.Messages, Message{Text: message, Level: level})
}
