package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/starford/booker/internal/apperr"
	"github.com/starford/booker/internal/booktable"
	"github.com/starford/booker/internal/checksum"
	"github.com/starford/booker/internal/document"
	"github.com/starford/booker/internal/storage"
)

// NewBlock addresses the empty position after the last block of a document.
const NewBlock = math.MinInt

// Vault is a Host over one block of a vault document. The document is read
// once; writes fail with apperr.ErrConflict if the file changed on disk in
// the meantime. A Vault is not safe for concurrent use.
type Vault struct {
	store  storage.Provider
	path   string
	block  int
	logger *slog.Logger

	doc      *document.Document
	sum      string
	messages []Message
}

var _ Host = (*Vault)(nil)

// NewVault creates a host whose cursor sits on block of the document at path.
// Negative blocks count from the end; NewBlock targets a fresh block.
func NewVault(store storage.Provider, path string, block int, logger *slog.Logger) *Vault {
	if logger == nil {
		logger = slog.Default()
	}
	return &Vault{store: store, path: path, block: block, logger: logger}
}

// Messages returns the notifications sent so far.
func (v *Vault) Messages() []Message {
	out := make([]Message, len(v.messages))
	copy(out, v.messages)
	return out
}

// CurrentContent implements Host.
func (v *Vault) CurrentContent(_ context.Context) (string, error) {
	cur, err := v.cursor()
	if err != nil {
		return "", err
	}
	return v.doc.Block(cur)
}

// PreviousTableText implements Host.
func (v *Vault) PreviousTableText(_ context.Context) (string, error) {
	cur, err := v.cursor()
	if err != nil {
		return "", err
	}
	if cur == 0 {
		return "", nil
	}
	text, err := v.doc.Block(cur - 1)
	if err != nil {
		return "", err
	}
	if !booktable.IsTable(text) {
		return "", nil
	}
	return text, nil
}

// Commit implements Host.
func (v *Vault) Commit(_ context.Context, text string) error {
	cur, err := v.cursor()
	if err != nil {
		return err
	}
	if cur == 0 {
		return fmt.Errorf("host: %s: %w", v.path, apperr.ErrNoTable)
	}
	if err := v.doc.SetBlock(cur-1, text); err != nil {
		return err
	}
	return v.save()
}

// ReplaceCurrent implements Host.
func (v *Vault) ReplaceCurrent(_ context.Context, text string) error {
	cur, err := v.cursor()
	if err != nil {
		return err
	}
	if err := v.doc.SetBlock(cur, text); err != nil {
		return err
	}
	return v.save()
}

// Notify implements Host.
func (v *Vault) Notify(ctx context.Context, message string, level Level) {
	v.messages = append(v.messages, Message{Text: message, Level: level})
	v.logger.Log(ctx, slogLevel(level), message,
		slog.String("path", v.path),
		slog.String("level", string(level)))
}

// cursor loads the document on first use and resolves the block index.
func (v *Vault) cursor() (int, error) {
	if err := v.load(); err != nil {
		return 0, err
	}
	if v.block == NewBlock {
		return v.doc.Len(), nil
	}
	return v.doc.Index(v.block)
}

func (v *Vault) load() error {
	if v.doc != nil {
		return nil
	}
	data, err := v.readCurrent()
	if err != nil {
		return err
	}
	v.doc = document.Parse(data)
	v.sum = checksum.Of(data)
	return nil
}

// readCurrent returns the document bytes, or nil when the document does not
// exist yet.
func (v *Vault) readCurrent() ([]byte, error) {
	data, err := v.store.Read(v.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (v *Vault) save() error {
	onDisk, err := v.readCurrent()
	if err != nil {
		return err
	}
	if checksum.Of(onDisk) != v.sum {
		return fmt.Errorf("host: %s changed since it was read: %w", v.path, apperr.ErrConflict)
	}

	data := v.doc.Bytes()
	if err := v.store.Write(v.path, data); err != nil {
		return err
	}
	v.sum = checksum.Sum(data)
	return nil
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelError:
		return slog.LevelError
	case LevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
