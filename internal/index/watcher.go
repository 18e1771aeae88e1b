package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/booker/internal/storage"
)

// EventCallback is called after a watcher-driven catalog change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

const (
	// settleDelay coalesces the bursts of writes editors produce on save.
	settleDelay = 100 * time.Millisecond
	// reconcileDelay waits for both halves of a rename to arrive.
	reconcileDelay = 200 * time.Millisecond
)

// Watch starts an fsnotify watcher on the vault root and keeps the catalog
// in step with the documents on disk until ctx is cancelled. It calls cb (if
// non-nil) after each catalog mutation.
//
// Writes are settled per document before re-indexing, and documents whose
// checksum already matches the catalog (for example because the API wrote
// them) are skipped. Hidden directories are not watched.
func Watch(ctx context.Context, db Catalog, store storage.Provider, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	w := &watcher{
		fsw:     fsw,
		db:      db,
		store:   store,
		root:    vaultRoot,
		logger:  logger,
		cb:      cb,
		pending: make(map[string]string),
	}
	if err := w.addTree(vaultRoot); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", vaultRoot))
	return w.loop(ctx)
}

type watcher struct {
	fsw    *fsnotify.Watcher
	db     Catalog
	store  storage.Provider
	root   string
	logger *slog.Logger
	cb     EventCallback

	// pending maps a document path to the kind of change waiting to settle.
	pending   map[string]string
	settle    *time.Timer
	reconcile *time.Timer
}

func (w *watcher) loop(ctx context.Context) error {
	defer func() {
		stopTimer(w.settle)
		stopTimer(w.reconcile)
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher: stopped")
			return nil

		case <-timerC(w.settle):
			w.flush()

		case <-timerC(w.reconcile):
			w.reconcileAll()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event) {
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.handleNewDir(ev.Name)
			return
		}
	}
	if !storage.IsDocument(ev.Name) {
		return
	}
	rel, ok := w.rel(ev.Name)
	if !ok {
		return
	}

	switch {
	case ev.Op.Has(fsnotify.Create):
		w.queue(rel, "created")
	case ev.Op.Has(fsnotify.Write):
		w.queue(rel, "updated")
	case ev.Op.Has(fsnotify.Remove):
		delete(w.pending, rel)
		w.remove(rel)
	case ev.Op.Has(fsnotify.Rename):
		// Rename fires on the old path only; the new path arrives as a
		// Create when it stays inside a watched directory.
		delete(w.pending, rel)
		w.remove(rel)
		w.reconcile = resetTimer(w.reconcile, reconcileDelay)
	}
}

func (w *watcher) handleNewDir(abs string) {
	if storage.IsHiddenDir(abs) {
		return
	}
	if err := w.addTree(abs); err != nil {
		w.logger.Warn("watcher: add new dir failed", slog.String("path", abs), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: watching new dir", slog.String("path", abs))

	// Files may land in the directory before the watch is in place.
	_ = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsDocument(p) {
			return nil
		}
		if rel, ok := w.rel(p); ok {
			w.queue(rel, "created")
		}
		return nil
	})
}

// queue records a change and restarts the settle timer. A document created
// and then written within one settle window is reported as created.
func (w *watcher) queue(rel, kind string) {
	if w.pending[rel] != "created" {
		w.pending[rel] = kind
	}
	w.settle = resetTimer(w.settle, settleDelay)
}

func (w *watcher) flush() {
	w.settle = nil
	for rel, kind := range w.pending {
		delete(w.pending, rel)
		w.index(rel, kind)
	}
}

// index re-reads a document and upserts its books unless the catalog already
// holds this version.
func (w *watcher) index(rel, kind string) {
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	changed, err := indexIfChanged(w.db, rel, data)
	if err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if !changed {
		return
	}
	w.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	w.notify(kind, rel)
}

// remove drops a document from the catalog. Documents the catalog no longer
// holds (for example because the API deleted them) are skipped.
func (w *watcher) remove(rel string) {
	sum, err := w.db.GetChecksum(rel)
	if err != nil {
		w.logger.Warn("watcher: checksum lookup failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if sum == "" {
		return
	}
	if err := w.db.DeleteDocument(rel); err != nil {
		w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: deleted", slog.String("path", rel))
	w.notify("deleted", rel)
}

// reconcileAll drops catalog documents missing from disk and indexes
// on-disk documents whose checksum differs from the catalog.
func (w *watcher) reconcileAll() {
	w.reconcile = nil

	checksums, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			w.remove(p)
		}
	}
	for p, sum := range disk {
		if checksums[p] == sum {
			continue
		}
		kind := "updated"
		if _, known := checksums[p]; !known {
			kind = "created"
		}
		w.index(p, kind)
	}
}

func (w *watcher) notify(kind, rel string) {
	if w.cb != nil {
		w.cb(kind, rel)
	}
}

func (w *watcher) rel(abs string) (string, bool) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// addTree adds root and all its visible subdirectories to the watcher.
func (w *watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && storage.IsHiddenDir(p) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// timerC returns the channel of t, or nil (blocks forever) when t is unset.
func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func resetTimer(t *time.Timer, d time.Duration) *time.Timer {
	if t == nil {
		return time.NewTimer(d)
	}
	t.Reset(d)
	return t
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
