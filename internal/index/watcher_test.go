package index_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/booker/internal/index"
	"github.com/starford/booker/internal/testutil"
)

const duneLog = "| ISBN | Title |\n|---|---|\n| 9780441013593 | Dune |\n"

// watchHarness runs a watcher over a temporary vault and records callbacks.
type watchHarness struct {
	t    *testing.T
	root string
	db   *index.DB

	mu     sync.Mutex
	events []string
}

func startWatch(t *testing.T, seed map[string]string) *watchHarness {
	t.Helper()
	root, store := testutil.TestVault(t)
	h := &watchHarness{t: t, root: root, db: testutil.TestDB(t)}

	for path, body := range seed {
		h.write(path, body)
	}
	if len(seed) > 0 {
		require.NoError(t, index.Sync(h.db, store, testutil.QuietLogger()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = index.Watch(ctx, h.db, store, root, testutil.QuietLogger(), h.record)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give fsnotify time to register the tree.
	time.Sleep(100 * time.Millisecond)
	return h
}

func (h *watchHarness) record(kind, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, kind+":"+path)
}

func (h *watchHarness) seen(event string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Contains(h.events, event)
}

func (h *watchHarness) write(path, body string) {
	h.t.Helper()
	abs := filepath.Join(h.root, filepath.FromSlash(path))
	require.NoError(h.t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(h.t, os.WriteFile(abs, []byte(body), 0o644))
}

func (h *watchHarness) catalogued(path string) bool {
	sum, err := h.db.GetChecksum(path)
	return err == nil && sum != ""
}

func (h *watchHarness) waitFor(cond func() bool, msg string) {
	h.t.Helper()
	require.Eventually(h.t, cond, 5*time.Second, 25*time.Millisecond, msg)
}

func TestWatch_NewDocument(t *testing.T) {
	h := startWatch(t, nil)

	h.write("2025.md", duneLog)

	h.waitFor(func() bool { return h.seen("created:2025.md") }, "no created callback")
	books, err := h.db.FindByISBN("9780441013593")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, "2025.md", books[0].Path)
}

func TestWatch_EditUpdatesBooks(t *testing.T) {
	h := startWatch(t, map[string]string{"log.md": duneLog})

	h.write("log.md", duneLog+"| 9780765326355 | The Way of Kings |\n")

	h.waitFor(func() bool { return h.seen("updated:log.md") }, "no updated callback")
	books, err := h.db.FindByPath("log.md")
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestWatch_NewSubdirectory(t *testing.T) {
	h := startWatch(t, nil)

	require.NoError(t, os.MkdirAll(filepath.Join(h.root, "2024", "q1"), 0o755))
	time.Sleep(100 * time.Millisecond)
	h.write("2024/q1/log.md", duneLog)

	h.waitFor(func() bool { return h.catalogued("2024/q1/log.md") }, "document in new directory not catalogued")
}

func TestWatch_Delete(t *testing.T) {
	h := startWatch(t, map[string]string{"gone.md": duneLog})
	require.True(t, h.catalogued("gone.md"))

	require.NoError(t, os.Remove(filepath.Join(h.root, "gone.md")))

	h.waitFor(func() bool {
		return !h.catalogued("gone.md") && h.seen("deleted:gone.md")
	}, "deleted document still catalogued")
	books, err := h.db.FindByISBN("9780441013593")
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestWatch_Rename(t *testing.T) {
	h := startWatch(t, map[string]string{"draft.md": duneLog})

	require.NoError(t, os.Rename(filepath.Join(h.root, "draft.md"), filepath.Join(h.root, "final.md")))

	h.waitFor(func() bool {
		return !h.catalogued("draft.md") && h.catalogued("final.md")
	}, "rename not reconciled")
	books, err := h.db.FindByISBN("9780441013593")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "final.md", books[0].Path)
}

func TestWatch_SkipsDocumentsAlreadyCatalogued(t *testing.T) {
	h := startWatch(t, nil)

	// The API indexes before its write reaches the watcher.
	require.NoError(t, index.IndexDocument(h.db, "api.md", []byte(duneLog)))
	h.write("api.md", duneLog)
	h.write("marker.md", duneLog)

	h.waitFor(func() bool { return h.seen("created:marker.md") }, "marker not processed")
	time.Sleep(200 * time.Millisecond)
	assert.False(t, h.seen("created:api.md"))
	assert.False(t, h.seen("updated:api.md"))
}

func TestWatch_IgnoresHiddenAndForeignFiles(t *testing.T) {
	h := startWatch(t, nil)
	require.NoError(t, os.MkdirAll(filepath.Join(h.root, ".obsidian"), 0o755))
	time.Sleep(100 * time.Millisecond)

	h.write(".obsidian/workspace.md", duneLog)
	h.write("notes.txt", duneLog)
	h.write("visible.md", "just prose\n")

	h.waitFor(func() bool { return h.catalogued("visible.md") }, "visible.md not catalogued")
	time.Sleep(200 * time.Millisecond)
	assert.False(t, h.catalogued(".obsidian/workspace.md"))
	assert.False(t, h.catalogued("notes.txt"))
}

func TestWatch_SkipsDocumentsAlreadyRemoved(t *testing.T) {
	h := startWatch(t, map[string]string{"gone.md": duneLog})

	// The API drops the catalog entry before the file disappears.
	require.NoError(t, h.db.DeleteDocument("gone.md"))
	require.NoError(t, os.Remove(filepath.Join(h.root, "gone.md")))
	h.write("marker.md", duneLog)

	h.waitFor(func() bool { return h.seen("created:marker.md") }, "marker not processed")
	time.Sleep(100 * time.Millisecond)
	assert.False(t, h.seen("deleted:gone.md"))
}
