package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/booker/internal/apperr"
	"github.com/starford/booker/internal/checksum"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("| ISBN | Title |\n|---|---|\n|  |  |\n")
	if err := s.Write("log.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("log.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempVault(t)
	if err := s.Write("2025/q1/log.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("2025/q1/log.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestReadMissingIsNotExist(t *testing.T) {
	s := tempVault(t)
	_, err := s.Read("missing.md")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("del.md", []byte("bye"))
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.md"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestList(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/b.md", []byte("b"))
	_ = os.WriteFile(filepath.Join(s.Root(), "readme.txt"), []byte("not md"), 0o644)
	_ = os.MkdirAll(filepath.Join(s.Root(), ".obsidian"), 0o755)
	_ = os.WriteFile(filepath.Join(s.Root(), ".obsidian", "workspace.md"), []byte("hidden"), 0o644)

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	byPath := map[string]string{}
	for _, it := range items {
		byPath[it.Path] = it.Checksum
	}
	if byPath["sub/b.md"] != checksum.Sum([]byte("b")) {
		t.Errorf("checksum for sub/b.md = %q", byPath["sub/b.md"])
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("read %q: err = %v, want ErrInvalidPath", p, err)
		}
		if err := s.Write(p, []byte("x")); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("write %q: err = %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestWriteRejectsNonDocuments(t *testing.T) {
	s := tempVault(t)
	for _, p := range []string{"notes.txt", ".hidden.md", "dir/"} {
		if err := s.Write(p, []byte("x")); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("write %q: err = %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestWriteKeepsPermissions(t *testing.T) {
	s := tempVault(t)
	abs := filepath.Join(s.Root(), "log.md")
	if err := os.WriteFile(abs, []byte("v1"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("log.md", []byte("v2")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}
}

func TestRel(t *testing.T) {
	s := tempVault(t)
	rel, err := s.Rel(filepath.Join(s.Root(), "2025", "log.md"))
	if err != nil || rel != "2025/log.md" {
		t.Errorf("Rel = %q, %v", rel, err)
	}
	if _, err := s.Rel(filepath.Dir(s.Root())); !errors.Is(err, apperr.ErrInvalidPath) {
		t.Errorf("Rel outside vault: err = %v", err)
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.Root(), tmpPattern))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "booker-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
