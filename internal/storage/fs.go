package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/booker/internal/apperr"
	"github.com/starford/booker/internal/checksum"
	"github.com/starford/booker/internal/models"
)

const (
	docExt     = ".md"
	tmpPattern = ".booker-tmp-*"
	filePerm   = 0o644
)

// IsDocument reports whether name is a vault document: a visible .md file.
func IsDocument(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, docExt) && !strings.HasPrefix(base, ".")
}

// IsHiddenDir reports whether a directory is skipped when walking the vault
// (.git, .obsidian, .trash and the like).
func IsHiddenDir(name string) bool {
	base := filepath.Base(name)
	return len(base) > 1 && strings.HasPrefix(base, ".")
}

// FS implements Provider backed by the local file system.
type FS struct {
	root string
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault directory.
func (f *FS) Root() string {
	return f.root
}

// Rel converts an absolute path inside the vault to the slash-separated
// form used by Provider.
func (f *FS) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: %s is outside the vault: %w", abs, apperr.ErrInvalidPath)
	}
	return filepath.ToSlash(rel), nil
}

// dirPath resolves a vault-relative directory.
func (f *FS) dirPath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	return f.resolve(rel)
}

// docPath resolves a vault-relative document path.
func (f *FS) docPath(rel string) (string, error) {
	if !IsDocument(rel) {
		return "", fmt.Errorf("storage: %q is not a %s document: %w", rel, docExt, apperr.ErrInvalidPath)
	}
	return f.resolve(rel)
}

func (f *FS) resolve(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute path %q: %w", rel, apperr.ErrInvalidPath)
	}
	abs := filepath.Join(f.root, cleaned)
	if _, err := f.Rel(abs); err != nil {
		return "", fmt.Errorf("storage: %q escapes the vault: %w", rel, apperr.ErrInvalidPath)
	}
	return abs, nil
}

// List walks dir and returns metadata for every document, skipping hidden
// directories.
func (f *FS) List(dir string) ([]models.DocumentMetadata, error) {
	base, err := f.dirPath(dir)
	if err != nil {
		return nil, err
	}
	var out []models.DocumentMetadata
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != base && IsHiddenDir(p) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsDocument(p) {
			return nil
		}
		meta, err := f.stat(p)
		if err != nil {
			return err
		}
		out = append(out, meta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

func (f *FS) stat(abs string) (models.DocumentMetadata, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return models.DocumentMetadata{}, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return models.DocumentMetadata{}, err
	}
	rel, err := f.Rel(abs)
	if err != nil {
		return models.DocumentMetadata{}, err
	}
	return models.DocumentMetadata{
		Path:      rel,
		Checksum:  checksum.Sum(data),
		UpdatedAt: info.ModTime(),
	}, nil
}

// Read returns the raw bytes of a vault document.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.docPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write replaces a document atomically, creating parent directories as
// needed. An existing document keeps its permissions.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.docPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	perm := os.FileMode(filePerm)
	if info, err := os.Stat(abs); err == nil {
		perm = info.Mode().Perm()
	}
	if err := writeAtomic(abs, content, perm); err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return nil
}

// writeAtomic writes to a temp file in the target directory, fsyncs it and
// renames it over abs.
func writeAtomic(abs string, content []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(abs), tmpPattern)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), abs)
}

// Delete removes a document from the vault.
func (f *FS) Delete(path string) error {
	abs, err := f.docPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}
