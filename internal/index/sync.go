package index

import (
	"log/slog"

	"github.com/starford/booker/internal/booktable"
	"github.com/starford/booker/internal/checksum"
	"github.com/starford/booker/internal/document"
	"github.com/starford/booker/internal/models"
	"github.com/starford/booker/internal/storage"
)

// Extract returns every book logged in the tables of a document.
func Extract(path string, data []byte) []models.CatalogEntry {
	doc := document.Parse(data)
	var out []models.CatalogEntry
	for _, block := range doc.Tables() {
		for i, row := range booktable.DataRows(doc.Blocks[block]) {
			book, ok := booktable.ParseRow(row)
			if !ok {
				continue
			}
			out = append(out, models.CatalogEntry{
				Book:     book,
				Path:     path,
				Block:    block,
				RowIndex: i,
			})
		}
	}
	return out
}

// IndexDocument extracts the books of a document and upserts them.
func IndexDocument(db Catalog, path string, data []byte) error {
	return db.UpsertDocument(DocumentRow{
		Path:     path,
		Checksum: checksum.Sum(data),
	}, Extract(path, data))
}

// indexIfChanged indexes data unless the catalog already holds a document
// with the same checksum. It reports whether the catalog changed.
func indexIfChanged(db Catalog, path string, data []byte) (bool, error) {
	current, err := db.GetChecksum(path)
	if err != nil {
		return false, err
	}
	if current == checksum.Sum(data) {
		return false, nil
	}
	return true, IndexDocument(db, path, data)
}

// Sync walks the vault and brings the catalog up to date:
//   - new/changed documents are parsed and upserted
//   - documents removed from disk are deleted from the catalog
func Sync(db Catalog, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDocument(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}
