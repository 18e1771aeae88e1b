package index

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/booker/internal/models"
	"github.com/starford/booker/internal/storage"
)

const logDoc = `# 2025

| ISBN | Title | Authors | Pages | Date added | Date finished | Rating | Review |
|---|---|---|---|---|---|---|---|
| 9780441013593 | Dune | Frank Herbert | 412 | 2025-01-02 |  | 4.5 | Spice |
| not an isbn | Skipped |  |  |  |  |  |  |
| 9780547928227 | The Hobbit | J. R. R. Tolkien |  |  |  |  |  |
|  |  |  |  |  |  |  |  |

9780000000000
`

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "booker-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM books`).Scan(&count); err != nil {
		t.Fatalf("books table missing: %v", err)
	}
}

func TestExtract(t *testing.T) {
	entries := Extract("log.md", []byte(logDoc))
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	dune := entries[0]
	if dune.ISBN != "9780441013593" || dune.Title != "Dune" || dune.Block != 1 || dune.RowIndex != 0 {
		t.Errorf("dune = %+v", dune)
	}
	if dune.Rating == nil || *dune.Rating != 4.5 {
		t.Errorf("dune rating = %v", dune.Rating)
	}
	if entries[1].RowIndex != 2 {
		t.Errorf("hobbit row = %d, want 2", entries[1].RowIndex)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	if err := IndexDocument(db, "log.md", []byte(logDoc)); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}
	cs, err := db.GetChecksum("log.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs == "" {
		t.Error("checksum not stored")
	}
	cs, err = db.GetChecksum("missing.md")
	if err != nil || cs != "" {
		t.Errorf("missing checksum = %q, %v", cs, err)
	}
}

func TestUpsertReplacesEntries(t *testing.T) {
	db := testDB(t)
	_ = IndexDocument(db, "log.md", []byte(logDoc))
	_ = IndexDocument(db, "log.md", []byte("| ISBN | Title |\n|---|---|\n| 1234567890 | Only |\n"))

	books, total, err := db.ListBooks(0, 0)
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if total != 1 || len(books) != 1 || books[0].Title != "Only" {
		t.Errorf("books = %+v, total = %d", books, total)
	}
}

func TestListBooksRoundTripsFields(t *testing.T) {
	db := testDB(t)
	_ = IndexDocument(db, "log.md", []byte(logDoc))

	books, total, err := db.ListBooks(10, 0)
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	dune := books[0]
	if dune.PageCount == nil || *dune.PageCount != 412 {
		t.Errorf("pages = %v", dune.PageCount)
	}
	if len(dune.Authors) != 1 || dune.Authors[0] != "Frank Herbert" {
		t.Errorf("authors = %v", dune.Authors)
	}
	if books[1].PageCount != nil || books[1].Rating != nil {
		t.Errorf("hobbit should have no pages or rating: %+v", books[1])
	}

	page, _, _ := db.ListBooks(1, 1)
	if len(page) != 1 || page[0].ISBN != "9780547928227" {
		t.Errorf("second page = %+v", page)
	}
}

func TestFindByISBN(t *testing.T) {
	db := testDB(t)
	_ = IndexDocument(db, "a.md", []byte(logDoc))
	_ = IndexDocument(db, "b.md", []byte(logDoc))

	hits, err := db.FindByISBN("9780441013593")
	if err != nil {
		t.Fatalf("FindByISBN: %v", err)
	}
	if len(hits) != 2 || hits[0].Path != "a.md" || hits[1].Path != "b.md" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestFindByPath(t *testing.T) {
	db := testDB(t)
	_ = IndexDocument(db, "a.md", []byte(logDoc))
	_ = IndexDocument(db, "b.md", []byte("| ISBN |\n|---|\n| 1234567890 |\n"))

	hits, err := db.FindByPath("b.md")
	if err != nil {
		t.Fatalf("FindByPath: %v", err)
	}
	if len(hits) != 1 || hits[0].ISBN != "1234567890" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	_ = IndexDocument(db, "log.md", []byte(logDoc))

	hits, err := db.Search("Hobbit", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ISBN != "9780547928227" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestDeleteDocument(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "del.md", Checksum: "x"}, []models.CatalogEntry{
		{Book: models.Book{ISBN: "1234567890"}, Path: "del.md"},
	})

	if err := db.DeleteDocument("del.md"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted document still has checksum %q", cs)
	}
	hits, _ := db.FindByISBN("1234567890")
	if len(hits) != 0 {
		t.Errorf("expected 0 books after delete, got %d", len(hits))
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	vault := t.TempDir()
	store, err := storage.NewFS(vault)
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("log.md", []byte(logDoc))
	_ = db.UpsertDocument(DocumentRow{Path: "gone.md", Checksum: "stale"}, nil)

	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	checksums, _ := db.AllChecksums()
	if _, ok := checksums["gone.md"]; ok {
		t.Error("stale document not removed")
	}
	if checksums["log.md"] == "" {
		t.Error("log.md not indexed")
	}
	_, total, _ := db.ListBooks(0, 0)
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
}
