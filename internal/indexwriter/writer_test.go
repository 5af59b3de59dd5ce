package indexwriter

import (
	"path/filepath"
	"testing"

	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
	"github.com/ibsurgeon/fts-udr-go/internal/extractor"
)

func bookIndex() catalog.Index {
	return catalog.Index{
		Name:     "BOOK_FTS",
		Relation: "BOOKS",
		Analyzer: "english",
		Status:   catalog.StatusComplete,
		Segments: []catalog.Segment{
			{IndexName: "BOOK_FTS", FieldName: "ID", IsKey: true},
			{IndexName: "BOOK_FTS", FieldName: "TITLE"},
		},
	}
}

func doc(key, title string) extractor.Document {
	return extractor.Document{
		KeyTerm: key,
		Fields:  []extractor.Field{{Name: "TITLE", Text: title}},
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BOOK_FTS")
	if DirectoryExists(path) {
		t.Fatal("directory should not exist yet")
	}

	w, err := Open(path, bookIndex(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	if !DirectoryExists(path) {
		t.Error("Open should create the directory")
	}
}

func TestAddUpdateDeleteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BOOK_FTS")
	w, err := Open(path, bookIndex(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	if err := w.Add(doc("1", "The Raven")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if n, _ := w.DocCount(); n != 1 {
		t.Fatalf("doc count after add = %d, want 1", n)
	}

	// Add for an existing key replaces the document (I-twice acts as U).
	if err := w.Add(doc("1", "The Raven, Revised")); err != nil {
		t.Fatalf("Add twice: %v", err)
	}
	if n, _ := w.DocCount(); n != 1 {
		t.Fatalf("doc count after re-add = %d, want 1", n)
	}

	if err := w.Update("1", doc("", "The Bells")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := w.Delete("1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := w.DocCount(); n != 0 {
		t.Fatalf("doc count after delete = %d, want 0", n)
	}

	// Deleting an absent key is a no-op.
	if err := w.Delete("does-not-exist"); err != nil {
		t.Fatalf("Delete absent key: %v", err)
	}
}

func TestReopenPreservesDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BOOK_FTS")
	w, err := Open(path, bookIndex(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.Add(doc("7", "The Raven")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	w2, err := Open(path, bookIndex(), nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer w2.Close()
	if n, _ := w2.DocCount(); n != 1 {
		t.Errorf("doc count after reopen = %d, want 1", n)
	}
}

func TestBatchFlushesOnThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BOOK_FTS")
	w, err := Open(path, bookIndex(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	b := w.NewBatch()
	for i := 0; i < flushEvery+10; i++ {
		if err := b.Add(doc(keyOf(i), "title")); err != nil {
			t.Fatalf("batch add %d: %v", i, err)
		}
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if n, _ := w.DocCount(); n != uint64(flushEvery+10) {
		t.Errorf("doc count = %d, want %d", n, flushEvery+10)
	}
}

func keyOf(i int) string {
	return string(rune('a'+i%26)) + string(rune('a'+(i/26)%26)) + string(rune('a'+(i/676)%26))
}

func TestRecreateDropsOldDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BOOK_FTS")
	w, err := Open(path, bookIndex(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.Add(doc("1", "old")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	w2, err := Recreate(path, bookIndex(), nil)
	if err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	defer w2.Close()
	if n, _ := w2.DocCount(); n != 0 {
		t.Errorf("doc count after recreate = %d, want 0", n)
	}
}
