package extractor

import (
	"testing"

	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
	"github.com/ibsurgeon/fts-udr-go/internal/keycodec"
	"github.com/ibsurgeon/fts-udr-go/internal/relation"
	"github.com/ibsurgeon/fts-udr-go/internal/testutil"
)

func bookIndex(fields ...catalog.Segment) catalog.Index {
	segs := append([]catalog.Segment{
		{IndexName: "BOOK_FTS", FieldName: "ID", IsKey: true},
	}, fields...)
	return catalog.Index{
		Name:     "BOOK_FTS",
		Relation: "BOOKS",
		Analyzer: "english",
		Status:   catalog.StatusComplete,
		Segments: segs,
	}
}

func newBooksDB(t *testing.T) *testutil.TestDB {
	t.Helper()
	db := testutil.NewTestDB(t)
	db.MustExec(`CREATE TABLE BOOKS (ID INTEGER PRIMARY KEY, TITLE TEXT, BODY TEXT)`)
	return db
}

func TestResolveKeyKind(t *testing.T) {
	db := newBooksDB(t)
	in := relation.New(db.DB)

	kind, keyField, err := ResolveKeyKind(in, bookIndex())
	if err != nil {
		t.Fatalf("ResolveKeyKind: %v", err)
	}
	if kind != keycodec.IntID {
		t.Errorf("kind = %v, want IntID", kind)
	}
	if keyField.Name != "ID" {
		t.Errorf("key field = %q, want ID", keyField.Name)
	}

	dbkeyIdx := bookIndex()
	dbkeyIdx.Segments[0].FieldName = relation.DBKeyPseudoColumn
	kind, _, err = ResolveKeyKind(in, dbkeyIdx)
	if err != nil {
		t.Fatalf("ResolveKeyKind dbkey: %v", err)
	}
	if kind != keycodec.DBKey {
		t.Errorf("kind = %v, want DBKey", kind)
	}
}

func TestResolveKeyKindRejectsTextKey(t *testing.T) {
	db := newBooksDB(t)
	in := relation.New(db.DB)

	idx := bookIndex()
	idx.Segments[0].FieldName = "TITLE"
	if _, _, err := ResolveKeyKind(in, idx); !ftserr.Is(err, ftserr.UnsupportedKeyType) {
		t.Fatalf("got %v, want UnsupportedKeyType", err)
	}
}

func TestFetchByKeyBuildsDocument(t *testing.T) {
	db := newBooksDB(t)
	db.MustExec(`INSERT INTO BOOKS (ID, TITLE, BODY) VALUES (1, 'The Raven', 'Once upon a midnight dreary')`)

	e, err := New(db.DB, relation.New(db.DB), bookIndex(
		catalog.Segment{IndexName: "BOOK_FTS", FieldName: "TITLE"},
		catalog.Segment{IndexName: "BOOK_FTS", FieldName: "BODY"},
	))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	doc, ok, err := e.FetchByKey(int64(1))
	if err != nil {
		t.Fatalf("FetchByKey: %v", err)
	}
	if !ok {
		t.Fatal("row exists; ok should be true")
	}
	if doc.KeyTerm != "1" {
		t.Errorf("key term = %q, want 1", doc.KeyTerm)
	}
	if len(doc.Fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(doc.Fields))
	}
	texts := map[string]string{}
	for _, f := range doc.Fields {
		texts[f.Name] = f.Text
	}
	if texts["TITLE"] != "The Raven" {
		t.Errorf("TITLE = %q", texts["TITLE"])
	}
	if texts["BODY"] != "Once upon a midnight dreary" {
		t.Errorf("BODY = %q", texts["BODY"])
	}
}

func TestFetchByKeyMissingRow(t *testing.T) {
	db := newBooksDB(t)

	e, err := New(db.DB, relation.New(db.DB), bookIndex(
		catalog.Segment{IndexName: "BOOK_FTS", FieldName: "TITLE"},
	))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, ok, err := e.FetchByKey(int64(42))
	if err != nil {
		t.Fatalf("FetchByKey: %v", err)
	}
	if ok {
		t.Error("missing row should report ok=false")
	}
}

func TestFullScanSkipsAllNullRows(t *testing.T) {
	db := newBooksDB(t)
	db.MustExec(`INSERT INTO BOOKS (ID, TITLE, BODY) VALUES (1, 'The Raven', NULL)`)
	db.MustExec(`INSERT INTO BOOKS (ID, TITLE, BODY) VALUES (2, NULL, NULL)`)
	db.MustExec(`INSERT INTO BOOKS (ID, TITLE, BODY) VALUES (3, NULL, 'dreary')`)

	e, err := New(db.DB, relation.New(db.DB), bookIndex(
		catalog.Segment{IndexName: "BOOK_FTS", FieldName: "TITLE"},
		catalog.Segment{IndexName: "BOOK_FTS", FieldName: "BODY"},
	))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cursor, err := e.FullScan()
	if err != nil {
		t.Fatalf("FullScan: %v", err)
	}
	defer cursor.Close()

	var keys []string
	for {
		doc, ok, err := cursor.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		keys = append(keys, doc.KeyTerm)
	}
	if len(keys) != 2 {
		t.Fatalf("scanned keys = %v, want rows 1 and 3 only", keys)
	}
}

func TestNewRejectsMissingColumn(t *testing.T) {
	db := newBooksDB(t)

	_, err := New(db.DB, relation.New(db.DB), bookIndex(
		catalog.Segment{IndexName: "BOOK_FTS", FieldName: "GONE"},
	))
	if !ftserr.Is(err, ftserr.NoSuchField) {
		t.Fatalf("got %v, want NoSuchField", err)
	}
}

func TestDBKeyExtraction(t *testing.T) {
	db := testutil.NewTestDB(t)
	db.MustExec(`CREATE TABLE NOTES (BODY TEXT)`)
	db.MustExec(`INSERT INTO NOTES (BODY) VALUES ('midnight dreary')`)

	idx := catalog.Index{
		Name:     "NOTE_FTS",
		Relation: "NOTES",
		Analyzer: "standard",
		Status:   catalog.StatusComplete,
		Segments: []catalog.Segment{
			{IndexName: "NOTE_FTS", FieldName: relation.DBKeyPseudoColumn, IsKey: true},
			{IndexName: "NOTE_FTS", FieldName: "BODY"},
		},
	}
	e, err := New(db.DB, relation.New(db.DB), idx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.KeyKind() != keycodec.DBKey {
		t.Fatalf("kind = %v, want DBKey", e.KeyKind())
	}

	cursor, err := e.FullScan()
	if err != nil {
		t.Fatalf("FullScan: %v", err)
	}
	defer cursor.Close()

	doc, ok, err := cursor.Next()
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	// rowid 1 encodes as 16 lowercase hex chars.
	if doc.KeyTerm != "0000000000000001" {
		t.Errorf("key term = %q, want 0000000000000001", doc.KeyTerm)
	}

	// And the same row is reachable by its decoded dbkey.
	raw, _, err := keycodec.Decode(keycodec.DBKey, doc.KeyTerm)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	rowID, err := keycodec.RowIDFromDBKey(raw)
	if err != nil {
		t.Fatalf("RowIDFromDBKey: %v", err)
	}
	_, ok, err = e.FetchByKey(rowID)
	if err != nil {
		t.Fatalf("FetchByKey: %v", err)
	}
	if !ok {
		t.Error("row should be reachable by its dbkey")
	}
}
