package routines

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
	"github.com/ibsurgeon/fts-udr-go/internal/testutil"
)

// newTestService builds a service over a temp catalog and a temp FTS
// root, with a BOOKS table ready for indexing.
func newTestService(t *testing.T) (*Service, *testutil.TestDB) {
	t.Helper()

	db := testutil.NewTestDB(t)
	if err := db.InitSchema(); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	db.MustExec(`CREATE TABLE BOOKS (ID INTEGER PRIMARY KEY, TITLE TEXT, BODY TEXT)`)

	root := filepath.Join(t.TempDir(), "fts")
	service := NewService(db.DB, root)
	t.Cleanup(func() { service.Close() })
	return service, db
}

// appendLog mimics what the generated triggers write.
func appendLog(t *testing.T, db *testutil.TestDB, relation string, id int64, change string) {
	t.Helper()
	db.MustExec(`INSERT INTO FTS$LOG (FTS$RELATION_NAME, FTS$REC_ID, FTS$CHANGE_TYPE) VALUES (?, ?, ?)`,
		relation, id, change)
}

func TestCreateIndexAutoSelectsPrimaryKey(t *testing.T) {
	service, _ := newTestService(t)

	if err := service.CreateIndex("BOOK_FTS", "BOOKS", "ENGLISH", "", ""); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	idx, err := service.GetIndex("BOOK_FTS")
	if err != nil {
		t.Fatalf("GetIndex: %v", err)
	}
	if idx.Status != catalog.StatusNew {
		t.Errorf("status = %v, want N", idx.Status)
	}
	keySeg, ok := idx.KeySegment()
	if !ok {
		t.Fatal("no key segment auto-inserted")
	}
	if keySeg.FieldName != "ID" {
		t.Errorf("key segment = %q, want ID", keySeg.FieldName)
	}
}

func TestCreateIndexValidation(t *testing.T) {
	service, _ := newTestService(t)

	if err := service.CreateIndex("", "BOOKS", "", "", ""); !ftserr.Is(err, ftserr.ArgumentNull) {
		t.Errorf("empty name: got %v, want ArgumentNull", err)
	}
	if err := service.CreateIndex("X", "NO_SUCH_TABLE", "", "", ""); !ftserr.Is(err, ftserr.NoSuchRelation) {
		t.Errorf("missing relation: got %v, want NoSuchRelation", err)
	}
	if err := service.CreateIndex("X", "BOOKS", "martian", "", ""); !ftserr.Is(err, ftserr.NoSuchAnalyzer) {
		t.Errorf("unknown analyzer: got %v, want NoSuchAnalyzer", err)
	}
	if err := service.CreateIndex("X", "BOOKS", "", "TITLE", ""); !ftserr.Is(err, ftserr.UnsupportedKeyType) {
		t.Errorf("text key: got %v, want UnsupportedKeyType", err)
	}

	if err := service.CreateIndex("DUP", "BOOKS", "", "", ""); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := service.CreateIndex("DUP", "BOOKS", "", "", ""); !ftserr.Is(err, ftserr.IndexAlreadyExists) {
		t.Errorf("duplicate: got %v, want IndexAlreadyExists", err)
	}
}

func TestCreateIndexCompositePKRequiresExplicitKey(t *testing.T) {
	service, db := newTestService(t)
	db.MustExec(`CREATE TABLE PAIRS (A INTEGER, B INTEGER, NOTE TEXT, PRIMARY KEY (A, B))`)

	err := service.CreateIndex("PAIR_FTS", "PAIRS", "", "", "")
	if !ftserr.Is(err, ftserr.CompositePKRequiresKey) {
		t.Fatalf("got %v, want CompositePKRequiresKey", err)
	}
	if err := service.CreateIndex("PAIR_FTS", "PAIRS", "", "A", ""); err != nil {
		t.Fatalf("explicit key: %v", err)
	}
}

// TestSearchLifecycle walks scenarios S1-S4: build, search, update,
// delete, with the change log drained between steps.
func TestSearchLifecycle(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	if err := service.CreateIndex("BOOK_FTS", "BOOKS", "ENGLISH", "", ""); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := service.AddIndexField("BOOK_FTS", "TITLE", nil); err != nil {
		t.Fatalf("AddIndexField TITLE: %v", err)
	}
	boost := 2.0
	if err := service.AddIndexField("BOOK_FTS", "BODY", &boost); err != nil {
		t.Fatalf("AddIndexField BODY: %v", err)
	}
	if err := service.RebuildIndex("BOOK_FTS"); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}
	if idx, _ := service.GetIndex("BOOK_FTS"); idx.Status != catalog.StatusComplete {
		t.Fatalf("status after rebuild = %v, want C", idx.Status)
	}

	// S2: insert, apply, search
	db.MustExec(`INSERT INTO BOOKS (ID, TITLE, BODY) VALUES (1, 'The Raven', 'Once upon a midnight dreary')`)
	appendLog(t, db, "BOOKS", 1, "I")
	if _, err := service.UpdateIndexes(ctx); err != nil {
		t.Fatalf("UpdateIndexes: %v", err)
	}
	db.AssertRowCount("FTS$LOG", 0)

	hits, err := service.Search(ctx, "BOOK_FTS", "raven", 10, false)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].ID == nil || *hits[0].ID != 1 {
		t.Errorf("hit id = %v, want 1", hits[0].ID)
	}
	if hits[0].Score == 0 {
		t.Error("hit score should be non-zero")
	}

	// S3: update, apply, search
	db.MustExec(`UPDATE BOOKS SET TITLE = 'The Raven, Revised' WHERE ID = 1`)
	appendLog(t, db, "BOOKS", 1, "U")
	if _, err := service.UpdateIndexes(ctx); err != nil {
		t.Fatalf("UpdateIndexes after update: %v", err)
	}
	hits, err = service.Search(ctx, "BOOK_FTS", "revised", 10, false)
	if err != nil {
		t.Fatalf("Search revised: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits for revised, want 1", len(hits))
	}
	hits, err = service.Search(ctx, "BOOK_FTS", "nonexistentword", 10, false)
	if err != nil {
		t.Fatalf("Search nonexistentword: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits for nonexistentword, want 0", len(hits))
	}

	// S4: delete, apply, both searches empty
	db.MustExec(`DELETE FROM BOOKS WHERE ID = 1`)
	appendLog(t, db, "BOOKS", 1, "D")
	if _, err := service.UpdateIndexes(ctx); err != nil {
		t.Fatalf("UpdateIndexes after delete: %v", err)
	}
	for _, q := range []string{"raven", "revised"} {
		hits, err := service.Search(ctx, "BOOK_FTS", q, 10, false)
		if err != nil {
			t.Fatalf("Search %q: %v", q, err)
		}
		if len(hits) != 0 {
			t.Errorf("got %d hits for %q after delete, want 0", len(hits), q)
		}
	}
	db.AssertRowCount("FTS$LOG", 0)
}

func TestSearchLimitZeroReturnsNoRows(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	if err := service.CreateIndex("BOOK_FTS", "BOOKS", "", "", ""); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := service.AddIndexField("BOOK_FTS", "TITLE", nil); err != nil {
		t.Fatalf("AddIndexField: %v", err)
	}
	db.MustExec(`INSERT INTO BOOKS (ID, TITLE) VALUES (1, 'raven')`)
	if err := service.RebuildIndex("BOOK_FTS"); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}

	hits, err := service.Search(ctx, "BOOK_FTS", "raven", 0, false)
	if err != nil {
		t.Fatalf("Search with limit 0: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits with limit 0, want 0", len(hits))
	}
}

func TestSearchUnbuiltIndex(t *testing.T) {
	service, _ := newTestService(t)

	if err := service.CreateIndex("BOOK_FTS", "BOOKS", "", "", ""); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	_, err := service.Search(context.Background(), "BOOK_FTS", "raven", 10, false)
	if !ftserr.Is(err, ftserr.IndexNotBuilt) {
		t.Fatalf("got %v, want IndexNotBuilt", err)
	}
}

func TestUpdateIndexesOnEmptyLogSucceeds(t *testing.T) {
	service, _ := newTestService(t)

	result, err := service.UpdateIndexes(context.Background())
	if err != nil {
		t.Fatalf("UpdateIndexes: %v", err)
	}
	if result.EntriesApplied != 0 || result.EntriesDropped != 0 {
		t.Errorf("empty log produced %+v", result)
	}
}

func TestSegmentMutationDemotesCompleteIndex(t *testing.T) {
	service, db := newTestService(t)

	if err := service.CreateIndex("BOOK_FTS", "BOOKS", "", "", ""); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := service.AddIndexField("BOOK_FTS", "TITLE", nil); err != nil {
		t.Fatalf("AddIndexField: %v", err)
	}
	db.MustExec(`INSERT INTO BOOKS (ID, TITLE) VALUES (1, 'x')`)
	if err := service.RebuildIndex("BOOK_FTS"); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}

	if err := service.AddIndexField("BOOK_FTS", "BODY", nil); err != nil {
		t.Fatalf("AddIndexField BODY: %v", err)
	}
	idx, _ := service.GetIndex("BOOK_FTS")
	if idx.Status != catalog.StatusNeedsBuild {
		t.Errorf("status after field add = %v, want U", idx.Status)
	}
}

func TestStopWordMutationDemotesIndexesUsingAnalyzer(t *testing.T) {
	service, db := newTestService(t)

	if err := service.CreateAnalyzer("MY_ENGLISH", "english", ""); err != nil {
		t.Fatalf("CreateAnalyzer: %v", err)
	}
	if err := service.CreateIndex("BOOK_FTS", "BOOKS", "MY_ENGLISH", "", ""); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := service.AddIndexField("BOOK_FTS", "TITLE", nil); err != nil {
		t.Fatalf("AddIndexField: %v", err)
	}
	db.MustExec(`INSERT INTO BOOKS (ID, TITLE) VALUES (1, 'x')`)
	if err := service.RebuildIndex("BOOK_FTS"); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}

	if err := service.AddStopWord("MY_ENGLISH", "Raven"); err != nil {
		t.Fatalf("AddStopWord: %v", err)
	}
	idx, _ := service.GetIndex("BOOK_FTS")
	if idx.Status != catalog.StatusNeedsBuild {
		t.Errorf("status after stop-word add = %v, want U", idx.Status)
	}

	words, err := service.AnalyzerStopWords("MY_ENGLISH")
	if err != nil {
		t.Fatalf("AnalyzerStopWords: %v", err)
	}
	if len(words) != 1 || words[0] != "raven" {
		t.Errorf("stop words = %v, want [raven] (lowercased)", words)
	}

	if err := service.AddStopWord("english", "the"); !ftserr.Is(err, ftserr.CannotModifySystemAnalyzer) {
		t.Errorf("system analyzer mutation: got %v, want CannotModifySystemAnalyzer", err)
	}
}

func TestSetIndexActiveTransitions(t *testing.T) {
	service, db := newTestService(t)

	if err := service.CreateIndex("BOOK_FTS", "BOOKS", "", "", ""); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := service.AddIndexField("BOOK_FTS", "TITLE", nil); err != nil {
		t.Fatalf("AddIndexField: %v", err)
	}
	db.MustExec(`INSERT INTO BOOKS (ID, TITLE) VALUES (1, 'x')`)
	if err := service.RebuildIndex("BOOK_FTS"); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}

	if err := service.SetIndexActive("BOOK_FTS", false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if idx, _ := service.GetIndex("BOOK_FTS"); idx.Status != catalog.StatusInactive {
		t.Errorf("status = %v, want I", idx.Status)
	}
	if err := service.SetIndexActive("BOOK_FTS", true); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if idx, _ := service.GetIndex("BOOK_FTS"); idx.Status != catalog.StatusNeedsBuild {
		t.Errorf("status after reactivation = %v, want U", idx.Status)
	}
}

func TestMakeTriggerEmitsLogInserts(t *testing.T) {
	service, db := newTestService(t)

	if err := service.CreateIndex("BOOK_FTS", "BOOKS", "", "", ""); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := service.AddIndexField("BOOK_FTS", "TITLE", nil); err != nil {
		t.Fatalf("AddIndexField: %v", err)
	}
	db.MustExec(`INSERT INTO BOOKS (ID, TITLE) VALUES (1, 'x')`)
	if err := service.RebuildIndex("BOOK_FTS"); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}

	script, err := service.MakeTrigger("BOOKS", true, 100)
	if err != nil {
		t.Fatalf("MakeTrigger: %v", err)
	}
	for _, want := range []string{"AFTER INSERT", "AFTER UPDATE", "AFTER DELETE", "FTS$REC_ID", "FTS$LOG"} {
		if !strings.Contains(script.DDL, want) {
			t.Errorf("trigger DDL missing %q:\n%s", want, script.DDL)
		}
	}

	// The emitted DDL must execute against the host DB and feed the log.
	if _, err := db.Exec(script.DDL); err != nil {
		t.Fatalf("executing trigger DDL: %v\n%s", err, script.DDL)
	}
	db.MustExec(`INSERT INTO BOOKS (ID, TITLE) VALUES (2, 'The Bells')`)
	db.AssertRowCount("FTS$LOG", 1)
}

func TestIndexStatisticsAfterRebuild(t *testing.T) {
	service, db := newTestService(t)

	if err := service.CreateIndex("BOOK_FTS", "BOOKS", "ENGLISH", "", ""); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := service.AddIndexField("BOOK_FTS", "TITLE", nil); err != nil {
		t.Fatalf("AddIndexField: %v", err)
	}
	db.MustExec(`INSERT INTO BOOKS (ID, TITLE) VALUES (1, 'The Raven')`)
	db.MustExec(`INSERT INTO BOOKS (ID, TITLE) VALUES (2, 'The Bells')`)
	if err := service.RebuildIndex("BOOK_FTS"); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}

	info, err := service.IndexStatistics("BOOK_FTS")
	if err != nil {
		t.Fatalf("IndexStatistics: %v", err)
	}
	if !info.Exists {
		t.Fatal("directory should exist after rebuild")
	}
	if info.DocCount != 2 {
		t.Errorf("doc count = %d, want 2", info.DocCount)
	}
	if info.TotalSize == 0 {
		t.Error("total size should be non-zero")
	}

	files, err := service.IndexFiles("BOOK_FTS")
	if err != nil {
		t.Fatalf("IndexFiles: %v", err)
	}
	if len(files) == 0 {
		t.Error("expected index files after rebuild")
	}

	terms, err := service.IndexTerms("BOOK_FTS", "TITLE")
	if err != nil {
		t.Fatalf("IndexTerms: %v", err)
	}
	found := false
	for _, term := range terms {
		if term.Term == "raven" {
			found = true
			if term.DocFreq != 1 {
				t.Errorf("raven doc freq = %d, want 1", term.DocFreq)
			}
		}
	}
	if !found {
		t.Errorf("term dictionary missing \"raven\": %v", terms)
	}
}

func TestDropIndexRemovesDirectory(t *testing.T) {
	service, db := newTestService(t)

	if err := service.CreateIndex("BOOK_FTS", "BOOKS", "", "", ""); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := service.AddIndexField("BOOK_FTS", "TITLE", nil); err != nil {
		t.Fatalf("AddIndexField: %v", err)
	}
	db.MustExec(`INSERT INTO BOOKS (ID, TITLE) VALUES (1, 'x')`)
	if err := service.RebuildIndex("BOOK_FTS"); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}

	if err := service.DropIndex("BOOK_FTS"); err != nil {
		t.Fatalf("DropIndex: %v", err)
	}
	if _, err := os.Stat(filepath.Join(service.GetDirectory(), "BOOK_FTS")); !os.IsNotExist(err) {
		t.Errorf("index directory still present after drop: %v", err)
	}
	if _, err := service.GetIndex("BOOK_FTS"); !ftserr.Is(err, ftserr.NoSuchIndex) {
		t.Errorf("got %v, want NoSuchIndex", err)
	}
	info, err := service.IndexStatistics("BOOK_FTS")
	if !ftserr.Is(err, ftserr.NoSuchIndex) {
		t.Errorf("statistics after drop: got %v/%v, want NoSuchIndex", info, err)
	}
}
