package trigger

import (
	"strings"
	"testing"

	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
	"github.com/ibsurgeon/fts-udr-go/internal/relation"
	"github.com/ibsurgeon/fts-udr-go/internal/testutil"
)

func setup(t *testing.T) (*catalog.Repository, *relation.Introspector, *testutil.TestDB) {
	t.Helper()

	db := testutil.NewTestDB(t)
	if err := db.InitSchema(); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	db.MustExec(`CREATE TABLE BOOKS (ID INTEGER PRIMARY KEY, TITLE TEXT, BODY TEXT)`)

	repo := catalog.New(db.DB)
	t.Cleanup(func() { repo.Close() })
	return repo, relation.New(db.DB), db
}

func addActiveIndex(t *testing.T, repo *catalog.Repository, name string, fields ...string) {
	t.Helper()
	if err := repo.CreateIndex(name, "BOOKS", "standard", ""); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := repo.AddIndexField(name, "ID", true, nil); err != nil {
		t.Fatalf("AddIndexField key: %v", err)
	}
	for _, f := range fields {
		if err := repo.AddIndexField(name, f, false, nil); err != nil {
			t.Fatalf("AddIndexField %s: %v", f, err)
		}
	}
	if err := repo.SetStatus(name, catalog.StatusComplete); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
}

func TestGenerateRequiresActiveIndex(t *testing.T) {
	repo, intro, _ := setup(t)

	_, err := Generate(repo, intro, "BOOKS", Options{})
	if !ftserr.Is(err, ftserr.NoSuchIndex) {
		t.Fatalf("got %v, want NoSuchIndex", err)
	}
}

func TestGenerateSeparateTriggers(t *testing.T) {
	repo, intro, _ := setup(t)
	addActiveIndex(t, repo, "BOOK_FTS", "TITLE", "BODY")

	script, err := Generate(repo, intro, "BOOKS", Options{MultiAction: false})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(script.Triggers) != 3 {
		t.Fatalf("got %d triggers, want 3", len(script.Triggers))
	}

	events := map[string]bool{}
	for _, tr := range script.Triggers {
		events[tr.Event] = true
	}
	for _, ev := range []string{"INSERT", "UPDATE", "DELETE"} {
		if !events[ev] {
			t.Errorf("missing %s trigger", ev)
		}
	}

	// The update trigger fires only when an indexed field changed.
	for _, tr := range script.Triggers {
		if tr.Event != "UPDATE" {
			continue
		}
		if !strings.Contains(tr.Script, `OLD."BODY" IS NOT NEW."BODY"`) ||
			!strings.Contains(tr.Script, `OLD."TITLE" IS NOT NEW."TITLE"`) {
			t.Errorf("update trigger lacks changed-field predicate:\n%s", tr.Script)
		}
	}
}

func TestGenerateMultiActionGroupsOneScript(t *testing.T) {
	repo, intro, _ := setup(t)
	addActiveIndex(t, repo, "BOOK_FTS", "TITLE")

	script, err := Generate(repo, intro, "BOOKS", Options{MultiAction: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(script.Triggers) != 1 {
		t.Fatalf("got %d trigger scripts, want 1 combined", len(script.Triggers))
	}
	for _, want := range []string{"AFTER INSERT", "AFTER UPDATE", "AFTER DELETE"} {
		if !strings.Contains(script.DDL, want) {
			t.Errorf("combined DDL missing %q", want)
		}
	}
}

func TestGenerateCustomLogTable(t *testing.T) {
	repo, intro, _ := setup(t)
	addActiveIndex(t, repo, "BOOK_FTS", "TITLE")

	script, err := Generate(repo, intro, "BOOKS", Options{LogTable: "TEST$LOG"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(script.DDL, "INSERT INTO TEST$LOG") {
		t.Errorf("DDL does not target the configured log table:\n%s", script.DDL)
	}
	if strings.Contains(script.DDL, "INSERT INTO FTS$LOG ") {
		t.Errorf("DDL still targets the default log table:\n%s", script.DDL)
	}
}

func TestGenerateHelperCallBodies(t *testing.T) {
	repo, intro, _ := setup(t)
	addActiveIndex(t, repo, "BOOK_FTS", "TITLE")

	script, err := Generate(repo, intro, "BOOKS", Options{HelperID: "FTS$LOG_BY_ID"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(script.DDL, `SELECT "FTS$LOG_BY_ID"('BOOKS', `) {
		t.Errorf("helper-mode DDL does not call the configured helper:\n%s", script.DDL)
	}
	if strings.Contains(script.DDL, "INSERT INTO") {
		t.Errorf("helper-mode DDL still inserts into the log table directly:\n%s", script.DDL)
	}
	// The other key kinds keep their own helper slots; an unset slot
	// falls back to the inline insert.
	script, err = Generate(repo, intro, "BOOKS", Options{HelperDBKey: "FTS$LOG_BY_DBKEY"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(script.DDL, "INSERT INTO FTS$LOG") {
		t.Errorf("id-keyed index should stay on the inline insert when only the dbkey helper is set:\n%s", script.DDL)
	}
}

func TestGeneratedDDLExecutesAndLogs(t *testing.T) {
	repo, intro, db := setup(t)
	addActiveIndex(t, repo, "BOOK_FTS", "TITLE")

	script, err := Generate(repo, intro, "BOOKS", Options{MultiAction: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := db.Exec(script.DDL); err != nil {
		t.Fatalf("executing generated DDL: %v\n%s", err, script.DDL)
	}

	db.MustExec(`INSERT INTO BOOKS (ID, TITLE) VALUES (1, 'The Raven')`)
	db.MustExec(`UPDATE BOOKS SET TITLE = 'The Raven, Revised' WHERE ID = 1`)
	db.MustExec(`UPDATE BOOKS SET BODY = 'untracked column' WHERE ID = 1`)
	db.MustExec(`DELETE FROM BOOKS WHERE ID = 1`)

	// insert + tracked update + delete; the BODY-only update is filtered
	// by the WHEN predicate since BODY is not indexed.
	db.AssertRowCount("FTS$LOG", 3)

	rows := db.MustQuery(`SELECT FTS$REC_ID, FTS$CHANGE_TYPE FROM FTS$LOG ORDER BY FTS$LOG_ID`)
	defer rows.Close()
	var changes []string
	for rows.Next() {
		var id int64
		var change string
		if err := rows.Scan(&id, &change); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if id != 1 {
			t.Errorf("logged id = %d, want 1", id)
		}
		changes = append(changes, change)
	}
	if got := strings.Join(changes, ""); got != "IUD" {
		t.Errorf("change sequence = %q, want IUD", got)
	}
}
