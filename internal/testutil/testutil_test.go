package testutil

import (
	"os"
	"testing"
)

func TestNewTestDB(t *testing.T) {
	db := NewTestDB(t)

	// Verify database is open
	if err := db.Ping(); err != nil {
		t.Fatalf("Database ping failed: %v", err)
	}

	// Verify foreign keys are enabled
	var fkEnabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled)
	if err != nil {
		t.Fatalf("Failed to check foreign keys: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("Foreign keys not enabled")
	}
}

func TestTestDB_InitSchema(t *testing.T) {
	db := NewTestDB(t)

	if err := db.InitSchema(); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	// Every catalog table must exist
	for _, table := range []string{"FTS$INDICES", "FTS$INDEX_SEGMENTS", "FTS$ANALYZERS", "FTS$STOP_WORDS", "FTS$LOG"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Fatalf("Catalog table %s not created: %v", table, err)
		}
	}
}

func TestTestDB_MustExec(t *testing.T) {
	db := NewTestDB(t)
	db.InitSchema()

	db.MustExec(`INSERT INTO FTS$INDICES (FTS$INDEX_NAME, FTS$RELATION_NAME, FTS$ANALYZER) VALUES (?, ?, ?)`,
		"BOOK_FTS", "BOOKS", "english")

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM FTS$INDICES`).Scan(&count)
	if count != 1 {
		t.Errorf("Expected 1 row, got %d", count)
	}
}

func TestTestDB_Count(t *testing.T) {
	db := NewTestDB(t)
	db.InitSchema()

	if count := db.Count("FTS$LOG"); count != 0 {
		t.Errorf("Expected 0 rows, got %d", count)
	}

	db.MustExec(`INSERT INTO FTS$LOG (FTS$RELATION_NAME, FTS$REC_ID, FTS$CHANGE_TYPE) VALUES (?, ?, ?)`, "BOOKS", 1, "I")
	db.MustExec(`INSERT INTO FTS$LOG (FTS$RELATION_NAME, FTS$REC_ID, FTS$CHANGE_TYPE) VALUES (?, ?, ?)`, "BOOKS", 2, "I")

	if count := db.Count("FTS$LOG"); count != 2 {
		t.Errorf("Expected 2 rows, got %d", count)
	}
}

func TestTestDB_AssertRowCount(t *testing.T) {
	db := NewTestDB(t)
	db.InitSchema()

	db.AssertRowCount("FTS$LOG", 0)

	db.MustExec(`INSERT INTO FTS$LOG (FTS$RELATION_NAME, FTS$REC_ID, FTS$CHANGE_TYPE) VALUES (?, ?, ?)`, "BOOKS", 1, "D")
	db.AssertRowCount("FTS$LOG", 1)
}

func TestTempDir(t *testing.T) {
	dir := TempDir(t)

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Temp directory doesn't exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("Path is not a directory")
	}
}

func TestTempFile(t *testing.T) {
	content := []byte("test content")
	path := TempFile(t, "test.txt", content)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read temp file: %v", err)
	}

	if string(data) != string(content) {
		t.Errorf("Expected content %q, got %q", string(content), string(data))
	}
}

func TestAssertEqual(t *testing.T) {
	AssertEqual(t, 1, 1)
	AssertEqual(t, "test", "test")
	AssertEqual(t, true, true)
}

func TestAssertStringContains(t *testing.T) {
	AssertStringContains(t, "hello world", "world")
	AssertStringContains(t, "hello world", "hello")
	AssertStringContains(t, "hello world", "o w")
}
