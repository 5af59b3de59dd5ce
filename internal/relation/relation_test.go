package relation

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	// File-backed: a pooled :memory: DSN hands each connection its own
	// empty database.
	db, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "host.db"))
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE books (
			id INTEGER PRIMARY KEY,
			title VARCHAR(200),
			body TEXT,
			uuid BINARY(16)
		)
	`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestRelationIntrospection(t *testing.T) {
	db := openTestDB(t)
	in := New(db)

	fields, err := in.Relation("books")
	if err != nil {
		t.Fatalf("Relation: %v", err)
	}
	if len(fields) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(fields))
	}

	idField, err := in.Field("books", "id")
	if err != nil {
		t.Fatalf("Field(id): %v", err)
	}
	if idField.Type != TypeInteger || !IsKeyEligible(idField) {
		t.Errorf("id field should be a key-eligible integer, got %+v", idField)
	}

	uuidField, err := in.Field("books", "uuid")
	if err != nil {
		t.Fatalf("Field(uuid): %v", err)
	}
	if uuidField.Type != TypeBinary || uuidField.Length != 16 || !IsKeyEligible(uuidField) {
		t.Errorf("uuid field should be a key-eligible 16-byte binary, got %+v", uuidField)
	}

	titleField, err := in.Field("books", "title")
	if err != nil {
		t.Fatalf("Field(title): %v", err)
	}
	if IsKeyEligible(titleField) {
		t.Errorf("title should not be key-eligible: %+v", titleField)
	}
}

func TestRelationNoSuchRelation(t *testing.T) {
	db := openTestDB(t)
	in := New(db)

	if _, err := in.Relation("missing"); !ftserr.Is(err, ftserr.NoSuchRelation) {
		t.Fatalf("expected NoSuchRelation, got %v", err)
	}
}

func TestFieldNoSuchField(t *testing.T) {
	db := openTestDB(t)
	in := New(db)

	if _, err := in.Field("books", "nope"); !ftserr.Is(err, ftserr.NoSuchField) {
		t.Fatalf("expected NoSuchField, got %v", err)
	}
}

func TestFieldDBKeyPseudoColumn(t *testing.T) {
	db := openTestDB(t)
	in := New(db)

	f, err := in.Field("books", "rdb$db_key")
	if err != nil {
		t.Fatalf("Field(RDB$DB_KEY): %v", err)
	}
	if !IsKeyEligible(f) {
		t.Errorf("RDB$DB_KEY should always be key-eligible")
	}
}

func TestPrimaryKey(t *testing.T) {
	db := openTestDB(t)
	in := New(db)

	pk, err := in.PrimaryKey("books")
	if err != nil {
		t.Fatalf("PrimaryKey: %v", err)
	}
	if len(pk) != 1 || pk[0] != "id" {
		t.Errorf("expected [id], got %v", pk)
	}
}
