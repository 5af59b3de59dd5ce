// Package extractor builds the SQL that reads a relation's indexed
// columns and renders them into the document shape the index writer
// consumes, one statement per index for single-row refresh and one for
// full rebuild scans.
package extractor

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
	"github.com/ibsurgeon/fts-udr-go/internal/keycodec"
	"github.com/ibsurgeon/fts-udr-go/internal/relation"
)

// Field is one analyzed field of an extracted document.
type Field struct {
	Name  string
	Text  string
	Boost *float64
}

// Document is what C6's writer consumes: the encoded key plus the
// extracted, rendered text of every non-key segment.
type Document struct {
	KeyTerm string
	Fields  []Field
}

// Extractor reads one index's relation and renders rows into documents.
type Extractor struct {
	db       *sql.DB
	index    catalog.Index
	keyKind  keycodec.Kind
	keyField relation.FieldInfo
	fields   []fieldBinding
}

type fieldBinding struct {
	info  relation.FieldInfo
	boost *float64
}

// ResolveKeyKind resolves idx's key segment to its key kind and column
// metadata. Shared by the extractor, the query executor and the trigger
// generator so all three branch on the same tagged kind. Fails with
// *unsupported-key-type* if the key column is not key-eligible.
func ResolveKeyKind(in *relation.Introspector, idx catalog.Index) (keycodec.Kind, relation.FieldInfo, error) {
	keySeg, ok := idx.KeySegment()
	if !ok {
		return 0, relation.FieldInfo{}, ftserr.New(ftserr.CompositePKRequiresKey, "index %q has no key segment", idx.Name)
	}
	keyField, err := in.Field(idx.Relation, keySeg.FieldName)
	if err != nil {
		return 0, relation.FieldInfo{}, err
	}
	if !relation.IsKeyEligible(keyField) {
		return 0, relation.FieldInfo{}, ftserr.New(ftserr.UnsupportedKeyType, "field %q is not key-eligible", keySeg.FieldName)
	}

	switch {
	case keyField.Name == relation.DBKeyPseudoColumn:
		return keycodec.DBKey, keyField, nil
	case keyField.Type == relation.TypeInteger:
		return keycodec.IntID, keyField, nil
	default:
		return keycodec.UUID, keyField, nil
	}
}

// New resolves an index's key kind and field metadata and prepares the
// SQL this extractor will run. Fails with *no-such-field* if a bound
// segment no longer exists on the relation; the caller is expected to
// demote the index to U in that case.
func New(db *sql.DB, in *relation.Introspector, idx catalog.Index) (*Extractor, error) {
	kind, keyField, err := ResolveKeyKind(in, idx)
	if err != nil {
		return nil, err
	}

	var bindings []fieldBinding
	for _, seg := range idx.FieldSegments() {
		fi, err := in.Field(idx.Relation, seg.FieldName)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, fieldBinding{info: fi, boost: seg.Boost})
	}

	return &Extractor{
		db:       db,
		index:    idx,
		keyKind:  kind,
		keyField: keyField,
		fields:   bindings,
	}, nil
}

// KeyKind reports the key kind this extractor resolved.
func (e *Extractor) KeyKind() keycodec.Kind { return e.keyKind }

// keyColumnExpr is the SQL expression selecting the key. The RDB$DB_KEY
// pseudo-column maps to the host's opaque row address (SQLite's rowid).
func (e *Extractor) keyColumnExpr() string {
	if e.keyKind == keycodec.DBKey {
		return "rowid"
	}
	return quoteIdent(e.keyField.Name)
}

func (e *Extractor) selectList() string {
	names := make([]string, 0, len(e.fields)+1)
	names = append(names, e.keyColumnExpr())
	for _, f := range e.fields {
		names = append(names, quoteIdent(f.info.Name))
	}
	return strings.Join(names, ", ")
}

// singleRowSQL builds `SELECT <key>, <f1>, ... FROM <rel> WHERE <key> = ?`,
// used for per-row refresh.
func (e *Extractor) singleRowSQL() string {
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = ?",
		e.selectList(), quoteIdent(e.index.Relation), e.keyColumnExpr(),
	)
}

// fullScanSQL builds the full-scan statement: every row whose key is
// non-null and at least one indexed field is non-null.
func (e *Extractor) fullScanSQL() string {
	var nonNull []string
	for _, f := range e.fields {
		nonNull = append(nonNull, quoteIdent(f.info.Name)+" IS NOT NULL")
	}
	where := e.keyColumnExpr() + " IS NOT NULL"
	if len(nonNull) > 0 {
		where += " AND (" + strings.Join(nonNull, " OR ") + ")"
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s", e.selectList(), quoteIdent(e.index.Relation), where)
}

// FetchByKey reads and renders one row by its raw key value (the log
// entry's dbkey bytes, uuid bytes, or integer id). Returns ok=false if no
// row matches, which the applier folds into a delete.
func (e *Extractor) FetchByKey(keyValue interface{}) (Document, bool, error) {
	row := e.db.QueryRow(e.singleRowSQL(), keyValue)
	doc, ok, err := e.scanRow(row.Scan)
	return doc, ok, err
}

// Cursor is a forward iterator over a full-scan extraction.
type Cursor struct {
	e    *Extractor
	rows *sql.Rows
}

// FullScan opens a cursor over every row eligible for indexing, for
// REBUILD_INDEX's full rebuild pass.
func (e *Extractor) FullScan() (*Cursor, error) {
	rows, err := e.db.Query(e.fullScanSQL())
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "scanning relation %q", e.index.Relation)
	}
	return &Cursor{e: e, rows: rows}, nil
}

// Next advances the cursor, returning false when exhausted.
func (c *Cursor) Next() (Document, bool, error) {
	if !c.rows.Next() {
		return Document{}, false, c.rows.Err()
	}
	dest := make([]interface{}, len(c.e.fields)+1)
	vals := make([]scanValue, len(dest))
	for i := range dest {
		dest[i] = &vals[i]
	}
	if err := c.rows.Scan(dest...); err != nil {
		return Document{}, false, ftserr.Wrap(ftserr.IndexLibraryError, err, "scanning row of %q", c.e.index.Relation)
	}
	return c.e.buildDocument(vals)
}

// Close releases the cursor's underlying rows.
func (c *Cursor) Close() error {
	return c.rows.Close()
}

// scanRow runs scan(dest...) against a row-shaped destination list built
// for this extractor's select list, used by FetchByKey.
func (e *Extractor) scanRow(scan func(dest ...interface{}) error) (Document, bool, error) {
	vals := make([]scanValue, len(e.fields)+1)
	dest := make([]interface{}, len(vals))
	for i := range dest {
		dest[i] = &vals[i]
	}
	if err := scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return Document{}, false, nil
		}
		return Document{}, false, ftserr.Wrap(ftserr.IndexLibraryError, err, "fetching row of %q", e.index.Relation)
	}
	return e.buildDocument(vals)
}

func (e *Extractor) buildDocument(vals []scanValue) (Document, bool, error) {
	keyTerm, err := e.encodeKey(vals[0].v)
	if err != nil {
		return Document{}, false, err
	}

	doc := Document{KeyTerm: keyTerm}
	anyNonEmpty := false
	for i, f := range e.fields {
		text, nonEmpty, err := renderColumn(f.info.Type, f.info.Charset, vals[i+1].v)
		if err != nil {
			return Document{}, false, err
		}
		if nonEmpty {
			anyNonEmpty = true
		}
		doc.Fields = append(doc.Fields, Field{Name: f.info.Name, Text: text, Boost: f.boost})
	}
	return doc, anyNonEmpty || len(e.fields) == 0, nil
}

func (e *Extractor) encodeKey(raw interface{}) (string, error) {
	switch e.keyKind {
	case keycodec.IntID:
		switch v := raw.(type) {
		case int64:
			return keycodec.EncodeInt(v), nil
		case []byte:
			return string(v), nil
		default:
			return "", ftserr.New(ftserr.MalformedKey, "unexpected integer key type %T", raw)
		}
	case keycodec.DBKey:
		switch v := raw.(type) {
		case int64:
			return keycodec.Encode(keycodec.DBKey, keycodec.DBKeyFromRowID(v))
		case []byte:
			return keycodec.Encode(keycodec.DBKey, v)
		default:
			return "", ftserr.New(ftserr.MalformedKey, "unexpected dbkey type %T", raw)
		}
	default:
		b, ok := raw.([]byte)
		if !ok {
			return "", ftserr.New(ftserr.MalformedKey, "unexpected binary key type %T", raw)
		}
		return keycodec.Encode(e.keyKind, b)
	}
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
