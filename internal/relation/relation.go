// Package relation introspects the host database's tables and columns,
// classifying columns for key eligibility and resolving a relation's
// primary key for auto-selection of the key segment.
package relation

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// ColumnType classifies a column's declared SQL type into the coarse
// buckets the extractor and key codec need. SQLite's declared types are
// free-form text, so the classification works off the declaration string.
type ColumnType int

const (
	TypeUnknown ColumnType = iota
	TypeInteger
	TypeBinary
	TypeText
	TypeBlob
	TypeFloat
	TypeDate
	TypeTime
	TypeTimestamp
)

// FieldInfo describes one column of a relation.
type FieldInfo struct {
	Name     string
	Type     ColumnType
	Length   int  // declared length for binary/text columns, 0 if unbounded
	Scale    int  // 0 for integers and exact-binary columns
	Nullable bool
	Charset  string // best-effort; SQLite has no native per-column charset, defaults to UTF8
}

// DBKeyPseudoColumn is the pseudo-column name usable as a key field for
// ordinary tables, mirroring Firebird's RDB$DB_KEY.
const DBKeyPseudoColumn = "RDB$DB_KEY"

// Introspector resolves relation and column metadata against the host DB.
type Introspector struct {
	db *sql.DB
}

// New creates an Introspector bound to an open host-DB connection.
func New(db *sql.DB) *Introspector {
	return &Introspector{db: db}
}

// Relation resolves column metadata for every user column of relation,
// in declared order. Fails with *no-such-relation* if the table does not
// exist.
func (in *Introspector) Relation(relation string) ([]FieldInfo, error) {
	if !in.relationExists(relation) {
		return nil, ftserr.New(ftserr.NoSuchRelation, "relation %q does not exist", relation)
	}

	rows, err := in.db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(relation)))
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "introspecting relation %q", relation)
	}
	defer rows.Close()

	var fields []FieldInfo
	for rows.Next() {
		var (
			cid        int
			name       string
			declType   string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &defaultVal, &pk); err != nil {
			return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "scanning table_info(%s)", relation)
		}
		fields = append(fields, classify(name, declType, notNull == 0))
	}
	if err := rows.Err(); err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "reading table_info(%s)", relation)
	}
	return fields, nil
}

// Field resolves a single column's metadata, or the RDB$DB_KEY
// pseudo-column. Fails with *no-such-field* if the column does not exist.
func (in *Introspector) Field(relationName, fieldName string) (FieldInfo, error) {
	if strings.EqualFold(fieldName, DBKeyPseudoColumn) {
		return FieldInfo{Name: DBKeyPseudoColumn, Type: TypeBinary, Length: 8, Charset: "NONE"}, nil
	}

	fields, err := in.Relation(relationName)
	if err != nil {
		return FieldInfo{}, err
	}
	for _, f := range fields {
		if strings.EqualFold(f.Name, fieldName) {
			return f, nil
		}
	}
	return FieldInfo{}, ftserr.New(ftserr.NoSuchField, "relation %q has no field %q", relationName, fieldName)
}

// PrimaryKey returns the primary-key column names of relation, in key
// ordinal order. An empty slice means the relation has no declared
// primary key.
func (in *Introspector) PrimaryKey(relation string) ([]string, error) {
	if !in.relationExists(relation) {
		return nil, ftserr.New(ftserr.NoSuchRelation, "relation %q does not exist", relation)
	}

	rows, err := in.db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(relation)))
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "introspecting relation %q", relation)
	}
	defer rows.Close()

	type pkCol struct {
		name string
		ord  int
	}
	var pkCols []pkCol
	for rows.Next() {
		var (
			cid        int
			name       string
			declType   string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &defaultVal, &pk); err != nil {
			return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "scanning table_info(%s)", relation)
		}
		if pk > 0 {
			pkCols = append(pkCols, pkCol{name: name, ord: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// SQLite's pk column is a 1-based ordinal within the key; place each
	// name at its ordinal position regardless of scan order.
	names := make([]string, len(pkCols))
	for _, c := range pkCols {
		if c.ord-1 >= 0 && c.ord-1 < len(names) {
			names[c.ord-1] = c.name
		}
	}
	return names, nil
}

// IsKeyEligible reports whether f can serve as an index's key segment:
// a scale-0 integer, a fixed-length 16-byte binary/char column, or the
// RDB$DB_KEY pseudo-column.
func IsKeyEligible(f FieldInfo) bool {
	switch {
	case f.Name == DBKeyPseudoColumn:
		return true
	case f.Type == TypeInteger && f.Scale == 0:
		return true
	case f.Type == TypeBinary && f.Length == 16:
		return true
	default:
		return false
	}
}

func (in *Introspector) relationExists(relation string) bool {
	var name string
	err := in.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type='table' AND name = ? COLLATE NOCASE`,
		relation,
	).Scan(&name)
	return err == nil
}

// classify maps a SQLite declared type string to a ColumnType, extracting
// length/scale the way BINARY(16), NUMERIC(18,0), etc. encode them.
func classify(name, declType string, nullable bool) FieldInfo {
	upper := strings.ToUpper(strings.TrimSpace(declType))
	length, scale := parseTypeParams(upper)

	fi := FieldInfo{Name: name, Length: length, Scale: scale, Nullable: nullable, Charset: "UTF8"}

	switch {
	case strings.Contains(upper, "INT"):
		fi.Type = TypeInteger
		fi.Scale = 0
	case strings.HasPrefix(upper, "BINARY") || strings.HasPrefix(upper, "BLOB") && length > 0:
		fi.Type = TypeBinary
	case strings.Contains(upper, "CHAR") && strings.Contains(upper, "BINARY"):
		fi.Type = TypeBinary
	case strings.Contains(upper, "BLOB"):
		fi.Type = TypeBlob
	case strings.Contains(upper, "CHAR") || strings.Contains(upper, "TEXT") || strings.Contains(upper, "CLOB"):
		fi.Type = TypeText
	case strings.Contains(upper, "REAL") || strings.Contains(upper, "FLOA") || strings.Contains(upper, "DOUB") || strings.Contains(upper, "NUMERIC") || strings.Contains(upper, "DECIMAL"):
		fi.Type = TypeFloat
	case strings.Contains(upper, "TIMESTAMP") || strings.Contains(upper, "DATETIME"):
		fi.Type = TypeTimestamp
	case strings.Contains(upper, "DATE"):
		fi.Type = TypeDate
	case strings.Contains(upper, "TIME"):
		fi.Type = TypeTime
	default:
		fi.Type = TypeText
	}

	return fi
}

// parseTypeParams extracts "(length[,scale])" from a declared type like
// NUMERIC(18,4) or CHAR(16).
func parseTypeParams(declType string) (length, scale int) {
	open := strings.Index(declType, "(")
	close := strings.Index(declType, ")")
	if open < 0 || close < 0 || close < open {
		return 0, 0
	}
	inner := declType[open+1 : close]
	parts := strings.Split(inner, ",")
	if len(parts) >= 1 {
		fmt.Sscanf(strings.TrimSpace(parts[0]), "%d", &length)
	}
	if len(parts) >= 2 {
		fmt.Sscanf(strings.TrimSpace(parts[1]), "%d", &scale)
	}
	return length, scale
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
