package catalog

import (
	"database/sql"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// Segment is one row of FTS$INDEX_SEGMENTS: a field binding for an index.
type Segment struct {
	IndexName string
	FieldName string
	IsKey     bool
	Boost     *float64 // nil when unset
}

// FillSegments loads every segment of index, key segment first.
func (r *Repository) FillSegments(indexName string) ([]Segment, error) {
	rows, err := r.db.Query(`
		SELECT FTS$INDEX_NAME, FTS$FIELD_NAME, FTS$KEY, FTS$BOOST
		FROM FTS$INDEX_SEGMENTS
		WHERE FTS$INDEX_NAME = ?
		ORDER BY FTS$KEY DESC, FTS$FIELD_NAME
	`, indexName)
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "loading segments for %q", indexName)
	}
	defer rows.Close()

	var segs []Segment
	for rows.Next() {
		var s Segment
		var boost sql.NullFloat64
		if err := rows.Scan(&s.IndexName, &s.FieldName, &s.IsKey, &boost); err != nil {
			return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "scanning segment row")
		}
		if boost.Valid {
			v := boost.Float64
			s.Boost = &v
		}
		segs = append(segs, s)
	}
	return segs, rows.Err()
}

// HasIndexField reports whether index has a segment bound to field.
func (r *Repository) HasIndexField(indexName, fieldName string) bool {
	var n string
	err := r.db.QueryRow(`
		SELECT FTS$FIELD_NAME FROM FTS$INDEX_SEGMENTS
		WHERE FTS$INDEX_NAME = ? AND FTS$FIELD_NAME = ?
	`, indexName, fieldName).Scan(&n)
	return err == nil
}

// HasKeyField reports whether index already has a key segment bound.
func (r *Repository) HasKeyField(indexName string) bool {
	var n string
	err := r.db.QueryRow(`
		SELECT FTS$FIELD_NAME FROM FTS$INDEX_SEGMENTS
		WHERE FTS$INDEX_NAME = ? AND FTS$KEY = 1
	`, indexName).Scan(&n)
	return err == nil
}

// AddIndexField binds field to index, optionally as the key segment. A
// field add on an already-built (status C) index transitions it to U,
// since the on-disk documents no longer match the definition.
func (r *Repository) AddIndexField(indexName, fieldName string, isKey bool, boost *float64) error {
	if !r.HasIndex(indexName) {
		return ftserr.New(ftserr.NoSuchIndex, "index %q does not exist", indexName)
	}
	if r.HasIndexField(indexName, fieldName) {
		return ftserr.New(ftserr.IndexLibraryError, "index %q already has field %q", indexName, fieldName)
	}
	if isKey && r.HasKeyField(indexName) {
		return ftserr.New(ftserr.CompositePKRequiresKey, "index %q already has a key segment", indexName)
	}

	stmt, err := r.prepare(`
		INSERT INTO FTS$INDEX_SEGMENTS (FTS$INDEX_NAME, FTS$FIELD_NAME, FTS$KEY, FTS$BOOST)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	var boostArg interface{}
	if boost != nil {
		boostArg = *boost
	}
	if _, err := stmt.Exec(indexName, fieldName, isKey, boostArg); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "adding field %q to index %q", fieldName, indexName)
	}
	return r.maybeTransitionToNeedsBuild(indexName)
}

// DropIndexField removes field's binding from index.
func (r *Repository) DropIndexField(indexName, fieldName string) error {
	if !r.HasIndexField(indexName, fieldName) {
		return ftserr.New(ftserr.NoSuchField, "index %q has no field %q", indexName, fieldName)
	}
	stmt, err := r.prepare(`DELETE FROM FTS$INDEX_SEGMENTS WHERE FTS$INDEX_NAME = ? AND FTS$FIELD_NAME = ?`)
	if err != nil {
		return err
	}
	if _, err := stmt.Exec(indexName, fieldName); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "dropping field %q from index %q", fieldName, indexName)
	}
	return r.maybeTransitionToNeedsBuild(indexName)
}

// SetIndexFieldBoost updates a segment's boost factor.
func (r *Repository) SetIndexFieldBoost(indexName, fieldName string, boost *float64) error {
	if !r.HasIndexField(indexName, fieldName) {
		return ftserr.New(ftserr.NoSuchField, "index %q has no field %q", indexName, fieldName)
	}
	stmt, err := r.prepare(`UPDATE FTS$INDEX_SEGMENTS SET FTS$BOOST = ? WHERE FTS$INDEX_NAME = ? AND FTS$FIELD_NAME = ?`)
	if err != nil {
		return err
	}
	var boostArg interface{}
	if boost != nil {
		boostArg = *boost
	}
	if _, err := stmt.Exec(boostArg, indexName, fieldName); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "setting boost on %q.%q", indexName, fieldName)
	}
	return r.maybeTransitionToNeedsBuild(indexName)
}

// maybeTransitionToNeedsBuild flips a complete index to U after a
// segment mutation; other statuses are left alone.
func (r *Repository) maybeTransitionToNeedsBuild(indexName string) error {
	idx, err := r.GetIndex(indexName, false)
	if err != nil {
		return err
	}
	if idx.Status == StatusComplete {
		return r.SetStatus(indexName, StatusNeedsBuild)
	}
	return nil
}
