package catalog

import (
	"database/sql"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// Index is one row of FTS$INDICES, optionally with its segments filled in.
type Index struct {
	Name        string
	Relation    string
	Analyzer    string
	Description string
	Status      Status
	Segments    []Segment // nil unless loaded with withSegments
}

// KeySegment returns the index's single key segment, or false if none is
// bound yet; every active index carries exactly one.
func (idx Index) KeySegment() (Segment, bool) {
	for _, s := range idx.Segments {
		if s.IsKey {
			return s, true
		}
	}
	return Segment{}, false
}

// FieldSegments returns the non-key (analyzed) segments in the order of
// Segments (by field name when loaded from the catalog).
func (idx Index) FieldSegments() []Segment {
	var out []Segment
	for _, s := range idx.Segments {
		if !s.IsKey {
			out = append(out, s)
		}
	}
	return out
}

// CreateIndex inserts a new FTS$INDICES row with status N. Fails with
// *index-already-exists* if the name is taken.
func (r *Repository) CreateIndex(name, relation, analyzer, description string) error {
	if r.HasIndex(name) {
		return ftserr.New(ftserr.IndexAlreadyExists, "index %q already exists", name)
	}
	stmt, err := r.prepare(`
		INSERT INTO FTS$INDICES (FTS$INDEX_NAME, FTS$RELATION_NAME, FTS$ANALYZER, FTS$DESCRIPTION, FTS$INDEX_STATUS)
		VALUES (?, ?, ?, ?, 'N')
	`)
	if err != nil {
		return err
	}
	if _, err := stmt.Exec(name, relation, analyzer, description); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "creating index %q", name)
	}
	return nil
}

// DropIndex deletes the index's catalog rows (segments cascade). The
// caller is responsible for removing the on-disk directory.
func (r *Repository) DropIndex(name string) error {
	if !r.HasIndex(name) {
		return ftserr.New(ftserr.NoSuchIndex, "index %q does not exist", name)
	}
	stmt, err := r.prepare(`DELETE FROM FTS$INDICES WHERE FTS$INDEX_NAME = ?`)
	if err != nil {
		return err
	}
	if _, err := stmt.Exec(name); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "dropping index %q", name)
	}
	return nil
}

// HasIndex reports whether name is a known index.
func (r *Repository) HasIndex(name string) bool {
	var n string
	err := r.db.QueryRow(`SELECT FTS$INDEX_NAME FROM FTS$INDICES WHERE FTS$INDEX_NAME = ?`, name).Scan(&n)
	return err == nil
}

// GetIndex loads one index by name, optionally filling its segments.
func (r *Repository) GetIndex(name string, withSegments bool) (Index, error) {
	var idx Index
	var desc sql.NullString
	err := r.db.QueryRow(`
		SELECT FTS$INDEX_NAME, FTS$RELATION_NAME, FTS$ANALYZER, FTS$DESCRIPTION, FTS$INDEX_STATUS
		FROM FTS$INDICES WHERE FTS$INDEX_NAME = ?
	`, name).Scan(&idx.Name, &idx.Relation, &idx.Analyzer, &desc, &idx.Status)
	if err == sql.ErrNoRows {
		return Index{}, ftserr.New(ftserr.NoSuchIndex, "index %q does not exist", name)
	}
	if err != nil {
		return Index{}, ftserr.Wrap(ftserr.IndexLibraryError, err, "loading index %q", name)
	}
	idx.Description = desc.String

	if withSegments {
		segs, err := r.FillSegments(idx.Name)
		if err != nil {
			return Index{}, err
		}
		idx.Segments = segs
	}
	return idx, nil
}

// AllIndexes loads every index, optionally with segments, ordered by name.
func (r *Repository) AllIndexes(withSegments bool) ([]Index, error) {
	rows, err := r.db.Query(`
		SELECT FTS$INDEX_NAME, FTS$RELATION_NAME, FTS$ANALYZER, FTS$DESCRIPTION, FTS$INDEX_STATUS
		FROM FTS$INDICES ORDER BY FTS$INDEX_NAME
	`)
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "loading indexes")
	}
	defer rows.Close()

	var result []Index
	for rows.Next() {
		var idx Index
		var desc sql.NullString
		if err := rows.Scan(&idx.Name, &idx.Relation, &idx.Analyzer, &desc, &idx.Status); err != nil {
			return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "scanning index row")
		}
		idx.Description = desc.String
		result = append(result, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if withSegments {
		for i := range result {
			segs, err := r.FillSegments(result[i].Name)
			if err != nil {
				return nil, err
			}
			result[i].Segments = segs
		}
	}
	return result, nil
}

// ActiveIndexesByRelation loads every index with status C or U targeting
// relation, with segments filled in; used by the applier and the trigger
// generator.
func (r *Repository) ActiveIndexesByRelation(relation string) ([]Index, error) {
	rows, err := r.db.Query(`
		SELECT FTS$INDEX_NAME, FTS$RELATION_NAME, FTS$ANALYZER, FTS$DESCRIPTION, FTS$INDEX_STATUS
		FROM FTS$INDICES
		WHERE FTS$RELATION_NAME = ? AND FTS$INDEX_STATUS IN ('C', 'U')
		ORDER BY FTS$INDEX_NAME
	`, relation)
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "loading active indexes for %q", relation)
	}
	defer rows.Close()

	var result []Index
	for rows.Next() {
		var idx Index
		var desc sql.NullString
		if err := rows.Scan(&idx.Name, &idx.Relation, &idx.Analyzer, &desc, &idx.Status); err != nil {
			return nil, err
		}
		idx.Description = desc.String
		result = append(result, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		segs, err := r.FillSegments(result[i].Name)
		if err != nil {
			return nil, err
		}
		result[i].Segments = segs
	}
	return result, nil
}

// SetStatus transitions an index's status. Legal transition order is
// enforced by callers, not here; this is the raw write.
func (r *Repository) SetStatus(name string, status Status) error {
	stmt, err := r.prepare(`UPDATE FTS$INDICES SET FTS$INDEX_STATUS = ? WHERE FTS$INDEX_NAME = ?`)
	if err != nil {
		return err
	}
	res, err := stmt.Exec(string(status), name)
	if err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "setting status of %q", name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "checking rows affected")
	}
	if n == 0 {
		return ftserr.New(ftserr.NoSuchIndex, "index %q does not exist", name)
	}
	return nil
}
