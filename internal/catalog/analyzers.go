package catalog

import (
	"database/sql"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// UserAnalyzer is one row of FTS$ANALYZERS: a user-defined analyzer layered
// on a built-in base analyzer, optionally with a stop-word list.
type UserAnalyzer struct {
	Name        string
	BaseAnalyzer string
	Description string
}

// HasUserAnalyzer reports whether name is a defined user analyzer.
func (r *Repository) HasUserAnalyzer(name string) bool {
	var n string
	err := r.db.QueryRow(`SELECT FTS$ANALYZER_NAME FROM FTS$ANALYZERS WHERE FTS$ANALYZER_NAME = ? COLLATE NOCASE`, name).Scan(&n)
	return err == nil
}

// GetUserAnalyzer loads one user analyzer by name; analyzer names compare
// case-insensitively.
func (r *Repository) GetUserAnalyzer(name string) (UserAnalyzer, error) {
	var a UserAnalyzer
	var desc sql.NullString
	err := r.db.QueryRow(`
		SELECT FTS$ANALYZER_NAME, FTS$BASE_ANALYZER, FTS$DESCRIPTION
		FROM FTS$ANALYZERS WHERE FTS$ANALYZER_NAME = ? COLLATE NOCASE
	`, name).Scan(&a.Name, &a.BaseAnalyzer, &desc)
	if err == sql.ErrNoRows {
		return UserAnalyzer{}, ftserr.New(ftserr.NoSuchAnalyzer, "analyzer %q does not exist", name)
	}
	if err != nil {
		return UserAnalyzer{}, ftserr.Wrap(ftserr.IndexLibraryError, err, "loading analyzer %q", name)
	}
	a.Description = desc.String
	return a, nil
}

// AllUserAnalyzers loads every user-defined analyzer, ordered by name.
func (r *Repository) AllUserAnalyzers() ([]UserAnalyzer, error) {
	rows, err := r.db.Query(`SELECT FTS$ANALYZER_NAME, FTS$BASE_ANALYZER, FTS$DESCRIPTION FROM FTS$ANALYZERS ORDER BY FTS$ANALYZER_NAME`)
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "loading analyzers")
	}
	defer rows.Close()

	var out []UserAnalyzer
	for rows.Next() {
		var a UserAnalyzer
		var desc sql.NullString
		if err := rows.Scan(&a.Name, &a.BaseAnalyzer, &desc); err != nil {
			return nil, err
		}
		a.Description = desc.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateUserAnalyzer defines a new analyzer layered on baseAnalyzer. The
// base-analyzer-supports-stop-words check is the caller's (C2's)
// responsibility since only the registry knows which built-ins qualify.
func (r *Repository) CreateUserAnalyzer(name, baseAnalyzer, description string) error {
	if r.HasUserAnalyzer(name) {
		return ftserr.New(ftserr.IndexAlreadyExists, "analyzer %q already exists", name)
	}
	stmt, err := r.prepare(`INSERT INTO FTS$ANALYZERS (FTS$ANALYZER_NAME, FTS$BASE_ANALYZER, FTS$DESCRIPTION) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	if _, err := stmt.Exec(name, baseAnalyzer, description); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "creating analyzer %q", name)
	}
	return nil
}

// DropUserAnalyzer removes a user-defined analyzer and its stop words.
func (r *Repository) DropUserAnalyzer(name string) error {
	if !r.HasUserAnalyzer(name) {
		return ftserr.New(ftserr.NoSuchAnalyzer, "analyzer %q does not exist", name)
	}
	stmt, err := r.prepare(`DELETE FROM FTS$ANALYZERS WHERE FTS$ANALYZER_NAME = ? COLLATE NOCASE`)
	if err != nil {
		return err
	}
	if _, err := stmt.Exec(name); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "dropping analyzer %q", name)
	}
	return nil
}
