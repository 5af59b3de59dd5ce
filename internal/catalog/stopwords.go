package catalog

import (
	"strings"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// StopWords loads every stop word of analyzerName. Words are stored
// lowercased at insert time, so this is just a straight read.
func (r *Repository) StopWords(analyzerName string) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT FTS$WORD FROM FTS$STOP_WORDS WHERE FTS$ANALYZER_NAME = ? COLLATE NOCASE ORDER BY FTS$WORD
	`, analyzerName)
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "loading stop words for %q", analyzerName)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// AddStopWord inserts word (lowercased) into analyzerName's stop-word set.
// Fails with *no-such-analyzer* if the analyzer is undefined and
// *cannot-modify-system-analyzer* if it names a built-in. When the
// analyzer is in use by any complete index, those indexes are demoted to
// status U.
func (r *Repository) AddStopWord(isSystemAnalyzer func(string) bool, analyzerName, word string) error {
	if isSystemAnalyzer(analyzerName) {
		return ftserr.New(ftserr.CannotModifySystemAnalyzer, "cannot add stop word to system analyzer %q", analyzerName)
	}
	if !r.HasUserAnalyzer(analyzerName) {
		return ftserr.New(ftserr.NoSuchAnalyzer, "analyzer %q does not exist", analyzerName)
	}
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return ftserr.New(ftserr.ArgumentNull, "stop word must not be empty")
	}

	stmt, err := r.prepare(`INSERT OR IGNORE INTO FTS$STOP_WORDS (FTS$ANALYZER_NAME, FTS$WORD) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	if _, err := stmt.Exec(analyzerName, word); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "adding stop word %q to %q", word, analyzerName)
	}
	return r.demoteIndexesUsingAnalyzer(analyzerName)
}

// DropStopWord removes word from analyzerName's stop-word set, demoting
// any complete index that uses the analyzer.
func (r *Repository) DropStopWord(isSystemAnalyzer func(string) bool, analyzerName, word string) error {
	if isSystemAnalyzer(analyzerName) {
		return ftserr.New(ftserr.CannotModifySystemAnalyzer, "cannot drop stop word from system analyzer %q", analyzerName)
	}
	if !r.HasUserAnalyzer(analyzerName) {
		return ftserr.New(ftserr.NoSuchAnalyzer, "analyzer %q does not exist", analyzerName)
	}
	word = strings.ToLower(strings.TrimSpace(word))

	stmt, err := r.prepare(`DELETE FROM FTS$STOP_WORDS WHERE FTS$ANALYZER_NAME = ? COLLATE NOCASE AND FTS$WORD = ?`)
	if err != nil {
		return err
	}
	if _, err := stmt.Exec(analyzerName, word); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "dropping stop word %q from %q", word, analyzerName)
	}
	return r.demoteIndexesUsingAnalyzer(analyzerName)
}

// demoteIndexesUsingAnalyzer transitions every complete index whose
// analyzer = name to U.
func (r *Repository) demoteIndexesUsingAnalyzer(analyzerName string) error {
	stmt, err := r.prepare(`
		UPDATE FTS$INDICES SET FTS$INDEX_STATUS = 'U'
		WHERE FTS$ANALYZER = ? COLLATE NOCASE AND FTS$INDEX_STATUS = 'C'
	`)
	if err != nil {
		return err
	}
	if _, err := stmt.Exec(analyzerName); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "demoting indexes using analyzer %q", analyzerName)
	}
	return nil
}
