package routines

import (
	"context"

	"github.com/ibsurgeon/fts-udr-go/internal/applier"
	"github.com/ibsurgeon/fts-udr-go/internal/highlight"
	"github.com/ibsurgeon/fts-udr-go/internal/query"
)

// DefaultSearchLimit is SEARCH's row limit when the caller passes none.
const DefaultSearchLimit = 1000

// UpdateIndexes implements UPDATE_INDEXES: one applier run over the
// change log. An empty log commits nothing and succeeds.
func (s *Service) UpdateIndexes(ctx context.Context) (applier.Result, error) {
	return applier.New(s.db, s.repo, s.root, s.repo).Run(ctx)
}

// Search implements SEARCH. Callers without an explicit limit pass
// DefaultSearchLimit; a limit of zero yields no rows and no error.
func (s *Service) Search(ctx context.Context, indexName, queryStr string, limit int, explain bool) ([]query.Hit, error) {
	if err := requireArg("index name", indexName); err != nil {
		return nil, err
	}
	if err := requireArg("query", queryStr); err != nil {
		return nil, err
	}
	return query.New(s.db, s.repo, s.root, s.repo).Search(ctx, indexName, queryStr, limit, explain)
}

// Analyze implements ANALYZE: the analyzer's terms for text.
func (s *Service) Analyze(text, analyzerName string) ([]string, error) {
	if err := requireArg("analyzer name", analyzerName); err != nil {
		return nil, err
	}
	return query.Analyze(text, analyzerName, s.repo)
}

// EscapeQuery implements ESCAPE_QUERY.
func (s *Service) EscapeQuery(q string) string {
	return query.EscapeQuery(q)
}

// BestFragment implements BEST_FRAGMENT. The original's optional field
// name scoped query parsing to one field of an index; this standalone
// highlighter works on caller-supplied text, so the argument is accepted
// for call compatibility and does not alter the result.
func (s *Service) BestFragment(text, queryStr, analyzerName, fieldName string, fragmentSize int, leftTag, rightTag string) (string, error) {
	if err := requireArg("analyzer name", analyzerName); err != nil {
		return "", err
	}
	_ = fieldName
	return highlight.BestFragment(text, queryStr, highlight.Options{
		AnalyzerName: analyzerName,
		FragmentSize: fragmentSize,
		LeftTag:      leftTag,
		RightTag:     rightTag,
	}, s.repo)
}

// BestFragments implements BEST_FRAGMENTS: up to maxFragments fragments,
// best first.
func (s *Service) BestFragments(text, queryStr, analyzerName, fieldName string, fragmentSize int, leftTag, rightTag string, maxFragments int) ([]string, error) {
	if err := requireArg("analyzer name", analyzerName); err != nil {
		return nil, err
	}
	_ = fieldName
	return highlight.BestFragments(text, queryStr, highlight.Options{
		AnalyzerName: analyzerName,
		FragmentSize: fragmentSize,
		LeftTag:      leftTag,
		RightTag:     rightTag,
	}, maxFragments, s.repo)
}
