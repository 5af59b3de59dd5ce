package routines

import (
	"github.com/ibsurgeon/fts-udr-go/internal/analyzer"
	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// AnalyzerInfo is one row of SYSTEM_ANALYZERS: a built-in analyzer's name
// and whether it can carry a user stop-word list.
type AnalyzerInfo struct {
	Name               string
	StopWordsSupported bool
}

// SystemAnalyzers implements SYSTEM_ANALYZERS: the immutable built-in
// table, sorted by name.
func (s *Service) SystemAnalyzers() []AnalyzerInfo {
	names := analyzer.Names()
	infos := make([]AnalyzerInfo, 0, len(names))
	for _, n := range names {
		infos = append(infos, AnalyzerInfo{Name: n, StopWordsSupported: analyzer.SupportsStopWords(n)})
	}
	return infos
}

// HasSystemAnalyzer implements HAS_SYSTEM_ANALYZER.
func (s *Service) HasSystemAnalyzer(name string) bool {
	return analyzer.IsBuiltin(name)
}

// GetSystemAnalyzer implements GET_SYSTEM_ANALYZER.
func (s *Service) GetSystemAnalyzer(name string) (AnalyzerInfo, error) {
	if err := requireArg("analyzer name", name); err != nil {
		return AnalyzerInfo{}, err
	}
	if !analyzer.IsBuiltin(name) {
		return AnalyzerInfo{}, ftserr.New(ftserr.NoSuchAnalyzer, "analyzer %q is not a built-in", name)
	}
	return AnalyzerInfo{Name: name, StopWordsSupported: analyzer.SupportsStopWords(name)}, nil
}

// CreateAnalyzer defines a user analyzer layered on a stop-word-capable
// built-in base.
func (s *Service) CreateAnalyzer(name, baseAnalyzer, description string) error {
	if err := requireArg("analyzer name", name); err != nil {
		return err
	}
	if err := requireArg("base analyzer", baseAnalyzer); err != nil {
		return err
	}
	if analyzer.IsBuiltin(name) {
		return ftserr.New(ftserr.CannotModifySystemAnalyzer, "%q names a system analyzer", name)
	}
	if !analyzer.IsBuiltin(baseAnalyzer) {
		return ftserr.New(ftserr.NoSuchAnalyzer, "base analyzer %q is not a built-in", baseAnalyzer)
	}
	if !analyzer.SupportsStopWords(baseAnalyzer) {
		return ftserr.New(ftserr.BaseAnalyzerLacksStopWords, "base analyzer %q does not support stop words", baseAnalyzer)
	}
	return s.repo.CreateUserAnalyzer(name, baseAnalyzer, description)
}

// DropAnalyzer removes a user analyzer and its stop words.
func (s *Service) DropAnalyzer(name string) error {
	if err := requireArg("analyzer name", name); err != nil {
		return err
	}
	if analyzer.IsBuiltin(name) {
		return ftserr.New(ftserr.CannotModifySystemAnalyzer, "cannot drop system analyzer %q", name)
	}
	return s.repo.DropUserAnalyzer(name)
}

// ListAnalyzers loads every user-defined analyzer.
func (s *Service) ListAnalyzers() ([]catalog.UserAnalyzer, error) {
	return s.repo.AllUserAnalyzers()
}

// AnalyzerStopWords implements ANALYZER_STOP_WORDS: the stored stop words
// of a user analyzer (built-ins carry their lists inside the pipeline and
// report none here).
func (s *Service) AnalyzerStopWords(name string) ([]string, error) {
	if err := requireArg("analyzer name", name); err != nil {
		return nil, err
	}
	if analyzer.IsBuiltin(name) {
		return nil, nil
	}
	if !s.repo.HasUserAnalyzer(name) {
		return nil, ftserr.New(ftserr.NoSuchAnalyzer, "analyzer %q does not exist", name)
	}
	return s.repo.StopWords(name)
}

// AddStopWord implements ADD_STOP_WORD; complete indexes using the
// analyzer drop to U.
func (s *Service) AddStopWord(analyzerName, word string) error {
	if err := requireArg("analyzer name", analyzerName); err != nil {
		return err
	}
	return s.repo.AddStopWord(analyzer.IsBuiltin, analyzerName, word)
}

// DropStopWord implements DROP_STOP_WORD.
func (s *Service) DropStopWord(analyzerName, word string) error {
	if err := requireArg("analyzer name", analyzerName); err != nil {
		return err
	}
	return s.repo.DropStopWord(analyzer.IsBuiltin, analyzerName, word)
}
