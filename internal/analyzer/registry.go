// Package analyzer maintains the case-insensitive analyzer name
// registry: built-in analyzers with immutable metadata, and user-defined
// analyzers layered on a stop-word-capable built-in base, built on top
// of github.com/blevesearch/bleve/v2's own analyzer registry.
package analyzer

import (
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/cs"
	"github.com/blevesearch/bleve/v2/analysis/lang/el"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/registry"

	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ar"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/de"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/fa"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/fr"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/nl"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/pt"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ru"

	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// Source supplies user-defined analyzer metadata and stop words; satisfied
// by *catalog.Repository. The registry stays free of SQL so ANALYZE and the
// highlighter can run against a plain Source stub in tests.
type Source interface {
	GetUserAnalyzer(name string) (catalog.UserAnalyzer, error)
	StopWords(name string) ([]string, error)
}

// builtin is one row of the immutable built-in analyzer table. Entries
// either name a pipeline bleve registers out of the box (bleveName) or
// carry a recipe this package assembles from bleve's tokenizer and filter
// components (tokenizer + optional stop-word token map).
type builtin struct {
	bleveName string
	tokenizer string
	stopMap   string
	stopWords bool
}

func (b builtin) registered() bool { return b.bleveName != "" }

// builtins is the name -> entry table, keyed lowercase. Language names
// follow the Lucene-era vocabulary the original UDR exposed; "brazilian"
// and "chinese" map onto bleve's closest shipped equivalents (Portuguese,
// CJK) since bleve does not ship distinct Brazilian-Portuguese or
// Mandarin-specific pipelines. Czech and Greek ship stop-word lists but no
// stemmer pipeline in bleve, so they are assembled from the unicode
// tokenizer plus their stop lists. The *_snowball aliases are not distinct
// pipelines: bleve's bundled language analyzers already stem through
// github.com/blevesearch/snowballstem, so e.g. "english" and
// "english_snowball" resolve to the same analyzer.
var builtins = map[string]builtin{
	"standard":   {bleveName: "standard", stopWords: true},
	"simple":     {bleveName: "simple"},
	"whitespace": {tokenizer: whitespace.Name},
	"keyword":    {bleveName: "keyword"},
	"stop":       {tokenizer: unicode.Name, stopMap: en.StopName, stopWords: true},

	"arabic":    {bleveName: "ar", stopWords: true},
	"brazilian": {bleveName: "pt", stopWords: true},
	"chinese":   {bleveName: "cjk"},
	"cjk":       {bleveName: "cjk"},
	"czech":     {tokenizer: unicode.Name, stopMap: cs.StopName, stopWords: true},
	"dutch":     {bleveName: "nl", stopWords: true},
	"english":   {bleveName: "en", stopWords: true},
	"french":    {bleveName: "fr", stopWords: true},
	"german":    {bleveName: "de", stopWords: true},
	"greek":     {tokenizer: unicode.Name, stopMap: el.StopName, stopWords: true},
	"persian":   {bleveName: "fa", stopWords: true},
	"russian":   {bleveName: "ru", stopWords: true},

	"english_snowball": {bleveName: "en", stopWords: true},
	"french_snowball":  {bleveName: "fr", stopWords: true},
	"german_snowball":  {bleveName: "de", stopWords: true},
	"russian_snowball": {bleveName: "ru", stopWords: true},
}

// IsBuiltin reports whether name (case-insensitive) is an immutable
// built-in analyzer; used as the "is a system analyzer" predicate by the
// catalog's stop-word mutation guard.
func IsBuiltin(name string) bool {
	_, ok := builtins[strings.ToLower(name)]
	return ok
}

// SupportsStopWords reports whether the named built-in analyzer supports a
// layered stop-word list. Returns false for unknown names.
func SupportsStopWords(name string) bool {
	b, ok := builtins[strings.ToLower(name)]
	return ok && b.stopWords
}

// Names returns every built-in analyzer name, sorted, for the
// SYSTEM_ANALYZERS routine.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds a standalone analyzer instance for name: a built-in, or a
// user-defined analyzer resolved through src. Used by the ANALYZE routine
// and the highlighter, which tokenize outside any index mapping. Fails
// with *no-such-analyzer* or *base-analyzer-lacks-stopwords*.
func New(name string, src Source) (analysis.Analyzer, error) {
	if b, ok := builtins[strings.ToLower(name)]; ok {
		return newBuiltin(name, b)
	}
	if src == nil {
		return nil, ftserr.New(ftserr.NoSuchAnalyzer, "analyzer %q does not exist", name)
	}
	ua, err := src.GetUserAnalyzer(name)
	if err != nil {
		return nil, err
	}
	base, ok := builtins[strings.ToLower(ua.BaseAnalyzer)]
	if !ok {
		return nil, ftserr.New(ftserr.NoSuchAnalyzer, "base analyzer %q is not a built-in", ua.BaseAnalyzer)
	}
	if !base.stopWords {
		return nil, ftserr.New(ftserr.BaseAnalyzerLacksStopWords, "base analyzer %q does not support stop words", ua.BaseAnalyzer)
	}
	baseAnalyzer, err := newBuiltin(ua.BaseAnalyzer, base)
	if err != nil {
		return nil, err
	}
	words, err := src.StopWords(ua.Name)
	if err != nil {
		return nil, err
	}
	tm := analysis.NewTokenMap()
	for _, w := range words {
		tm.AddToken(strings.ToLower(w))
	}
	return &stopWrap{base: baseAnalyzer, filter: stop.NewStopTokensFilter(tm)}, nil
}

func newBuiltin(name string, b builtin) (analysis.Analyzer, error) {
	cache := registry.NewCache()
	if b.registered() {
		a, err := cache.AnalyzerNamed(b.bleveName)
		if err != nil {
			return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "resolving built-in analyzer %q", name)
		}
		return a, nil
	}

	tokenizer, err := cache.TokenizerNamed(b.tokenizer)
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "resolving tokenizer for analyzer %q", name)
	}
	filters := []analysis.TokenFilter{lowercase.NewLowerCaseFilter()}
	if b.stopMap != "" {
		tm, err := cache.TokenMapNamed(b.stopMap)
		if err != nil {
			return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "resolving stop words for analyzer %q", name)
		}
		filters = append(filters, stop.NewStopTokensFilter(tm))
	}
	return &analysis.DefaultAnalyzer{
		Tokenizer:    tokenizer,
		TokenFilters: filters,
	}, nil
}

// stopWrap runs a base analyzer's pipeline and drops the configured stop
// tokens from its output. It is how user-defined analyzers layer a custom
// stop-word list over a built-in whose pipeline bleve owns.
type stopWrap struct {
	base   analysis.Analyzer
	filter *stop.StopTokensFilter
}

func (a *stopWrap) Analyze(input []byte) analysis.TokenStream {
	return a.filter.Filter(a.base.Analyze(input))
}
