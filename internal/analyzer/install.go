package analyzer

import (
	"fmt"
	"strings"

	customanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenmap"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/blevesearch/bleve/v2/analysis"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// wrapName is the analyzer type this package registers with bleve so that
// user-defined analyzers (base pipeline + custom stop words) can be
// referenced by name from an index mapping. The constructor resolves its
// base analyzer and stop-word token map through the mapping's cache.
const wrapName = "fts_stop_wrap"

func init() {
	registry.RegisterAnalyzer(wrapName, stopWrapConstructor)
}

func stopWrapConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Analyzer, error) {
	baseName, ok := config["base"].(string)
	if !ok || baseName == "" {
		return nil, fmt.Errorf("%s analyzer requires a base analyzer name", wrapName)
	}
	base, err := cache.AnalyzerNamed(baseName)
	if err != nil {
		return nil, err
	}
	tmName, ok := config["stop_token_map"].(string)
	if !ok || tmName == "" {
		return nil, fmt.Errorf("%s analyzer requires a stop_token_map name", wrapName)
	}
	tm, err := cache.TokenMapNamed(tmName)
	if err != nil {
		return nil, err
	}
	return &stopWrap{base: base, filter: stop.NewStopTokensFilter(tm)}, nil
}

// Install makes the catalog analyzer name usable from field mappings of im
// and returns the bleve analyzer name the mapping should reference.
// Built-ins bleve registers globally pass through unchanged; hand-assembled
// built-ins and user-defined analyzers are defined into the mapping, so the
// definition persists with the index and reopening the directory restores
// the same pipeline. Fails with *no-such-analyzer* or
// *base-analyzer-lacks-stopwords*.
func Install(im *mapping.IndexMappingImpl, name string, src Source) (string, error) {
	if b, ok := builtins[strings.ToLower(name)]; ok {
		return installBuiltin(im, name, b)
	}
	if src == nil {
		return "", ftserr.New(ftserr.NoSuchAnalyzer, "analyzer %q does not exist", name)
	}
	ua, err := src.GetUserAnalyzer(name)
	if err != nil {
		return "", err
	}
	base, ok := builtins[strings.ToLower(ua.BaseAnalyzer)]
	if !ok {
		return "", ftserr.New(ftserr.NoSuchAnalyzer, "base analyzer %q is not a built-in", ua.BaseAnalyzer)
	}
	if !base.stopWords {
		return "", ftserr.New(ftserr.BaseAnalyzerLacksStopWords, "base analyzer %q does not support stop words", ua.BaseAnalyzer)
	}

	baseName, err := installBuiltin(im, ua.BaseAnalyzer, base)
	if err != nil {
		return "", err
	}
	words, err := src.StopWords(ua.Name)
	if err != nil {
		return "", err
	}

	key := sanitizeName(ua.Name)
	mapName := "fts_stopmap_" + key
	analyzerName := "fts_user_" + key

	tokens := make([]interface{}, len(words))
	for i, w := range words {
		tokens[i] = strings.ToLower(w)
	}
	if err := im.AddCustomTokenMap(mapName, map[string]interface{}{
		"type":   tokenmap.Name,
		"tokens": tokens,
	}); err != nil {
		return "", ftserr.Wrap(ftserr.IndexLibraryError, err, "building stop-word token map for %q", ua.Name)
	}
	if err := im.AddCustomAnalyzer(analyzerName, map[string]interface{}{
		"type":           wrapName,
		"base":           baseName,
		"stop_token_map": mapName,
	}); err != nil {
		return "", ftserr.Wrap(ftserr.IndexLibraryError, err, "building custom analyzer %q", ua.Name)
	}
	return analyzerName, nil
}

// installBuiltin defines a recipe-based built-in (whitespace, stop, czech,
// greek) into im, or passes a globally registered name through untouched.
func installBuiltin(im *mapping.IndexMappingImpl, name string, b builtin) (string, error) {
	if b.registered() {
		return b.bleveName, nil
	}

	key := sanitizeName(name)
	analyzerName := "fts_" + key
	filters := []string{lowercase.Name}
	if b.stopMap != "" {
		filterName := "fts_stopfilter_" + key
		if err := im.AddCustomTokenFilter(filterName, map[string]interface{}{
			"type":           stop.Name,
			"stop_token_map": b.stopMap,
		}); err != nil {
			return "", ftserr.Wrap(ftserr.IndexLibraryError, err, "building stop filter for %q", name)
		}
		filters = append(filters, filterName)
	}
	if err := im.AddCustomAnalyzer(analyzerName, map[string]interface{}{
		"type":          customanalyzer.Name,
		"tokenizer":     b.tokenizer,
		"token_filters": filters,
	}); err != nil {
		return "", ftserr.Wrap(ftserr.IndexLibraryError, err, "building built-in analyzer %q", name)
	}
	return analyzerName, nil
}

// sanitizeName maps a catalog analyzer name to a bleve mapping-safe
// identifier (bleve's config keys are plain strings but we avoid
// whitespace/punctuation from user-chosen names leaking into them).
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
