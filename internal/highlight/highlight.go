// Package highlight renders the best fragment(s) of a text for a query
// with configurable surrounding tags, built on bleve's fragmenter and
// fragment-formatter components: the terms come from running the chosen
// analyzer over both the query and the text, so highlighting matches the
// same tokens a search against that analyzer would.
package highlight

import (
	"sort"
	"strings"

	bhighlight "github.com/blevesearch/bleve/v2/search/highlight"
	htmlformat "github.com/blevesearch/bleve/v2/search/highlight/format/html"
	sfrag "github.com/blevesearch/bleve/v2/search/highlight/fragmenter/simple"

	"github.com/ibsurgeon/fts-udr-go/internal/analyzer"
	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// MaxFragmentOctets bounds the fragment size argument and every emitted
// fragment, in UTF-8 octets.
const MaxFragmentOctets = 8191

// Options carries the tag and sizing knobs shared by BestFragment and
// BestFragments.
type Options struct {
	AnalyzerName string
	FragmentSize int
	LeftTag      string
	RightTag     string
}

// BestFragment returns the single highest-scoring fragment of text for
// queryStr, or "" when no term matches. Fails with
// *fragment-size-out-of-range* or *fragment-too-long* on bound
// violations.
func BestFragment(text, queryStr string, opts Options, src analyzer.Source) (string, error) {
	frags, err := bestFragments(text, queryStr, opts, 1, src)
	if err != nil {
		return "", err
	}
	if len(frags) == 0 {
		return "", nil
	}
	return frags[0], nil
}

// BestFragments returns up to maxFragments fragments, best first.
func BestFragments(text, queryStr string, opts Options, maxFragments int, src analyzer.Source) ([]string, error) {
	if maxFragments <= 0 {
		return nil, nil
	}
	return bestFragments(text, queryStr, opts, maxFragments, src)
}

func bestFragments(text, queryStr string, opts Options, maxFragments int, src analyzer.Source) ([]string, error) {
	if opts.FragmentSize < 1 || opts.FragmentSize > MaxFragmentOctets {
		return nil, ftserr.New(ftserr.FragmentSizeOutOfRange,
			"fragment size %d outside [1, %d]", opts.FragmentSize, MaxFragmentOctets)
	}

	a, err := analyzer.New(opts.AnalyzerName, src)
	if err != nil {
		return nil, err
	}

	// The query's terms, analyzed the same way the text will be. Escapes
	// are stripped first so a caller can pass an ESCAPE_QUERY'd string.
	queryTerms := make(map[string]struct{})
	for _, tok := range a.Analyze([]byte(stripEscapes(queryStr))) {
		queryTerms[string(tok.Term)] = struct{}{}
	}
	if len(queryTerms) == 0 {
		return nil, nil
	}

	var locations bhighlight.TermLocations
	for _, tok := range a.Analyze([]byte(text)) {
		if _, ok := queryTerms[string(tok.Term)]; !ok {
			continue
		}
		locations = append(locations, &bhighlight.TermLocation{
			Term:  string(tok.Term),
			Pos:   tok.Position,
			Start: tok.Start,
			End:   tok.End,
		})
	}
	if len(locations) == 0 {
		return nil, nil
	}

	fragmenter := sfrag.NewFragmenter(opts.FragmentSize)
	fragments := fragmenter.Fragment([]byte(text), locations)
	for _, f := range fragments {
		f.Score = scoreFragment(f, locations)
	}
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].Score > fragments[j].Score
	})

	formatter := htmlformat.NewFragmentFormatter(opts.LeftTag, opts.RightTag)
	var out []string
	var taken []*bhighlight.Fragment
	for _, f := range fragments {
		if f.Score <= 0 || overlapsAny(f, taken) {
			continue
		}
		rendered := formatter.Format(f, locations)
		if len(rendered)-tagOverhead(f, locations, opts) > MaxFragmentOctets {
			return nil, ftserr.New(ftserr.FragmentTooLong,
				"fragment exceeds the %d-octet bound", MaxFragmentOctets)
		}
		out = append(out, rendered)
		taken = append(taken, f)
		if len(out) == maxFragments {
			break
		}
	}
	return out, nil
}

// scoreFragment counts the matched term locations inside f's span.
func scoreFragment(f *bhighlight.Fragment, locations bhighlight.TermLocations) float64 {
	score := 0.0
	for _, loc := range locations {
		if loc.Start >= f.Start && loc.End <= f.End {
			score++
		}
	}
	return score
}

func overlapsAny(f *bhighlight.Fragment, taken []*bhighlight.Fragment) bool {
	for _, t := range taken {
		if f.Start < t.End && t.Start < f.End {
			return true
		}
	}
	return false
}

// tagOverhead is the octet count the tags add to a rendered fragment; the
// 8191 bound applies to the fragment's text, not the markup around it.
func tagOverhead(f *bhighlight.Fragment, locations bhighlight.TermLocations, opts Options) int {
	n := 0
	for _, loc := range locations {
		if loc.Start >= f.Start && loc.End <= f.End {
			n += len(opts.LeftTag) + len(opts.RightTag)
		}
	}
	return n
}

// stripEscapes removes the backslashes ESCAPE_QUERY inserts so the raw
// terms reach the analyzer.
func stripEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
