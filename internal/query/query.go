// Package query parses and executes full-text searches against a built
// index, and hosts the ANALYZE / ESCAPE_QUERY helpers.
package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/blevesearch/bleve/v2"
	bquery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/ibsurgeon/fts-udr-go/internal/analyzer"
	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
	"github.com/ibsurgeon/fts-udr-go/internal/extractor"
	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
	"github.com/ibsurgeon/fts-udr-go/internal/indexwriter"
	"github.com/ibsurgeon/fts-udr-go/internal/keycodec"
	"github.com/ibsurgeon/fts-udr-go/internal/logging"
	"github.com/ibsurgeon/fts-udr-go/internal/relation"

	"github.com/ibsurgeon/fts-udr-go/pkg/config"
)

var log = logging.GetLogger("query")

// MaxTermOctets bounds every term ANALYZE emits, in UTF-8 octets.
const MaxTermOctets = 8191

// Hit is one search result row: the row identity in exactly one of the
// three key shapes, plus score and optional explanation.
type Hit struct {
	Relation  string
	KeyField  string
	DBKey     []byte
	UUID      []byte
	ID        *int64
	Score     float64
	Explained string // empty unless explain was requested
}

// Executor runs searches for one invocation. It shares the caller's
// connection for catalog reads and opens index directories read-only so
// concurrent searches never contend with a writer's lock.
type Executor struct {
	db    *sql.DB
	repo  *catalog.Repository
	intro *relation.Introspector
	root  string
	src   analyzer.Source
}

// New builds an executor bound to the caller's connection and FTS root.
func New(db *sql.DB, repo *catalog.Repository, root string, src analyzer.Source) *Executor {
	return &Executor{
		db:    db,
		repo:  repo,
		intro: relation.New(db),
		root:  root,
		src:   src,
	}
}

// Search loads the named index, parses queryStr against its analyzed
// fields and streams up to limit hits. A limit of zero returns no rows
// and no error. Fails with *index-not-built* when the index has never
// been built or its directory is missing.
func (e *Executor) Search(ctx context.Context, indexName, queryStr string, limit int, explain bool) ([]Hit, error) {
	idx, err := e.repo.GetIndex(indexName, true)
	if err != nil {
		return nil, err
	}
	if idx.Status == catalog.StatusNew {
		return nil, ftserr.New(ftserr.IndexNotBuilt, "index %q has not been built", indexName)
	}
	path := config.IndexDirectory(e.root, indexName)
	if !indexwriter.DirectoryExists(path) {
		return nil, ftserr.New(ftserr.IndexNotBuilt, "index %q has no on-disk directory", indexName)
	}
	if limit <= 0 {
		return nil, nil
	}

	kind, keyField, err := extractor.ResolveKeyKind(e.intro, idx)
	if err != nil {
		return nil, err
	}

	b, err := bleve.OpenUsing(path, map[string]interface{}{"read_only": true})
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "opening index %q for search", indexName)
	}
	defer b.Close()

	q := buildQuery(idx, queryStr)
	req := bleve.NewSearchRequestOptions(q, limit, 0, explain)
	result, err := b.SearchInContext(ctx, req)
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "searching index %q", indexName)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, match := range result.Hits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hit := Hit{
			Relation: idx.Relation,
			KeyField: keyField.Name,
			Score:    match.Score,
		}
		raw, id, err := keycodec.Decode(kind, match.ID)
		if err != nil {
			return nil, err
		}
		switch kind {
		case keycodec.DBKey:
			hit.DBKey = raw
		case keycodec.UUID:
			hit.UUID = raw
		case keycodec.IntID:
			v := id
			hit.ID = &v
		}
		if explain && match.Expl != nil {
			rendered, err := json.Marshal(match.Expl)
			if err == nil {
				hit.Explained = string(rendered)
			}
		}
		hits = append(hits, hit)
	}
	log.Debug("search complete", "index", indexName, "hits", len(hits), "total", result.Total)
	return hits, nil
}

// buildQuery derives the query shape from the index's field list:
// a single analyzed field parses the full query-string
// syntax against that field (the mapping's default field). With multiple
// fields, queryStr is run as a match query against each field and the
// results are joined with OR, each disjunct carrying its segment's boost;
// query-string operators and field prefixes are not interpreted in this
// case.
func buildQuery(idx catalog.Index, queryStr string) bquery.Query {
	fieldSegs := idx.FieldSegments()
	if len(fieldSegs) <= 1 {
		return bleve.NewQueryStringQuery(queryStr)
	}
	disjuncts := make([]bquery.Query, 0, len(fieldSegs))
	for _, seg := range fieldSegs {
		mq := bleve.NewMatchQuery(queryStr)
		mq.SetField(seg.FieldName)
		if seg.Boost != nil {
			mq.SetBoost(*seg.Boost)
		}
		disjuncts = append(disjuncts, mq)
	}
	return bleve.NewDisjunctionQuery(disjuncts...)
}

// Analyze runs analyzerName's token stream over text and returns the
// terms. Fails with *term-too-long* when a term exceeds the
// 8191-octet bound.
func (e *Executor) Analyze(text, analyzerName string) ([]string, error) {
	return Analyze(text, analyzerName, e.src)
}

// Analyze is the standalone form used by the routine surface when no
// executor (and no open catalog connection) is needed for built-ins.
func Analyze(text, analyzerName string, src analyzer.Source) ([]string, error) {
	a, err := analyzer.New(analyzerName, src)
	if err != nil {
		return nil, err
	}
	stream := a.Analyze([]byte(text))
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) > MaxTermOctets {
			return nil, ftserr.New(ftserr.TermTooLong, "term of %d octets exceeds the %d-octet bound", len(tok.Term), MaxTermOctets)
		}
		terms = append(terms, string(tok.Term))
	}
	return terms, nil
}

// queryStringSpecials are the characters EscapeQuery prefixes with a
// backslash.
const queryStringSpecials = `+-!^"~*?:\&|()[]{}`

// EscapeQuery prefixes every query-syntax special in text with a
// backslash so the result parses as literal terms. A backslash already
// escaping a special is copied through untouched, which makes the
// function idempotent on fully escaped input.
func EscapeQuery(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\\' && i+1 < len(text) && strings.IndexByte(queryStringSpecials, text[i+1]) >= 0 {
			b.WriteByte(c)
			b.WriteByte(text[i+1])
			i++
			continue
		}
		if strings.IndexByte(queryStringSpecials, c) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}
