// Package routines binds every FTS operation of the routine surface to
// plain Go methods. The REST bridge (internal/api) and the CLI
// (cmd/ftsudr) both call through this service; binding to a host
// database's external-routine ABI is left to that host's glue.
package routines

import (
	"database/sql"

	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
	"github.com/ibsurgeon/fts-udr-go/internal/logging"
	"github.com/ibsurgeon/fts-udr-go/internal/relation"
	"github.com/ibsurgeon/fts-udr-go/internal/stats"
)

var log = logging.GetLogger("routines")

// engineVersion is what LUCENE_VERSION() reports: the index engine this
// build links, in place of the original's Lucene library version.
const engineVersion = "bleve 2.4 (scorch/zap)"

// Service carries one invocation's handles: the caller's connection,
// its catalog repository (and with it that caller's prepared-statement
// cache), and the resolved FTS root.
// A Service must not be shared across concurrent invocations.
type Service struct {
	db    *sql.DB
	repo  *catalog.Repository
	intro *relation.Introspector
	stats *stats.Reader
	root  string
}

// NewService wraps an open host-DB connection and a resolved FTS
// directory root.
func NewService(db *sql.DB, root string) *Service {
	repo := catalog.New(db)
	return &Service{
		db:    db,
		repo:  repo,
		intro: relation.New(db),
		stats: stats.New(repo, root),
		root:  root,
	}
}

// InitSchema creates the catalog tables when absent.
func (s *Service) InitSchema() error {
	return s.repo.InitSchema()
}

// Close releases the repository's prepared statements.
func (s *Service) Close() error {
	return s.repo.Close()
}

// Repository exposes the catalog for read-mostly callers (the REST
// bridge's listing endpoints).
func (s *Service) Repository() *catalog.Repository {
	return s.repo
}

// GetDirectory reports the resolved FTS directory root.
func (s *Service) GetDirectory() string {
	return s.root
}

// LuceneVersion reports the index engine version string.
func (s *Service) LuceneVersion() string {
	return engineVersion
}

// requireArg guards required routine arguments.
func requireArg(name, value string) error {
	if value == "" {
		return ftserr.New(ftserr.ArgumentNull, "%s must not be null", name)
	}
	return nil
}
