// Package applier drains the change log and reconciles the on-disk
// indexes with it: load active indexes grouped by relation, walk the log
// in log_id order, dispatch each entry to every affected index, and
// delete the row once applied.
package applier

import (
	"context"
	"database/sql"

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

var log = logging.GetLogger("applier")

// Applier applies pending change-log entries to every active index. One
// Applier serves one invocation; it owns its writers for the duration of
// the run and closes them at the end.
type Applier struct {
	db    *sql.DB
	repo  *catalog.Repository
	intro *relation.Introspector
	root  string
	src   analyzer.Source

	// demote collects status demotions discovered while the drain
	// transaction is open; they are written after it ends so they stick
	// even when the drain rolls back.
	demote []string
}

// New builds an applier bound to the caller's connection and the resolved
// FTS directory root.
func New(db *sql.DB, repo *catalog.Repository, root string, src analyzer.Source) *Applier {
	return &Applier{
		db:    db,
		repo:  repo,
		intro: relation.New(db),
		root:  root,
		src:   src,
	}
}

// Result summarises one applier run.
type Result struct {
	EntriesApplied int
	EntriesDropped int
	IndexesTouched int
}

// target is one active index prepared for this run: its extractor and,
// once the first log entry for its relation arrives, its writer.
type target struct {
	idx     catalog.Index
	ext     *extractor.Extractor
	writer  *indexwriter.Writer
	skipped bool // missing directory; log rows for it stay queued
}

// Run drains the log once. The log read and the per-row deletes share
// one transaction, so the host's row locking hands each entry to exactly
// one concurrent applier; the transaction commits only after every
// writer has been flushed and closed, and a failed run rolls the deletes
// back for the next attempt. Cancellation is checked between cursor
// fetches; on cancel, open writers are closed without further writes and
// the cause propagates.
func (a *Applier) Run(ctx context.Context) (Result, error) {
	var res Result
	if err := ctx.Err(); err != nil {
		return res, err
	}

	byRelation, err := a.prepareTargets()
	if err != nil {
		return res, err
	}

	targets := make(map[string]*target)
	for _, ts := range byRelation {
		for _, t := range ts {
			targets[t.idx.Name] = t
		}
	}
	defer a.closeWriters(targets)
	defer a.applyDemotions()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return res, ftserr.Wrap(ftserr.IndexLibraryError, err, "starting change-log transaction")
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	cursor, err := a.repo.OpenLogCursorTx(tx)
	if err != nil {
		return res, err
	}
	defer cursor.Close()

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		entry, ok, err := cursor.Next()
		if err != nil {
			return res, err
		}
		if !ok {
			break
		}

		ts := byRelation[entry.Relation]
		if len(ts) == 0 {
			// Untracked relation: drop the entry silently.
			if err := a.repo.DeleteLogEntryTx(tx, entry.LogID); err != nil {
				return res, err
			}
			res.EntriesDropped++
			continue
		}

		keepEntry := false
		for _, t := range ts {
			applied, err := a.applyToIndex(t, entry)
			if err != nil {
				return res, err
			}
			if !applied && t.skipped {
				keepEntry = true
			}
		}
		if keepEntry {
			// A writer was skipped over a missing directory; the entry
			// stays queued for a later run.
			continue
		}
		if err := a.repo.DeleteLogEntryTx(tx, entry.LogID); err != nil {
			return res, err
		}
		res.EntriesApplied++
	}

	if err := cursor.Close(); err != nil {
		return res, err
	}

	for _, t := range targets {
		if t.writer != nil {
			res.IndexesTouched++
			if err := t.writer.Optimize(); err != nil {
				return res, err
			}
			if err := t.writer.Close(); err != nil {
				return res, err
			}
			t.writer = nil
		}
	}

	// Index writes are durable; only now do the log deletes become
	// visible. A crash before this point replays the entries, which the
	// writers absorb.
	if err := tx.Commit(); err != nil {
		return res, ftserr.Wrap(ftserr.IndexLibraryError, err, "committing change-log transaction")
	}
	committed = true

	log.Info("change log applied",
		"entries", res.EntriesApplied, "dropped", res.EntriesDropped, "indexes", res.IndexesTouched)
	return res, nil
}

// applyDemotions writes the status demotions recorded during the drain.
// They run after the drain transaction has ended so a rolled-back run
// still leaves the affected indexes marked for rebuild.
func (a *Applier) applyDemotions() {
	for _, name := range a.demote {
		if err := a.repo.SetStatus(name, catalog.StatusNeedsBuild); err != nil {
			log.Error("demoting index", "index", name, "error", err)
		}
	}
	a.demote = nil
}

// prepareTargets loads every active index grouped by relation and
// prepares an extractor for each. An index whose extractor cannot be
// prepared (a bound column no longer exists) is demoted to U and
// excluded from this run.
func (a *Applier) prepareTargets() (map[string][]*target, error) {
	indexes, err := a.repo.AllIndexes(true)
	if err != nil {
		return nil, err
	}

	byRelation := make(map[string][]*target)
	for _, idx := range indexes {
		if idx.Status != catalog.StatusComplete && idx.Status != catalog.StatusNeedsBuild {
			continue
		}
		ext, err := extractor.New(a.db, a.intro, idx)
		if err != nil {
			log.Warn("extractor preparation failed; demoting index",
				"index", idx.Name, "error", err)
			if serr := a.repo.SetStatus(idx.Name, catalog.StatusNeedsBuild); serr != nil {
				return nil, serr
			}
			continue
		}
		byRelation[idx.Relation] = append(byRelation[idx.Relation], &target{idx: idx, ext: ext})
	}
	return byRelation, nil
}

// applyToIndex dispatches one log entry to one index, resolving the
// writer on first use. Returns applied=false when the entry carries no
// key for the index's key kind or the writer was skipped.
func (a *Applier) applyToIndex(t *target, entry catalog.LogEntry) (bool, error) {
	if t.skipped {
		return false, nil
	}

	keyValue, keyTerm, ok, err := logKey(t.ext.KeyKind(), entry)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if t.writer == nil {
		w, err := a.resolveWriter(t)
		if err != nil {
			return false, err
		}
		if w == nil {
			return false, nil
		}
		t.writer = w
	}

	switch entry.Change {
	case catalog.ChangeInsert, catalog.ChangeUpdate:
		doc, found, err := t.ext.FetchByKey(keyValue)
		if err != nil {
			return false, err
		}
		if !found {
			// Row vanished (or holds no indexable text): treat I and U
			// alike as a delete so reapplied entries converge.
			return true, t.writer.Delete(keyTerm)
		}
		return true, t.writer.Update(keyTerm, doc)
	case catalog.ChangeDelete:
		return true, t.writer.Delete(keyTerm)
	default:
		return false, ftserr.New(ftserr.IndexLibraryError, "unknown change type %q in log entry %d", entry.Change, entry.LogID)
	}
}

// resolveWriter opens t's writer on first use: a missing directory on a
// complete index marks it for demotion to U and skips it for this run,
// leaving its log entries in place. The demotion itself is deferred past
// the drain transaction (see applyDemotions) so it is never rolled back
// with it.
func (a *Applier) resolveWriter(t *target) (*indexwriter.Writer, error) {
	path := config.IndexDirectory(a.root, t.idx.Name)
	if !indexwriter.DirectoryExists(path) {
		log.Warn("index directory missing; demoting index",
			"index", t.idx.Name, "path", path)
		if t.idx.Status == catalog.StatusComplete {
			a.demote = append(a.demote, t.idx.Name)
		}
		t.skipped = true
		return nil, nil
	}
	return indexwriter.Open(path, t.idx, a.src)
}

// logKey selects the log entry's key column for kind: the raw value the
// extractor queries with, and the encoded term the writer addresses
// documents by. ok=false when the column is null.
func logKey(kind keycodec.Kind, entry catalog.LogEntry) (keyValue interface{}, keyTerm string, ok bool, err error) {
	switch kind {
	case keycodec.DBKey:
		if len(entry.DBKey) == 0 {
			return nil, "", false, nil
		}
		rowID, err := keycodec.RowIDFromDBKey(entry.DBKey)
		if err != nil {
			return nil, "", false, err
		}
		term, err := keycodec.Encode(keycodec.DBKey, entry.DBKey)
		if err != nil {
			return nil, "", false, err
		}
		return rowID, term, true, nil
	case keycodec.UUID:
		if len(entry.RecUUID) == 0 {
			return nil, "", false, nil
		}
		term, err := keycodec.Encode(keycodec.UUID, entry.RecUUID)
		if err != nil {
			return nil, "", false, err
		}
		return entry.RecUUID, term, true, nil
	case keycodec.IntID:
		if entry.RecID == nil {
			return nil, "", false, nil
		}
		return *entry.RecID, keycodec.EncodeInt(*entry.RecID), true, nil
	default:
		return nil, "", false, ftserr.New(ftserr.MalformedKey, "unknown key kind %v", kind)
	}
}

// closeWriters releases any writer still open, used on early exit paths.
func (a *Applier) closeWriters(targets map[string]*target) {
	for _, t := range targets {
		if t.writer != nil {
			if err := t.writer.Close(); err != nil {
				log.Error("closing writer after abort", "index", t.idx.Name, "error", err)
			}
			t.writer = nil
		}
	}
}
