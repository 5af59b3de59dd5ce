// Package catalog owns all metadata access for the full-text engine:
// index, segment, analyzer and stop-word CRUD, plus the change-log table
// the applier drains. Every method runs through database/sql against the
// host database with a per-repository prepared-statement cache.
package catalog

import (
	"database/sql"
	"database/sql/driver"
	"sync"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
	"github.com/ibsurgeon/fts-udr-go/internal/logging"
)

var log = logging.GetLogger("catalog")

// Status is an index's lifecycle state.
type Status byte

const (
	StatusNew        Status = 'N'
	StatusInactive   Status = 'I'
	StatusNeedsBuild Status = 'U'
	StatusComplete   Status = 'C'
)

func (s Status) String() string {
	return string(s)
}

// Scan reads the single-character status column.
func (s *Status) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		if len(v) == 1 {
			*s = Status(v[0])
			return nil
		}
	case []byte:
		if len(v) == 1 {
			*s = Status(v[0])
			return nil
		}
	}
	return ftserr.New(ftserr.IndexLibraryError, "invalid index status value %v", src)
}

// Value writes the status as its single-character form.
func (s Status) Value() (driver.Value, error) {
	return string(s), nil
}

// Repository provides prepared-statement-cached access to the catalog
// tables. A Repository is bound to one connection and must not be shared
// across concurrent invocations; each caller obtains its own.
type Repository struct {
	db *sql.DB

	mu    sync.Mutex
	stmts map[string]*sql.Stmt
}

// New wraps an open host-DB connection with a catalog repository.
func New(db *sql.DB) *Repository {
	return &Repository{db: db, stmts: make(map[string]*sql.Stmt)}
}

// InitSchema creates the catalog tables if they do not already exist and
// verifies that a pre-existing change-log table has the expected column
// set. CREATE TABLE IF NOT EXISTS leaves an older FTS$LOG layout in
// place untouched, so the shape check is what turns that into a clean
// startup failure instead of a broken applier run later.
func (r *Repository) InitSchema() error {
	log.Debug("initializing catalog schema", "version", SchemaVersion)
	if _, err := r.db.Exec(Schema); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "initializing catalog schema")
	}
	return r.verifyLogShape()
}

// requiredLogColumns is the change-log column set the triggers write and
// the applier drains: one nullable column per key kind plus the ordering
// and change-type columns.
var requiredLogColumns = []string{
	"FTS$LOG_ID",
	"FTS$RELATION_NAME",
	"FTS$DB_KEY",
	"FTS$REC_UUID",
	"FTS$REC_ID",
	"FTS$CHANGE_TYPE",
}

// verifyLogShape rejects older FTS$LOG layouts (a single combined key
// column) with *no-config* rather than silently migrating them; the
// operator decides whether to drop or convert the old table.
func (r *Repository) verifyLogShape() error {
	rows, err := r.db.Query(`PRAGMA table_info("FTS$LOG")`)
	if err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "introspecting FTS$LOG")
	}
	defer rows.Close()

	have := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name       string
			declType   string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &defaultVal, &pk); err != nil {
			return ftserr.Wrap(ftserr.IndexLibraryError, err, "scanning table_info(FTS$LOG)")
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "reading table_info(FTS$LOG)")
	}

	for _, col := range requiredLogColumns {
		if !have[col] {
			return ftserr.New(ftserr.NoConfig,
				"change-log table FTS$LOG has an unsupported layout: column %s is missing; drop or migrate the old table before starting", col)
		}
	}
	return nil
}

// Close releases every cached prepared statement.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for key, stmt := range r.stmts {
		if err := stmt.Close(); err != nil && first == nil {
			first = err
		}
		delete(r.stmts, key)
	}
	return first
}

// prepare returns a cached prepared statement for query, preparing and
// caching it on first use; Close releases the whole cache.
func (r *Repository) prepare(query string) (*sql.Stmt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stmt, ok := r.stmts[query]; ok {
		return stmt, nil
	}
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "preparing statement")
	}
	r.stmts[query] = stmt
	return stmt, nil
}
