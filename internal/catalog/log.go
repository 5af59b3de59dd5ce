package catalog

import (
	"database/sql"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// ChangeType is the kind of row mutation a log entry records.
type ChangeType byte

const (
	ChangeInsert ChangeType = 'I'
	ChangeUpdate ChangeType = 'U'
	ChangeDelete ChangeType = 'D'
)

// LogEntry is one row of FTS$LOG. Exactly one of DBKey, RecUUID, RecID
// is non-nil, matching whichever key kind the originating trigger was
// built for.
type LogEntry struct {
	LogID    int64
	Relation string
	DBKey    []byte
	RecUUID  []byte
	RecID    *int64
	Change   ChangeType
}

// AppendLog inserts a change-log row. The DDL generated by
// internal/trigger does not call it (it writes the log through its own
// SQL); this method exists so Go-side callers and tests can append rows
// without going through SQL text.
func (r *Repository) AppendLog(relation string, dbKey, recUUID []byte, recID *int64, change ChangeType) error {
	stmt, err := r.prepare(`
		INSERT INTO FTS$LOG (FTS$RELATION_NAME, FTS$DB_KEY, FTS$REC_UUID, FTS$REC_ID, FTS$CHANGE_TYPE)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	var recIDArg interface{}
	if recID != nil {
		recIDArg = *recID
	}
	if _, err := stmt.Exec(relation, dbKey, recUUID, recIDArg, string(change)); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "appending change-log row for %q", relation)
	}
	return nil
}

// LogCursor is a forward cursor over FTS$LOG ordered by log_id
// ascending.
type LogCursor struct {
	rows *sql.Rows
}

const logSelect = `
	SELECT FTS$LOG_ID, FTS$RELATION_NAME, FTS$DB_KEY, FTS$REC_UUID, FTS$REC_ID, FTS$CHANGE_TYPE
	FROM FTS$LOG ORDER BY FTS$LOG_ID ASC
`

// OpenLogCursor opens a forward cursor over the whole change log.
func (r *Repository) OpenLogCursor() (*LogCursor, error) {
	rows, err := r.db.Query(logSelect)
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "opening change-log cursor")
	}
	return &LogCursor{rows: rows}, nil
}

// OpenLogCursorTx opens the same cursor inside tx, so the applier's
// read-then-delete pass over the log shares one transaction and the
// host's row locking keeps concurrent appliers off each other's rows.
func (r *Repository) OpenLogCursorTx(tx *sql.Tx) (*LogCursor, error) {
	rows, err := tx.Query(logSelect)
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "opening change-log cursor")
	}
	return &LogCursor{rows: rows}, nil
}

// Next advances the cursor, returning false when exhausted.
func (c *LogCursor) Next() (LogEntry, bool, error) {
	if !c.rows.Next() {
		return LogEntry{}, false, c.rows.Err()
	}
	var (
		e       LogEntry
		dbKey   []byte
		recUUID []byte
		recID   sql.NullInt64
		change  string
	)
	if err := c.rows.Scan(&e.LogID, &e.Relation, &dbKey, &recUUID, &recID, &change); err != nil {
		return LogEntry{}, false, ftserr.Wrap(ftserr.IndexLibraryError, err, "scanning change-log row")
	}
	e.DBKey = dbKey
	e.RecUUID = recUUID
	if recID.Valid {
		v := recID.Int64
		e.RecID = &v
	}
	e.Change = ChangeType(change[0])
	return e, true, nil
}

// Close releases the cursor's underlying rows.
func (c *LogCursor) Close() error {
	return c.rows.Close()
}

// DeleteLogEntry removes one row by log_id.
func (r *Repository) DeleteLogEntry(logID int64) error {
	stmt, err := r.prepare(`DELETE FROM FTS$LOG WHERE FTS$LOG_ID = ?`)
	if err != nil {
		return err
	}
	if _, err := stmt.Exec(logID); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "deleting change-log row %d", logID)
	}
	return nil
}

// DeleteLogEntryTx removes one row by log_id within tx, pairing with
// OpenLogCursorTx so the delete commits (or rolls back) with the read.
func (r *Repository) DeleteLogEntryTx(tx *sql.Tx, logID int64) error {
	stmt, err := r.prepare(`DELETE FROM FTS$LOG WHERE FTS$LOG_ID = ?`)
	if err != nil {
		return err
	}
	if _, err := tx.Stmt(stmt).Exec(logID); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "deleting change-log row %d", logID)
	}
	return nil
}
