package catalog

// SchemaVersion is the current catalog schema version.
const SchemaVersion = 1

// Schema contains the complete catalog DDL. Column names are normative
// for wire compatibility with hand-authored triggers: callers that
// already have FTS$LOG_* triggers in place must find the same table and
// column names here.
const Schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- FTS$INDICES: one row per full-text index definition.
-- FTS$INDEX_STATUS: N=new/unbuilt, I=inactive, U=needs-rebuild, C=complete.
CREATE TABLE IF NOT EXISTS FTS$INDICES (
	FTS$INDEX_NAME    VARCHAR(63) NOT NULL PRIMARY KEY,
	FTS$RELATION_NAME VARCHAR(63) NOT NULL,
	FTS$ANALYZER      VARCHAR(63) NOT NULL DEFAULT 'standard',
	FTS$DESCRIPTION   BLOB,
	FTS$INDEX_STATUS  CHAR(1) NOT NULL DEFAULT 'N'
		CHECK (FTS$INDEX_STATUS IN ('N', 'I', 'U', 'C'))
);

CREATE INDEX IF NOT EXISTS idx_fts_indices_relation ON FTS$INDICES(FTS$RELATION_NAME);

-- FTS$INDEX_SEGMENTS: field bindings for an index. Exactly one row per
-- index has FTS$KEY = 1 (the row-identity segment).
CREATE TABLE IF NOT EXISTS FTS$INDEX_SEGMENTS (
	FTS$INDEX_NAME VARCHAR(63) NOT NULL REFERENCES FTS$INDICES(FTS$INDEX_NAME) ON DELETE CASCADE,
	FTS$FIELD_NAME VARCHAR(63) NOT NULL,
	FTS$KEY        BOOLEAN NOT NULL DEFAULT 0,
	FTS$BOOST      DOUBLE PRECISION,
	PRIMARY KEY (FTS$INDEX_NAME, FTS$FIELD_NAME)
);

-- FTS$ANALYZERS: user-defined analyzers layered on a built-in base.
CREATE TABLE IF NOT EXISTS FTS$ANALYZERS (
	FTS$ANALYZER_NAME VARCHAR(63) NOT NULL PRIMARY KEY,
	FTS$BASE_ANALYZER VARCHAR(63) NOT NULL,
	FTS$DESCRIPTION   BLOB
);

-- FTS$STOP_WORDS: unique per (analyzer, word); words are lowercased on insert.
CREATE TABLE IF NOT EXISTS FTS$STOP_WORDS (
	FTS$ANALYZER_NAME VARCHAR(63) NOT NULL REFERENCES FTS$ANALYZERS(FTS$ANALYZER_NAME) ON DELETE CASCADE,
	FTS$WORD          VARCHAR(63) NOT NULL,
	PRIMARY KEY (FTS$ANALYZER_NAME, FTS$WORD)
);

-- FTS$LOG: the change-log. Appended by FTS$LOG_* triggers (see internal/trigger),
-- consumed and deleted by the applier (internal/applier). Canonicalises on the
-- newer three-key-kind column shape; older shapes with a single combined key
-- column are rejected at startup rather than silently migrated.
CREATE TABLE IF NOT EXISTS FTS$LOG (
	FTS$LOG_ID        INTEGER PRIMARY KEY AUTOINCREMENT,
	FTS$RELATION_NAME VARCHAR(63) NOT NULL,
	FTS$DB_KEY        VARBINARY(8),
	FTS$REC_UUID      VARBINARY(16),
	FTS$REC_ID        BIGINT,
	FTS$CHANGE_TYPE   CHAR(1) NOT NULL CHECK (FTS$CHANGE_TYPE IN ('I', 'U', 'D'))
);

CREATE INDEX IF NOT EXISTS idx_fts_log_relation ON FTS$LOG(FTS$RELATION_NAME);
`
