// Package journal persists a history of devbox runs in SQLite.
//
// Each setup or launch invocation becomes one row in runs, and every step it
// executes (or skips) becomes one row in steps. The journal is strictly
// observational: callers log and continue when a journal write fails.
//
// The schema is versioned through a schema_version table. A database created
// by a different schema version is rejected with ErrSchemaMismatch; delete
// the journal file to start over.
package journal
