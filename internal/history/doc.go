// Package history persists a ledger of transcription runs in SQLite.
//
// Each pipeline run, successful or not, becomes one row keyed by its run ID.
// The ledger is advisory: callers log recording failures and carry on, so a
// corrupt or locked database never blocks a transcript from being written.
//
// The schema is versioned through a single schema_version row. When the
// version changes the database must be cleared; there are no incremental
// migrations.
package history
