// Package ledger records every split and expand invocation in SQLite.
//
// Each run stores its command, input paths, counters, final status, and the
// per-record diagnostics collected while it ran, so operators can review
// skipped or unmatched records after the fact with `echoprep runs`.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package ledger
