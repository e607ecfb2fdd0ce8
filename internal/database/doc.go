// Package database provides SQLite-based storage for floorscan.
//
// ExtractionDB keeps the history of extraction runs: one row per run with
// its counts and the full report as JSON, plus an index of the codes found
// on each page so that runs containing a code can be looked up.
//
// The driver is modernc.org/sqlite, a CGO-free SQLite, so the database is a
// single file in the XDG data directory.
package database
