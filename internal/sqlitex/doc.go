// Package sqlitex holds the SQLite plumbing shared by the catalog and queue
// stores: opening a database with WAL and busy-timeout pragmas on every pooled
// connection, retrying statements that hit SQLITE_BUSY, creating a versioned
// schema, and small scan helpers.
package sqlitex
