// Package catalog is the normalized game store.
//
// Games, their companies (tagged developer or publisher), taxonomy entities
// (genres, platforms, modes, series, engines) and external links live in one
// SQLite database. Every write is an upsert keyed by the table's natural
// unique constraint, so replaying a page never duplicates rows. Persist runs
// the completion gate first: a game without a release date or without at
// least one company is never written.
//
// Schema changes bump schemaVersion; operators delete catalog.db to adopt a
// new schema.
package catalog
