// Package queue persists units of work in SQLite and exposes helpers for
// driving their lifecycle.
//
// A task is either a listing batch (one allpages request) or a page
// enrichment. Tasks move pending → processing → completed, skipped or failed;
// failures below the attempt limit return to pending after a delay. The Store
// manages schema initialization, atomic claims, heartbeat tracking, stale-task
// recovery, and stats queries.
//
// The database is treated as transient storage for in-flight work rather than
// a long-term archive. Schema changes bump schemaVersion; users clear the
// database to adopt the new schema.
package queue
