// Command gamewiki enriches a local game catalog from PCGamingWiki.
//
// The CLI queues listing batches (sync), runs the worker daemon (run), and
// offers inspection commands for single pages, the task queue, and stored
// games. Commands open the SQLite files directly; the daemon is only needed
// for long-running background processing.
package main
