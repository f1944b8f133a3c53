// Package daemon coordinates the long-running gamewiki process.
//
// It wires configuration, queue storage, and the workflow manager into a single
// lifecycle with flock-based locking to prevent multiple instances. On start it
// returns tasks orphaned by a previous crash to the queue, prunes old logs, and
// reports preflight results before the workflow begins claiming work.
//
// Keep orchestration logic here: individual task handlers live in the pipeline
// package while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
