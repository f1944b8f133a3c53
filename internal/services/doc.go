// Package services defines shared utilities consumed by the pipeline stage
// handlers and the wiki integration.
//
// Key responsibilities:
//   - Context helpers that stamp task IDs, task kinds, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent task statuses (failed vs skipped).
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
