// Package workflow runs queued tasks.
//
// The Manager fans out a fixed number of workers. Each worker claims the
// oldest runnable task, tags the context with task, stage, worker and
// correlation identifiers, runs the registered handler under the per-unit
// throttle while a heartbeat loop keeps the claim fresh, and records the
// outcome: completed, skipped for tasks that can never succeed, or failed with
// a delayed retry until the attempt budget is spent. A reclaim loop returns
// tasks whose heartbeats stopped to the queue.
//
// Run processes until the context ends; Drain stops once no task is pending
// or processing.
package workflow
