// Package pipeline holds the two task handlers the workflow manager runs:
// listing batches, which fan out page tasks through the queue, and page
// enrichment, which resolves missing fields and hands the result to the
// catalog. Scheduler adapts the queue to listing.Scheduler.
package pipeline
