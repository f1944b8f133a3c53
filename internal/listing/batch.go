package listing

import (
	"context"
	"fmt"
	"log/slog"

	"gamewiki/internal/enrich"
	"gamewiki/internal/logging"
)

// BatchRequest is the listing unit of work payload.
type BatchRequest struct {
	Limit     int    `json:"limit"`
	Continue  string `json:"continue,omitempty"`
	Namespace int    `json:"namespace"`
}

// Scheduler receives the work a listing batch produces.
type Scheduler interface {
	SchedulePage(ctx context.Context, ref enrich.PageRef) error
	ScheduleListBatch(ctx context.Context, req BatchRequest) error
}

// BatchResult summarizes one listing batch.
type BatchResult struct {
	Listed    int
	Scheduled int
	Next      string
	Exhausted bool
}

// RunBatch fetches one batch, schedules a page task per entry, and schedules
// the following batch when a continuation token came back.
func RunBatch(ctx context.Context, lister Lister, scheduler Scheduler, req BatchRequest, logger *slog.Logger) (BatchResult, error) {
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "listing"))
	enumerator := NewEnumerator(lister, req.Limit, req.Namespace, req.Continue)

	refs, err := enumerator.Next(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "listing batch failed",
			"listing_failed",
			logging.String("continue", req.Continue),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check wiki availability; the batch is retried from the same token"),
			logging.String(logging.FieldImpact, "no pages scheduled from this batch"),
		)
		return BatchResult{}, err
	}

	result := BatchResult{Listed: len(refs), Exhausted: enumerator.Exhausted()}
	if len(refs) == 0 {
		logger.Info("no more records",
			logging.String(logging.FieldEventType, "listing_exhausted"),
			logging.String("continue", req.Continue),
		)
		return result, nil
	}

	for _, ref := range refs {
		if err := scheduler.SchedulePage(ctx, ref); err != nil {
			return result, fmt.Errorf("schedule page %q: %w", ref.Title, err)
		}
		result.Scheduled++
	}
	if !enumerator.Exhausted() {
		result.Next = enumerator.Token()
		next := BatchRequest{Limit: enumerator.Limit(), Continue: result.Next, Namespace: req.Namespace}
		if err := scheduler.ScheduleListBatch(ctx, next); err != nil {
			return result, fmt.Errorf("schedule next batch %q: %w", result.Next, err)
		}
	}

	logger.Info("listing batch scheduled",
		logging.String(logging.FieldEventType, "listing_batch"),
		logging.Int("pages", result.Scheduled),
		logging.String("next", result.Next),
		logging.Bool("exhausted", result.Exhausted),
	)
	return result, nil
}
