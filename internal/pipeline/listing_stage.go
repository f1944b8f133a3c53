package pipeline

import (
	"context"
	"log/slog"

	"gamewiki/internal/listing"
	"gamewiki/internal/logging"
	"gamewiki/internal/queue"
	"gamewiki/internal/services"
	"gamewiki/internal/stage"
)

// ListingStageName identifies the listing handler in logs and health output.
const ListingStageName = "listing"

// Pinger is implemented by wiki clients that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ListingStage runs listing batch tasks.
type ListingStage struct {
	lister    listing.Lister
	scheduler listing.Scheduler
	logger    *slog.Logger
}

// NewListingStage constructs the listing handler.
func NewListingStage(lister listing.Lister, scheduler listing.Scheduler, logger *slog.Logger) *ListingStage {
	return &ListingStage{
		lister:    lister,
		scheduler: scheduler,
		logger:    logging.NewComponentLogger(logger, ListingStageName),
	}
}

// Prepare validates the batch payload.
func (s *ListingStage) Prepare(_ context.Context, task *queue.Task) error {
	var req listing.BatchRequest
	return stage.DecodePayload(ListingStageName, task, &req)
}

// Execute fetches one listing batch and schedules its pages.
func (s *ListingStage) Execute(ctx context.Context, task *queue.Task) error {
	var req listing.BatchRequest
	if err := stage.DecodePayload(ListingStageName, task, &req); err != nil {
		return err
	}
	if _, err := listing.RunBatch(ctx, s.lister, s.scheduler, req, s.logger); err != nil {
		return services.Wrap(services.ErrExternalTool, ListingStageName, "run batch",
			"Listing batch failed; it is retried from the same continuation token", err)
	}
	return nil
}

// HealthCheck pings the wiki when the lister supports it.
func (s *ListingStage) HealthCheck(ctx context.Context) stage.Health {
	return stage.Probe(ListingStageName, s.probe(ctx))
}

func (s *ListingStage) probe(ctx context.Context) error {
	if s.lister == nil || s.scheduler == nil {
		return stage.ErrNotConfigured
	}
	if pinger, ok := s.lister.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}
