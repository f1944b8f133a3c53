package pipeline

import (
	"context"
	"log/slog"
	"time"

	"gamewiki/internal/catalog"
	"gamewiki/internal/enrich"
	"gamewiki/internal/infobox"
	"gamewiki/internal/logging"
	"gamewiki/internal/queue"
	"gamewiki/internal/services"
	"gamewiki/internal/stage"
)

// PageStageName identifies the page handler in logs and health output.
const PageStageName = "page"

// Persister stores an enriched page.
type Persister interface {
	Persist(ctx context.Context, ref enrich.PageRef, fields enrich.Fields, links []infobox.Link) (catalog.Result, error)
	Ping(ctx context.Context) error
}

// PageResult is what processing one page produced.
type PageResult struct {
	Fields  enrich.Fields
	Outcome enrich.Outcome
	Stored  catalog.Result
}

// PageStage runs page enrichment tasks.
type PageStage struct {
	resolver  *enrich.Resolver
	persister Persister
	logger    *slog.Logger
}

// NewPageStage constructs the page handler.
func NewPageStage(resolver *enrich.Resolver, persister Persister, logger *slog.Logger) *PageStage {
	return &PageStage{
		resolver:  resolver,
		persister: persister,
		logger:    logging.NewComponentLogger(logger, PageStageName),
	}
}

// Prepare validates the page payload.
func (s *PageStage) Prepare(_ context.Context, task *queue.Task) error {
	var payload PagePayload
	return stage.DecodePayload(PageStageName, task, &payload)
}

// Execute enriches and persists one page.
func (s *PageStage) Execute(ctx context.Context, task *queue.Task) error {
	var payload PagePayload
	if err := stage.DecodePayload(PageStageName, task, &payload); err != nil {
		return err
	}
	_, err := s.Process(ctx, payload)
	return err
}

// Process resolves missing fields for the page and runs it through the
// completion gate. A page without a title or URL is a validation error; a
// gate miss is logged and is not an error.
func (s *PageStage) Process(ctx context.Context, payload PagePayload) (PageResult, error) {
	result := PageResult{Fields: payload.Fields}
	ref := payload.PageRef
	if !ref.Identifiable() {
		return result, services.Wrap(services.ErrValidation, PageStageName, "identify page",
			"Page has neither a title nor a canonical URL", nil)
	}
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldPage, ref.DisplayTitle()))

	start := time.Now()
	result.Outcome = s.resolver.Resolve(ctx, ref, &result.Fields)
	logger.Debug("page enriched",
		logging.String(logging.FieldEventType, "page_enriched"),
		logging.Bool("html_fetched", result.Outcome.HTMLFetched),
		logging.Bool("cargo_queried", result.Outcome.CargoQueried),
		logging.Any("filled", result.Outcome.Filled),
		logging.Duration("duration", time.Since(start)),
	)

	stored, err := s.persister.Persist(ctx, ref, result.Fields, result.Outcome.Links)
	result.Stored = stored
	if err != nil {
		return result, services.Wrap(services.ErrTransient, PageStageName, "persist game",
			"Catalog write failed; check the data directory", err)
	}
	if !stored.Pass {
		attrs := []logging.Attr{
			logging.String(logging.FieldEventType, "game_skipped"),
			logging.String("reason", stored.Reason),
			logging.Bool("has_release", stored.HasRelease),
			logging.Bool("has_companies", stored.HasCompanies),
		}
		if result.Outcome.Wikitext != "" {
			attrs = append(attrs, logging.Int("wikitext_bytes", len(result.Outcome.Wikitext)))
		}
		logger.Info("skipping game creation due to missing required fields", logging.Args(attrs...)...)
		return result, nil
	}
	logger.Info("game stored",
		logging.String(logging.FieldEventType, "game_stored"),
		logging.Int64("game_id", stored.GameID),
		logging.Bool("created", stored.Created),
		logging.Int("links", len(result.Outcome.Links)),
	)
	return result, nil
}

// HealthCheck reports whether the catalog is reachable.
func (s *PageStage) HealthCheck(ctx context.Context) stage.Health {
	if s.resolver == nil || s.persister == nil {
		return stage.Probe(PageStageName, stage.ErrNotConfigured)
	}
	return stage.Probe(PageStageName, s.persister.Ping(ctx))
}
