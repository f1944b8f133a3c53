package main

import (
	"errors"
	"fmt"
	"log/slog"

	"gamewiki/internal/catalog"
	"gamewiki/internal/config"
	"gamewiki/internal/enrich"
	"gamewiki/internal/mediawiki"
	"gamewiki/internal/pipeline"
	"gamewiki/internal/queue"
	"gamewiki/internal/workflow"
)

// runtime bundles the long-lived pieces a processing command needs.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	client    *mediawiki.Client
	queue     *queue.Store
	catalog   *catalog.Store
	scheduler *pipeline.Scheduler
	manager   *workflow.Manager
}

func openRuntime(cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	client, err := mediawiki.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("wiki client: %w", err)
	}
	queueStore, err := queue.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open queue: %w", err)
	}
	catalogStore, err := catalog.Open(cfg)
	if err != nil {
		_ = queueStore.Close()
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	rt := &runtime{
		cfg:       cfg,
		logger:    logger,
		client:    client,
		queue:     queueStore,
		catalog:   catalogStore,
		scheduler: pipeline.NewScheduler(queueStore),
	}
	rt.manager = workflow.NewManager(cfg, queueStore, logger)
	registerStages(rt)
	return rt, nil
}

func registerStages(rt *runtime) {
	resolver := enrich.NewResolver(rt.client, rt.logger, rt.cfg.Sync.FetchWikitext)
	rt.manager.Register(queue.KindListBatch, pipeline.ListingStageName,
		pipeline.NewListingStage(rt.client, rt.scheduler, rt.logger))
	rt.manager.Register(queue.KindPage, pipeline.PageStageName,
		pipeline.NewPageStage(resolver, rt.catalog, rt.logger))
}

func (rt *runtime) Close() error {
	return errors.Join(rt.catalog.Close(), rt.queue.Close())
}
