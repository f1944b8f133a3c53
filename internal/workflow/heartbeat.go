package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"gamewiki/internal/logging"
	"gamewiki/internal/queue"
)

// heartbeats keeps processing tasks alive in the queue and returns tasks whose
// worker went silent for longer than timeout.
type heartbeats struct {
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

func newHeartbeats(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration) *heartbeats {
	return &heartbeats{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "workflow-heartbeat"),
		interval: interval,
		timeout:  timeout,
	}
}

// keepAlive refreshes taskID's heartbeat every interval until the returned
// stop function is called. stop waits for the refresher to exit.
func (h *heartbeats) keepAlive(ctx context.Context, taskID int64) (stop func()) {
	if h.interval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger := logging.WithContext(ctx, h.logger)
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			err := h.store.UpdateHeartbeat(ctx, taskID)
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled):
				logger.Debug("heartbeat update cancelled")
			default:
				logger.Warn("heartbeat update failed", logging.Error(err))
			}
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

// reclaimStale requeues processing tasks whose heartbeat is older than timeout.
func (h *heartbeats) reclaimStale(ctx context.Context) error {
	if h.timeout <= 0 {
		return nil
	}
	reclaimed, err := h.store.ReclaimStaleProcessing(ctx, time.Now().Add(-h.timeout))
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		h.logger.Info("reclaimed stale tasks",
			logging.Int64("count", reclaimed),
			logging.String(logging.FieldEventType, "heartbeat_reclaim"),
		)
	}
	return nil
}
