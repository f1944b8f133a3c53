package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"gamewiki/internal/logging"
)

const maxClaimFailures = 3

// Start begins background processing and returns immediately.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.handlers) == 0 {
		m.mu.Unlock()
		return errors.New("workflow handlers not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.running = true
	m.mu.Unlock()

	go func() {
		defer close(done)
		if err := m.run(runCtx, false); err != nil {
			m.setLastError(err)
		}
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()
	return nil
}

// Stop terminates background processing and waits for in-flight tasks to settle.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run processes tasks until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	return m.run(ctx, false)
}

// Drain processes tasks until nothing is pending or processing, or ctx ends.
func (m *Manager) Drain(ctx context.Context) error {
	return m.run(ctx, true)
}

func (m *Manager) run(ctx context.Context, drain bool) error {
	m.mu.RLock()
	configured := len(m.handlers) > 0
	m.mu.RUnlock()
	if !configured {
		return errors.New("workflow handlers not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	reclaimDone := make(chan struct{})
	go func() {
		defer close(reclaimDone)
		m.reclaimLoop(runCtx)
	}()

	workers := m.workerCount()
	m.logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_start"),
		logging.Int("workers", workers),
		logging.Bool("drain", drain),
		logging.Duration("throttle", m.throttle.Interval()),
	)

	group, groupCtx := errgroup.WithContext(runCtx)
	for i := range workers {
		name := fmt.Sprintf("worker-%d", i+1)
		group.Go(func() error {
			return m.worker(groupCtx, name, drain)
		})
	}
	err := group.Wait()
	cancel()
	<-reclaimDone

	m.logger.Info("workflow stopped", logging.String(logging.FieldEventType, "workflow_stop"))
	if err != nil {
		return err
	}
	if drain && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// worker claims and runs tasks until ctx ends. It returns an error only when
// the queue stays unreadable for maxClaimFailures consecutive claims, which
// stops the other workers too.
func (m *Manager) worker(ctx context.Context, name string, drain bool) error {
	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		task, err := m.store.Claim(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			if failures >= maxClaimFailures {
				m.setLastError(err)
				return fmt.Errorf("%s: claim next task: %w", name, err)
			}
			m.handleClaimError(ctx, err)
			continue
		}
		failures = 0
		if task == nil {
			if drain && m.idle(ctx) {
				return nil
			}
			m.wait(ctx, m.pollInterval)
			continue
		}
		m.processTask(ctx, name, task)
	}
}

// idle reports whether the queue has nothing left to run.
func (m *Manager) idle(ctx context.Context) bool {
	health, err := m.store.Health(ctx)
	if err != nil {
		return false
	}
	return health.Active() == 0
}

func (m *Manager) reclaimLoop(ctx context.Context) {
	interval := m.heartbeat.interval
	if interval <= 0 {
		interval = m.pollInterval
	}
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.heartbeat.reclaimStale(ctx); err != nil && ctx.Err() == nil {
				m.logger.Warn("reclaim stale processing failed; stuck tasks may remain",
					logging.Error(err),
					logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
					logging.String(logging.FieldErrorHint, "check queue database access"),
				)
			}
		}
	}
}

func (m *Manager) handleClaimError(ctx context.Context, err error) {
	m.setLastError(err)
	m.logger.Error("failed to claim next task",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	m.wait(ctx, m.retryInterval)
}

func (m *Manager) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = time.Second
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
