package workflow

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"gamewiki/internal/logging"
	"gamewiki/internal/queue"
	"gamewiki/internal/services"
	"gamewiki/internal/stage"
)

func (m *Manager) processTask(ctx context.Context, worker string, task *queue.Task) {
	m.setLastTask(task)

	reg, ok := m.handlerFor(task.Kind)
	if !ok {
		reason := fmt.Sprintf("no handler registered for task kind %q", task.Kind)
		if err := m.store.Skip(context.WithoutCancel(ctx), task.ID, reason); err != nil {
			m.logger.Error("failed to skip unhandled task", logging.Int64(logging.FieldTaskID, task.ID), logging.Error(err))
		}
		logging.WarnWithContext(m.logger, "skipping task without handler", "task_unhandled",
			logging.Int64(logging.FieldTaskID, task.ID),
			logging.String(logging.FieldTaskKind, string(task.Kind)),
			logging.String(logging.FieldErrorHint, "upgrade gamewiki or clear the queue"),
			logging.String(logging.FieldImpact, "task will not be processed"),
		)
		return
	}

	taskCtx := services.WithTaskID(ctx, task.ID)
	taskCtx = services.WithTaskKind(taskCtx, string(task.Kind))
	taskCtx = services.WithStage(taskCtx, reg.name)
	taskCtx = services.WithWorker(taskCtx, worker)
	taskCtx = services.WithRequestID(taskCtx, uuid.NewString())
	logger := logging.ForStage(logging.WithContext(taskCtx, m.logger), m.stageOverrides(), reg.name)

	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("attempt", task.Attempts),
	)

	// The throttle is shared by all workers. The trailing wait follows the
	// recorded outcome so a shutdown during the wait never re-runs finished
	// work; a shutdown before the slot opens hands the task back untouched.
	ran := false
	err := m.throttle.Do(taskCtx, func(ctx context.Context) error {
		ran = true
		started := time.Now()
		err := m.executeWithHeartbeat(ctx, reg.handler, task)
		m.recordOutcome(ctx, logger, reg.name, task, err, time.Since(started))
		return err
	})
	if !ran {
		m.recordOutcome(taskCtx, logger, reg.name, task, err, 0)
	}
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, task *queue.Task) error {
	stop := m.heartbeat.keepAlive(ctx, task.ID)
	defer stop()
	return runHandler(ctx, handler, task)
}

func runHandler(ctx context.Context, handler stage.Handler, task *queue.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: handler panic: %v\n%s", services.ErrTransient, r, debug.Stack())
		}
	}()
	if err := handler.Prepare(ctx, task); err != nil {
		return err
	}
	return handler.Execute(ctx, task)
}

func (m *Manager) recordOutcome(ctx context.Context, logger *slog.Logger, stageName string, task *queue.Task, execErr error, elapsed time.Duration) {
	persistCtx := context.WithoutCancel(ctx)

	if execErr == nil {
		if err := m.store.Complete(persistCtx, task.ID); err != nil {
			m.setLastError(err)
			logging.ErrorWithContext(logger, "failed to mark task completed", "queue_update_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
			return
		}
		logger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("stage_duration", elapsed),
		)
		return
	}

	if errors.Is(execErr, context.Canceled) && ctx.Err() != nil {
		if err := m.store.Release(persistCtx, task.ID, queue.DaemonStopReason); err != nil {
			logger.Error("failed to release interrupted task", logging.Error(err))
			return
		}
		logger.Info("stage interrupted; task returned to queue",
			logging.String(logging.FieldEventType, "stage_interrupted"),
		)
		return
	}

	m.handleStageFailure(persistCtx, logger, stageName, task, execErr, elapsed)
}

func (m *Manager) handleStageFailure(ctx context.Context, logger *slog.Logger, stageName string, task *queue.Task, stageErr error, elapsed time.Duration) {
	m.setLastError(stageErr)
	message := stageErr.Error()

	if services.FailureStatus(stageErr) == queue.StatusSkipped {
		if err := m.store.Skip(ctx, task.ID, message); err != nil {
			logger.Error("failed to mark task skipped", logging.Error(err))
			return
		}
		logging.WarnWithContext(logger, "stage skipped task", "stage_skipped",
			logging.Error(stageErr),
			logging.String(logging.FieldStage, stageName),
			logging.Duration("stage_duration", elapsed),
			logging.String(logging.FieldErrorHint, cmp.Or(services.Hint(stageErr), "the page cannot be processed as listed")),
			logging.String(logging.FieldImpact, "task will not be retried"),
		)
		return
	}

	status, err := m.store.Fail(ctx, task.ID, message, services.Retryable(stageErr), m.maxAttempts(), m.retryInterval)
	if err != nil {
		logger.Error("failed to record task failure", logging.Error(err))
		return
	}
	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.Error(stageErr),
		logging.String("resolved_status", string(status)),
		logging.Int("attempt", task.Attempts),
		logging.Int("max_attempts", m.maxAttempts()),
		logging.Duration("stage_duration", elapsed),
		logging.Alert("stage_failure"),
		logging.String(logging.FieldErrorHint, failureHint(status)),
	)
}

func failureHint(status queue.Status) string {
	if status == queue.StatusPending {
		return "task will be retried automatically"
	}
	return "run 'gamewiki queue retry' once the cause is fixed"
}
