package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gamewiki/internal/sqlitex"
)

// Complete marks a processing task as done.
func (s *Store) Complete(ctx context.Context, id int64) error {
	return s.finish(ctx, id, StatusCompleted, "")
}

// Skip marks a processing task as skipped with the given reason.
func (s *Store) Skip(ctx context.Context, id int64, reason string) error {
	return s.finish(ctx, id, StatusSkipped, reason)
}

func (s *Store) finish(ctx context.Context, id int64, status Status, message string) error {
	now := sqlitex.Now()
	if _, err := sqlitex.Exec(ctx, s.db,
		`UPDATE tasks
        SET status = ?, error_message = ?, finished_at = ?, last_heartbeat = NULL, updated_at = ?
        WHERE id = ?`,
		status, sqlitex.NullableString(message), now, now, id,
	); err != nil {
		return fmt.Errorf("mark task %d %s: %w", id, status, err)
	}
	return nil
}

// Fail records a failed attempt. When retry is set and the task has attempts
// left it returns to pending and becomes runnable after delay; otherwise it
// ends in StatusFailed. The resulting status is returned.
func (s *Store) Fail(ctx context.Context, id int64, message string, retry bool, maxAttempts int, delay time.Duration) (Status, error) {
	now := time.Now()
	requeue := 0
	if retry {
		requeue = 1
	}
	var status Status
	err := sqlitex.RetryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`UPDATE tasks
            SET status = CASE WHEN ? = 1 AND attempts < ? THEN ? ELSE ? END,
                not_before = CASE WHEN ? = 1 AND attempts < ? THEN ? ELSE NULL END,
                finished_at = CASE WHEN ? = 1 AND attempts < ? THEN NULL ELSE ? END,
                error_message = ?, last_heartbeat = NULL, updated_at = ?
            WHERE id = ?
            RETURNING status`,
			requeue, maxAttempts, StatusPending, StatusFailed,
			requeue, maxAttempts, timestamp(now.Add(delay)),
			requeue, maxAttempts, timestamp(now),
			sqlitex.NullableString(message), timestamp(now),
			id,
		).Scan(&status)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("fail task %d: not found", id)
	}
	if err != nil {
		return "", fmt.Errorf("fail task %d: %w", id, err)
	}
	return status, nil
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight task.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := sqlitex.Now()
	if _, err := sqlitex.Exec(ctx, s.db,
		`UPDATE tasks SET last_heartbeat = ?, updated_at = ? WHERE id = ? AND status = ?`,
		now, now, id, StatusProcessing,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleProcessing returns processing tasks whose heartbeat is older
// than cutoff to pending.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := sqlitex.Exec(ctx, s.db,
		`UPDATE tasks
        SET status = ?, last_heartbeat = NULL, error_message = 'reclaimed from stale processing', updated_at = ?
        WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		StatusPending, sqlitex.Now(), StatusProcessing, timestamp(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale tasks: %w", err)
	}
	return res.RowsAffected()
}

// ResetStuckProcessing returns every processing task to pending. The daemon
// calls it on startup, before any worker runs.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := sqlitex.Exec(ctx, s.db,
		`UPDATE tasks
        SET status = ?, last_heartbeat = NULL, error_message = 'reset from stuck processing', updated_at = ?
        WHERE status = ?`,
		StatusPending, sqlitex.Now(), StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck tasks: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed tasks back to pending with a fresh attempt budget.
// With no ids every failed task is retried. A failed task whose dedupe key is
// already held by a pending or processing task stays failed, and among failed
// tasks sharing a key only the newest is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE tasks
        SET status = ?, attempts = 0, error_message = NULL, finished_at = NULL, not_before = NULL, updated_at = ?
        WHERE status = ?
          AND (dedupe_key IS NULL OR (
            NOT EXISTS (
              SELECT 1 FROM tasks active
              WHERE active.dedupe_key = tasks.dedupe_key AND active.status IN (?, ?))
            AND id = (
              SELECT MAX(f.id) FROM tasks f
              WHERE f.dedupe_key = tasks.dedupe_key AND f.status = ?)))`
	args := []any{StatusPending, sqlitex.Now(), StatusFailed, StatusPending, StatusProcessing, StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + sqlitex.Placeholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := sqlitex.Exec(ctx, s.db, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed tasks: %w", err)
	}
	return res.RowsAffected()
}

// Release returns an interrupted processing task to pending without
// consuming an attempt.
func (s *Store) Release(ctx context.Context, id int64, reason string) error {
	if _, err := sqlitex.Exec(ctx, s.db,
		`UPDATE tasks
        SET status = ?, attempts = MAX(attempts - 1, 0), error_message = ?, last_heartbeat = NULL, updated_at = ?
        WHERE id = ? AND status = ?`,
		StatusPending, sqlitex.NullableString(reason), sqlitex.Now(), id, StatusProcessing,
	); err != nil {
		return fmt.Errorf("release task %d: %w", id, err)
	}
	return nil
}
