package queue

import (
	"context"
	"fmt"

	"gamewiki/internal/sqlitex"
)

// Stats returns a count of tasks grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(allStatuses))
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan queue stats: %w", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health folds Stats into a HealthSummary.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{
		Pending:    stats[StatusPending],
		Processing: stats[StatusProcessing],
		Completed:  stats[StatusCompleted],
		Skipped:    stats[StatusSkipped],
		Failed:     stats[StatusFailed],
	}
	for _, count := range stats {
		health.Total += count
	}
	return health, nil
}

// ClearFinished removes completed and skipped tasks.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	return s.deleteTasks(ctx, "clear finished tasks", `WHERE status IN (?, ?)`, StatusCompleted, StatusSkipped)
}

// ClearFailed removes failed tasks.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	return s.deleteTasks(ctx, "clear failed tasks", `WHERE status = ?`, StatusFailed)
}

// Clear removes every task, including ones a worker currently holds.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	return s.deleteTasks(ctx, "clear queue", "")
}

func (s *Store) deleteTasks(ctx context.Context, op, where string, args ...any) (int64, error) {
	res, err := sqlitex.Exec(ctx, s.db, `DELETE FROM tasks `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.RowsAffected()
}
