package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamewiki/internal/config"
	"gamewiki/internal/sqlitex"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
// Users will need to clear their queue database after schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = sqlitex.ErrSchemaMismatch

// Store manages queue persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database in the data directory.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("queue: config is required")
	}
	path := cfg.QueuePath()
	db, err := sqlitex.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queue: %w", err)
	}
	store := &Store{db: db, path: path}
	if err := sqlitex.EnsureSchema(context.Background(), db, schemaSQL, schemaVersion,
		"run 'gamewiki queue clear --all' or delete the database"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("queue store unavailable")
	}
	return s.db.PingContext(ctx)
}

const taskColumns = `id, kind, payload_json, status, attempts, error_message, dedupe_key,
    created_at, updated_at, started_at, finished_at, last_heartbeat, not_before`

// Enqueue inserts a pending task. When dedupeKey matches a task that is still
// pending or processing nothing is inserted and created is false.
func (s *Store) Enqueue(ctx context.Context, kind Kind, payload any, dedupeKey string) (id int64, created bool, err error) {
	if kind != KindListBatch && kind != KindPage {
		return 0, false, fmt.Errorf("unknown task kind %q", kind)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, false, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	now := sqlitex.Now()
	res, err := sqlitex.Exec(ctx, s.db,
		`INSERT OR IGNORE INTO tasks (kind, payload_json, status, attempts, dedupe_key, created_at, updated_at)
        VALUES (?, ?, ?, 0, ?, ?, ?)`,
		kind, string(data), StatusPending, sqlitex.NullableString(strings.TrimSpace(dedupeKey)), now, now,
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert %s task: %w", kind, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("last insert id: %w", err)
	}
	return id, true, nil
}

// Claim atomically moves the oldest runnable pending task to processing and
// returns it. It returns nil when nothing is runnable.
func (s *Store) Claim(ctx context.Context) (*Task, error) {
	now := sqlitex.Now()
	var task *Task
	err := sqlitex.RetryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx,
			`UPDATE tasks
            SET status = ?, attempts = attempts + 1, started_at = ?, last_heartbeat = ?,
                finished_at = NULL, not_before = NULL, updated_at = ?
            WHERE id = (
                SELECT id FROM tasks
                WHERE status = ? AND (not_before IS NULL OR not_before <= ?)
                ORDER BY id
                LIMIT 1
            )
            RETURNING `+taskColumns,
			StatusProcessing, now, now, now,
			StatusPending, now,
		)
		claimed, err := scanTask(row)
		if errors.Is(err, sql.ErrNoRows) {
			task = nil
			return nil
		}
		if err != nil {
			return err
		}
		task = claimed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim task: %w", err)
	}
	return task, nil
}

// GetByID fetches a task by identifier, returning nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return task, nil
}

// List returns tasks, optionally filtered by status, newest first.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + sqlitex.Placeholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		task          Task
		payload       string
		errorMessage  sql.NullString
		dedupeKey     sql.NullString
		createdAt     string
		updatedAt     string
		startedAt     sql.NullString
		finishedAt    sql.NullString
		lastHeartbeat sql.NullString
		notBefore     sql.NullString
	)
	if err := scanner.Scan(
		&task.ID, &task.Kind, &payload, &task.Status, &task.Attempts, &errorMessage, &dedupeKey,
		&createdAt, &updatedAt, &startedAt, &finishedAt, &lastHeartbeat, &notBefore,
	); err != nil {
		return nil, err
	}
	task.Payload = json.RawMessage(payload)
	task.ErrorMessage = errorMessage.String
	task.DedupeKey = dedupeKey.String
	if t, err := sqlitex.ParseTime(createdAt); err == nil {
		task.CreatedAt = t
	}
	if t, err := sqlitex.ParseTime(updatedAt); err == nil {
		task.UpdatedAt = t
	}
	task.StartedAt = sqlitex.TimePtr(startedAt)
	task.FinishedAt = sqlitex.TimePtr(finishedAt)
	task.LastHeartbeat = sqlitex.TimePtr(lastHeartbeat)
	task.NotBefore = sqlitex.TimePtr(notBefore)
	return &task, nil
}

func timestamp(t time.Time) string {
	return sqlitex.Timestamp(t)
}
