package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
)

// DaemonStopReason is the error message recorded when a task is interrupted by shutdown.
const DaemonStopReason = "daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusSkipped,
	StatusFailed,
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts a user supplied string into a Status.
func ParseStatus(value string) (Status, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, status := range allStatuses {
		if string(status) == value {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further processing happens for the status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusSkipped || s == StatusFailed
}

// Kind distinguishes the two units of work.
type Kind string

const (
	KindListBatch Kind = "list_batch"
	KindPage      Kind = "page"
)

// Task is one queued unit of work.
type Task struct {
	ID            int64
	Kind          Kind
	Payload       json.RawMessage
	Status        Status
	Attempts      int
	ErrorMessage  string
	DedupeKey     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	StartedAt     *time.Time
	FinishedAt    *time.Time
	LastHeartbeat *time.Time
	NotBefore     *time.Time
}

// Decode unmarshals the task payload into v.
func (t *Task) Decode(v any) error {
	if t == nil {
		return errors.New("task is nil")
	}
	if len(t.Payload) == 0 {
		return fmt.Errorf("task %d has no payload", t.ID)
	}
	if err := json.Unmarshal(t.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload for task %d: %w", t.Kind, t.ID, err)
	}
	return nil
}

// HealthSummary aggregates queue counts for diagnostics.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Skipped    int
	Failed     int
}

// Active is the number of tasks that still need a worker.
func (h HealthSummary) Active() int {
	return h.Pending + h.Processing
}
