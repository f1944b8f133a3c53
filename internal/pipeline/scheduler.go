package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gamewiki/internal/enrich"
	"gamewiki/internal/listing"
	"gamewiki/internal/queue"
)

// PagePayload is the page task payload: the page reference plus any fields
// already known about it.
type PagePayload struct {
	enrich.PageRef
	Fields enrich.Fields `json:"fields"`
}

// Enqueuer is the subset of queue.Store the scheduler needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, kind queue.Kind, payload any, dedupeKey string) (int64, bool, error)
}

// Scheduler turns scheduled work into queue tasks. A page or batch that is
// already pending or processing is not queued twice.
type Scheduler struct {
	queue Enqueuer
}

// NewScheduler wraps a queue.
func NewScheduler(q Enqueuer) *Scheduler {
	return &Scheduler{queue: q}
}

// SchedulePage enqueues a page task.
func (s *Scheduler) SchedulePage(ctx context.Context, ref enrich.PageRef) error {
	return s.ScheduleEnrichment(ctx, PagePayload{PageRef: ref})
}

// ScheduleEnrichment enqueues a page task with pre-populated fields.
func (s *Scheduler) ScheduleEnrichment(ctx context.Context, payload PagePayload) error {
	if _, _, err := s.queue.Enqueue(ctx, queue.KindPage, payload, PageKey(payload.PageRef)); err != nil {
		return fmt.Errorf("enqueue page: %w", err)
	}
	return nil
}

// ScheduleListBatch enqueues a listing batch task.
func (s *Scheduler) ScheduleListBatch(ctx context.Context, req listing.BatchRequest) error {
	if _, _, err := s.queue.Enqueue(ctx, queue.KindListBatch, req, BatchKey(req)); err != nil {
		return fmt.Errorf("enqueue listing batch: %w", err)
	}
	return nil
}

// PageKey is the dedupe key for a page task.
func PageKey(ref enrich.PageRef) string {
	switch {
	case ref.PageID > 0:
		return "page:" + strconv.FormatInt(ref.PageID, 10)
	case ref.DisplayTitle() != "":
		return "page:" + ref.DisplayTitle()
	case strings.TrimSpace(ref.URL) != "":
		return "page:" + strings.TrimSpace(ref.URL)
	default:
		return ""
	}
}

// BatchKey is the dedupe key for a listing batch task.
func BatchKey(req listing.BatchRequest) string {
	token := strings.TrimSpace(req.Continue)
	if token == "" {
		token = "^"
	}
	return "list:" + strconv.Itoa(req.Namespace) + ":" + token
}
