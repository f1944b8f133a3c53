package listing

import (
	"context"
	"errors"
	"testing"

	"gamewiki/internal/enrich"
	"gamewiki/internal/logging"
	"gamewiki/internal/mediawiki"
)

type fakeLister struct {
	batches  map[string]mediawiki.PageList
	err      error
	requests []mediawiki.AllPagesRequest
}

func (f *fakeLister) AllPages(_ context.Context, req mediawiki.AllPagesRequest) (mediawiki.PageList, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return mediawiki.PageList{}, f.err
	}
	return f.batches[req.Continue], nil
}

func (f *fakeLister) PageURL(title string) string {
	return mediawiki.PageURL("https://wiki.test/wiki/", title)
}

type fakeScheduler struct {
	pages   []enrich.PageRef
	batches []BatchRequest
}

func (f *fakeScheduler) SchedulePage(_ context.Context, ref enrich.PageRef) error {
	f.pages = append(f.pages, ref)
	return nil
}

func (f *fakeScheduler) ScheduleListBatch(_ context.Context, req BatchRequest) error {
	f.batches = append(f.batches, req)
	return nil
}

func page(title string, id int64) mediawiki.Page {
	return mediawiki.Page{Title: title, PageID: id}
}

func TestEnumeratorFollowsTokensUntilExhausted(t *testing.T) {
	lister := &fakeLister{batches: map[string]mediawiki.PageList{
		"":      {Pages: []mediawiki.Page{page("Alpha", 1), page("Beta", 2)}, Continue: "Gamma"},
		"Gamma": {Pages: []mediawiki.Page{page("Gamma", 3)}},
	}}
	e := NewEnumerator(lister, 2, 0, "")

	first, err := e.Next(context.Background())
	if err != nil || len(first) != 2 {
		t.Fatalf("first batch = %v, %v", first, err)
	}
	if e.Exhausted() || e.Token() != "Gamma" {
		t.Fatalf("expected fetching with token Gamma, got %s %q", e.State(), e.Token())
	}
	if first[0].URL != "https://wiki.test/wiki/Alpha" || first[0].PageName != "Alpha" || first[0].PageID != 1 {
		t.Fatalf("unexpected ref %+v", first[0])
	}

	second, err := e.Next(context.Background())
	if err != nil || len(second) != 1 {
		t.Fatalf("second batch = %v, %v", second, err)
	}
	if !e.Exhausted() {
		t.Fatal("expected exhaustion after batch without token")
	}
	third, err := e.Next(context.Background())
	if err != nil || third != nil || len(lister.requests) != 2 {
		t.Fatalf("exhausted enumerator fetched again: %v %v (%d requests)", third, err, len(lister.requests))
	}
}

func TestEnumeratorClampsLimitAndKeepsTokenOnError(t *testing.T) {
	lister := &fakeLister{err: errors.New("503")}
	e := NewEnumerator(lister, 10000, 0, "Resume")
	if _, err := e.Next(context.Background()); err == nil {
		t.Fatal("expected listing error")
	}
	if e.Token() != "Resume" || e.Exhausted() {
		t.Fatalf("expected token kept after failure, got %q %s", e.Token(), e.State())
	}
	if lister.requests[0].Limit != mediawiki.MaxBatchLimit {
		t.Fatalf("limit not clamped: %d", lister.requests[0].Limit)
	}
	if NewEnumerator(lister, 0, 0, "").Limit() != 1 {
		t.Fatal("expected limit raised to 1")
	}
}

func TestRunBatchSchedulesPagesAndNextBatch(t *testing.T) {
	lister := &fakeLister{batches: map[string]mediawiki.PageList{
		"": {Pages: []mediawiki.Page{page("Alpha", 1), page("Beta", 2)}, Continue: "Gamma"},
	}}
	scheduler := &fakeScheduler{}
	result, err := RunBatch(context.Background(), lister, scheduler, BatchRequest{Limit: 2}, logging.NewNop())
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Scheduled != 2 || result.Next != "Gamma" || result.Exhausted {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(scheduler.pages) != 2 || scheduler.pages[1].Title != "Beta" {
		t.Fatalf("unexpected scheduled pages %+v", scheduler.pages)
	}
	if len(scheduler.batches) != 1 || scheduler.batches[0] != (BatchRequest{Limit: 2, Continue: "Gamma"}) {
		t.Fatalf("unexpected next batch %+v", scheduler.batches)
	}
}

func TestRunBatchLastBatchSchedulesNoContinuation(t *testing.T) {
	lister := &fakeLister{batches: map[string]mediawiki.PageList{
		"Omega": {Pages: []mediawiki.Page{page("Omega", 9)}},
	}}
	scheduler := &fakeScheduler{}
	result, err := RunBatch(context.Background(), lister, scheduler, BatchRequest{Limit: 50, Continue: "Omega"}, nil)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if !result.Exhausted || len(scheduler.pages) != 1 || len(scheduler.batches) != 0 {
		t.Fatalf("unexpected outcome %+v pages=%d batches=%d", result, len(scheduler.pages), len(scheduler.batches))
	}
}

func TestRunBatchZeroEntriesStops(t *testing.T) {
	lister := &fakeLister{batches: map[string]mediawiki.PageList{}}
	scheduler := &fakeScheduler{}
	result, err := RunBatch(context.Background(), lister, scheduler, BatchRequest{Limit: 50}, nil)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if !result.Exhausted || result.Listed != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(scheduler.pages) != 0 || len(scheduler.batches) != 0 {
		t.Fatalf("expected nothing scheduled, got pages=%d batches=%d", len(scheduler.pages), len(scheduler.batches))
	}
}

func TestRunBatchFailureSchedulesNothing(t *testing.T) {
	lister := &fakeLister{err: errors.New("timeout")}
	scheduler := &fakeScheduler{}
	if _, err := RunBatch(context.Background(), lister, scheduler, BatchRequest{Limit: 5}, nil); err == nil {
		t.Fatal("expected error")
	}
	if len(scheduler.pages) != 0 || len(scheduler.batches) != 0 {
		t.Fatal("failed batch must not schedule work")
	}
}
