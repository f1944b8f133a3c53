// Package throttle spaces units of work by a minimum wall-clock interval
// measured from the start of each unit. One Throttle is a shared gate: unit
// starts are spaced across every goroutine calling Do, not per caller.
package throttle

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum interval per unit of work. The zero value and a
// nil Throttle do not wait.
type Throttle struct {
	interval time.Duration
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error

	mu   sync.Mutex
	next time.Time
}

// New returns a Throttle with the given interval. Non-positive intervals disable waiting.
func New(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Interval returns the configured minimum interval.
func (t *Throttle) Interval() time.Duration {
	if t == nil {
		return 0
	}
	return t.interval
}

// Do waits for the next free slot, runs fn, then sleeps for whatever remains
// of the interval since fn started, no matter how many external calls fn made.
// Slots are handed out in call order, so concurrent callers start at least one
// interval apart. If ctx ends before the slot opens fn is not run and the
// context error is returned. The error from fn wins over a cancelled wait.
func (t *Throttle) Do(ctx context.Context, fn func(context.Context) error) error {
	if t == nil || t.interval <= 0 {
		return fn(ctx)
	}
	start := t.reserve()
	if delay := start.Sub(t.clock()); delay > 0 {
		if err := t.wait(ctx, delay); err != nil {
			return err
		}
	}
	err := fn(ctx)
	remaining := t.interval - t.clock().Sub(start)
	if remaining <= 0 {
		return err
	}
	if sleepErr := t.wait(ctx, remaining); sleepErr != nil && err == nil {
		return sleepErr
	}
	return err
}

// reserve claims the earliest slot not held by another unit.
func (t *Throttle) reserve() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	start := t.clock()
	if t.next.After(start) {
		start = t.next
	}
	t.next = start.Add(t.interval)
	return start
}

func (t *Throttle) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

func (t *Throttle) wait(ctx context.Context, d time.Duration) error {
	if t.sleep != nil {
		return t.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
