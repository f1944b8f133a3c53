package throttle

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	current time.Time
	slept   []time.Duration
}

func (c *fakeClock) now() time.Time { return c.current }

func (c *fakeClock) sleep(_ context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	c.current = c.current.Add(d)
	return nil
}

func newFake(interval time.Duration) (*Throttle, *fakeClock) {
	clock := &fakeClock{current: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return &Throttle{interval: interval, now: clock.now, sleep: clock.sleep}, clock
}

func TestDoSleepsOnlyTheRemainder(t *testing.T) {
	th, clock := newFake(time.Second)
	err := th.Do(context.Background(), func(context.Context) error {
		clock.current = clock.current.Add(300 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(clock.slept) != 1 || clock.slept[0] != 700*time.Millisecond {
		t.Fatalf("expected one 700ms sleep, got %v", clock.slept)
	}
}

func TestDoSkipsSleepWhenUnitOverruns(t *testing.T) {
	th, clock := newFake(time.Second)
	_ = th.Do(context.Background(), func(context.Context) error {
		clock.current = clock.current.Add(3 * time.Second)
		return nil
	})
	if len(clock.slept) != 0 {
		t.Fatalf("expected no sleep, got %v", clock.slept)
	}
}

func TestDoReturnsUnitError(t *testing.T) {
	th, clock := newFake(time.Second)
	boom := errors.New("boom")
	if err := th.Do(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(clock.slept) != 1 {
		t.Fatalf("expected failed units to be throttled too, got %v", clock.slept)
	}
}

func TestDoWithoutIntervalRunsImmediately(t *testing.T) {
	var th *Throttle
	calls := 0
	if err := th.Do(context.Background(), func(context.Context) error { calls++; return nil }); err != nil || calls != 1 {
		t.Fatalf("nil throttle: calls=%d err=%v", calls, err)
	}
	if New(0).Interval() != 0 {
		t.Fatal("expected zero interval")
	}
}

func TestDoStopsWaitingOnCancel(t *testing.T) {
	th := New(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	err := th.Do(ctx, func(context.Context) error {
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("cancelled wait did not return promptly")
	}
}

func TestReserveHandsOutSpacedSlots(t *testing.T) {
	th, clock := newFake(time.Second)
	first := th.reserve()
	second := th.reserve()
	if !first.Equal(clock.current) || second.Sub(first) != time.Second {
		t.Fatalf("expected slots one interval apart, got %v and %v", first, second)
	}
	clock.current = clock.current.Add(5 * time.Second)
	if third := th.reserve(); !third.Equal(clock.current) {
		t.Fatalf("expected an idle gate to open immediately, got %v", third)
	}
}

func TestDoSpacesConcurrentCallers(t *testing.T) {
	const interval = 40 * time.Millisecond
	th := New(interval)

	var (
		mu     sync.Mutex
		starts []time.Time
		wg     sync.WaitGroup
	)
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = th.Do(context.Background(), func(context.Context) error {
				mu.Lock()
				starts = append(starts, time.Now())
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	slices.SortFunc(starts, func(a, b time.Time) int { return a.Compare(b) })
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < interval-5*time.Millisecond {
			t.Fatalf("units %d and %d started %v apart, want at least %v", i-1, i, gap, interval)
		}
	}
}

func TestDoSkipsUnitWhenCancelledBeforeSlot(t *testing.T) {
	th := New(time.Hour)
	th.reserve()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := false
	err := th.Do(ctx, func(context.Context) error { ran = true; return nil })
	if !errors.Is(err, context.Canceled) || ran {
		t.Fatalf("expected cancelled wait without running the unit, got ran=%v err=%v", ran, err)
	}
}
