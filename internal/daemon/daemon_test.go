package daemon_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gamewiki/internal/daemon"
	"gamewiki/internal/logging"
	"gamewiki/internal/queue"
	"gamewiki/internal/stage"
	"gamewiki/internal/testsupport"
	"gamewiki/internal/workflow"
)

type noopStage struct{}

func (noopStage) Prepare(context.Context, *queue.Task) error { return nil }
func (noopStage) Execute(context.Context, *queue.Task) error { return nil }
func (noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Probe("noop", nil)
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenQueue(t, cfg)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.Register(queue.KindPage, "noop", noopStage{})
	d, err := daemon.New(cfg, store, logger, mgr, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running || status.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected status: %+v", status)
	}
	if running, err := daemon.IsRunning(cfg); err != nil || !running {
		t.Fatalf("IsRunning = %v, %v", running, err)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
	if running, err := daemon.IsRunning(cfg); err != nil || running {
		t.Fatalf("IsRunning after stop = %v, %v", running, err)
	}
}

func TestSecondDaemonIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logger := logging.NewNop()

	newDaemon := func() *daemon.Daemon {
		store := testsupport.MustOpenQueue(t, cfg)
		mgr := workflow.NewManager(cfg, store, logger)
		mgr.Register(queue.KindPage, "noop", noopStage{})
		d, err := daemon.New(cfg, store, logger, mgr, nil)
		if err != nil {
			t.Fatalf("daemon.New: %v", err)
		}
		t.Cleanup(d.Stop)
		return d
	}

	first := newDaemon()
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	second := newDaemon()
	if err := second.Start(context.Background()); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestStartResetsInterruptedTasks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenQueue(t, cfg)
	ctx := context.Background()
	id, _, err := store.Enqueue(ctx, queue.KindPage, map[string]string{"title": "A"}, "")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := store.Claim(ctx); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.Register(queue.KindPage, "noop", noopStage{})
	d, err := daemon.New(cfg, store, logger, mgr, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(10 * time.Second)
	for {
		task, err := store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if task.Status == queue.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("interrupted task was not reprocessed: %+v", task)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
