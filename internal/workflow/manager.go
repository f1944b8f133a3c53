package workflow

import (
	"log/slog"
	"sync"
	"time"

	"gamewiki/internal/config"
	"gamewiki/internal/logging"
	"gamewiki/internal/queue"
	"gamewiki/internal/stage"
	"gamewiki/internal/throttle"
)

type registration struct {
	name    string
	handler stage.Handler
}

// Manager coordinates queue processing using registered task handlers.
type Manager struct {
	cfg           *config.Config
	store         *queue.Store
	logger        *slog.Logger
	pollInterval  time.Duration
	retryInterval time.Duration
	throttle      *throttle.Throttle
	heartbeat     *heartbeats

	handlers map[queue.Kind]registration
	order    []queue.Kind

	mu       sync.RWMutex
	running  bool
	cancel   func()
	done     chan struct{}
	lastErr  error
	lastTask *queue.Task
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	logger = logging.NewComponentLogger(logger, "workflow-manager")
	return &Manager{
		cfg:           cfg,
		store:         store,
		logger:        logger,
		pollInterval:  time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		throttle:      throttle.New(cfg.Throttle()),
		heartbeat: newHeartbeats(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		handlers: make(map[queue.Kind]registration),
	}
}

// Register binds a handler to a task kind.
func (m *Manager) Register(kind queue.Kind, name string, handler stage.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.handlers[kind]; !exists {
		m.order = append(m.order, kind)
	}
	m.handlers[kind] = registration{name: name, handler: handler}
}

func (m *Manager) handlerFor(kind queue.Kind) (registration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reg, ok := m.handlers[kind]
	return reg, ok && reg.handler != nil
}

func (m *Manager) workerCount() int {
	if m.cfg == nil || m.cfg.Workflow.Workers < 1 {
		return 1
	}
	return m.cfg.Workflow.Workers
}

func (m *Manager) maxAttempts() int {
	if m.cfg == nil || m.cfg.Workflow.MaxAttempts < 1 {
		return 1
	}
	return m.cfg.Workflow.MaxAttempts
}

func (m *Manager) stageOverrides() map[string]string {
	if m.cfg == nil {
		return nil
	}
	return m.cfg.Logging.StageOverrides
}
