package workflow

import (
	"context"

	"gamewiki/internal/queue"
	"gamewiki/internal/stage"
)

// StatusSummary exposes read-only workflow state for status commands.
type StatusSummary struct {
	Running     bool
	LastError   string
	LastTask    *queue.Task
	QueueStats  map[queue.Status]int
	StageHealth []stage.Health
}

// Status returns the current workflow status, including queue counts and stage health.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastTask != nil {
		last := *m.lastTask
		summary.LastTask = &last
	}
	regs := make([]registration, 0, len(m.order))
	for _, kind := range m.order {
		regs = append(regs, m.handlers[kind])
	}
	m.mu.RUnlock()

	if stats, err := m.store.Stats(ctx); err == nil {
		summary.QueueStats = stats
	}
	for _, reg := range regs {
		if reg.handler == nil {
			continue
		}
		health := reg.handler.HealthCheck(ctx)
		if health.Name == "" {
			health.Name = reg.name
		}
		summary.StageHealth = append(summary.StageHealth, health)
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastTask(task *queue.Task) {
	m.mu.Lock()
	m.lastTask = task
	m.mu.Unlock()
}
