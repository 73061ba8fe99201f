package tasks

import (
	"sync"

	"go.uber.org/zap"
)

// Manager handles the execution of background tasks
type Manager struct {
	logger *zap.Logger
	mu     sync.Mutex
	tasks  []Task
}

// Task represents a long-running background task
type Task interface {
	Name() string
	Start()
	Stop()
}

// NewManager creates a new task manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger: logger,
		tasks:  make([]Task, 0),
	}
}

// RegisterTask registers a task with the manager
func (m *Manager) RegisterTask(task Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
}

// StartAll starts all registered tasks
func (m *Manager) StartAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, task := range m.tasks {
		task.Start()
		m.logger.Info("task started", zap.String("task", task.Name()))
	}
}

// StopAll stops all running tasks in reverse registration order
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.tasks) - 1; i >= 0; i-- {
		m.tasks[i].Stop()
		m.logger.Info("task stopped", zap.String("task", m.tasks[i].Name()))
	}
}
