// Package activity keeps a bounded feed of recent task events.
package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/todo-app/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 100

// Entry is one recorded task event.
type Entry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TaskID    uint      `json:"task_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityPort exposes the feed to other modules.
type ActivityPort interface {
	Recent(limit int) []Entry
}

// Module subscribes to task events and records them, newest last, in a ring
// of fixed capacity.
type Module struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
	logger  types.Logger
	now     func() time.Time
}

var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ ActivityPort = (*Module)(nil)

// NewModule creates an activity module holding at most capacity entries.
func NewModule(capacity int, moduleLogger types.Logger) *Module {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Module{
		entries: make([]Entry, capacity),
		logger:  moduleLogger.WithModule("activity"),
		now:     time.Now,
	}
}

func (m *Module) Name() string {
	return "activity"
}

func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskToggledV1, m.handleTaskToggled, m); err != nil {
		return fmt.Errorf("failed to register TaskToggled consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", []string{"TaskCreated", "TaskUpdated", "TaskToggled", "TaskDeleted"})
	return nil
}

func (m *Module) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	msg := fmt.Sprintf("Task %q created", event.Title)
	if event.DueDate != "" {
		msg += " (due " + event.DueDate + ")"
	}
	m.record("task_created", event.TaskID, msg)
	return nil
}

func (m *Module) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.record("task_updated", event.TaskID, fmt.Sprintf("Task %q updated", event.Title))
	return nil
}

func (m *Module) handleTaskToggled(_ context.Context, event events.TaskToggledEvent, _ *mono.Msg) error {
	state := "reopened"
	if event.Completed {
		state = "completed"
	}
	m.record("task_toggled", event.TaskID, fmt.Sprintf("Task %q %s", event.Title, state))
	return nil
}

func (m *Module) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.record("task_deleted", event.TaskID, fmt.Sprintf("Task %d deleted", event.TaskID))
	return nil
}

func (m *Module) record(entryType string, taskID uint, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[m.next] = Entry{
		ID:        uuid.NewString(),
		Type:      entryType,
		TaskID:    taskID,
		Message:   message,
		Timestamp: m.now(),
	}
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything held.
func (m *Module) Recent(limit int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	size := m.next
	if m.full {
		size = len(m.entries)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	result := make([]Entry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.entries)) % len(m.entries)
		result = append(result, m.entries[idx])
	}
	return result
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Module started - listening for task events")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}
