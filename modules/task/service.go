package task

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	domain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/sync/singleflight"
)

// ListCache is the subset of the cache module used for task listings.
type ListCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// Service validates input, applies it to the repository and keeps the list
// cache and event subscribers informed. It implements TaskPort in-process.
type Service struct {
	repo     *Repository
	cache    ListCache
	eventBus mono.EventBus
	logger   types.Logger
	sfGroup  singleflight.Group
	// listGen changes on every invalidation; a listing loaded under an
	// older generation is never written back to the cache.
	listGen atomic.Uint64
}

var _ TaskPort = (*Service)(nil)

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithCache enables cache-aside for task listings.
func WithCache(c ListCache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

// WithEventBus enables publishing of task events.
func WithEventBus(bus mono.EventBus) ServiceOption {
	return func(s *Service) { s.eventBus = bus }
}

// NewService creates a task service over repo.
func NewService(repo *Repository, logger types.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func cacheKeyList(filter domain.Filter, sort domain.Sort) string {
	return fmt.Sprintf("list:%s:%s", filter, sort)
}

// CreateTask validates in and stores a new task.
func (s *Service) CreateTask(ctx context.Context, in domain.Input) (*domain.Task, error) {
	fields, err := domain.Validate(in)
	if err != nil {
		return nil, err
	}

	t, err := s.repo.Create(ctx, fields)
	if err != nil {
		return nil, err
	}

	s.invalidateLists(ctx)
	s.publish("TaskCreated", t.ID, func() error {
		return events.TaskCreatedV1.Publish(s.eventBus, events.TaskCreatedEvent{
			TaskID:    t.ID,
			Title:     t.Title,
			DueDate:   t.DueDateString(),
			CreatedAt: t.CreatedAt,
		}, nil)
	})

	s.logger.Info("Task created", "task_id", t.ID)
	return t, nil
}

// GetTask returns a single task.
func (s *Service) GetTask(ctx context.Context, id uint) (*domain.Task, error) {
	return s.repo.Get(ctx, id)
}

// UpdateTask validates in and replaces the task's editable fields.
func (s *Service) UpdateTask(ctx context.Context, id uint, in domain.Input) (*domain.Task, error) {
	// An unknown id is reported as not found even when the input is also invalid.
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}

	fields, err := domain.Validate(in)
	if err != nil {
		return nil, err
	}

	t, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.invalidateLists(ctx)
	s.publish("TaskUpdated", t.ID, func() error {
		return events.TaskUpdatedV1.Publish(s.eventBus, events.TaskUpdatedEvent{
			TaskID:    t.ID,
			Title:     t.Title,
			Completed: t.Completed,
			UpdatedAt: t.UpdatedAt,
		}, nil)
	})

	s.logger.Info("Task updated", "task_id", t.ID)
	return t, nil
}

// ToggleTask flips the completed flag.
func (s *Service) ToggleTask(ctx context.Context, id uint) (*domain.Task, error) {
	t, err := s.repo.Toggle(ctx, id)
	if err != nil {
		return nil, err
	}

	s.invalidateLists(ctx)
	s.publish("TaskToggled", t.ID, func() error {
		return events.TaskToggledV1.Publish(s.eventBus, events.TaskToggledEvent{
			TaskID:    t.ID,
			Title:     t.Title,
			Completed: t.Completed,
			UpdatedAt: t.UpdatedAt,
		}, nil)
	})

	s.logger.Info("Task toggled", "task_id", t.ID, "completed", t.Completed)
	return t, nil
}

// DeleteTask permanently removes a task.
func (s *Service) DeleteTask(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateLists(ctx)
	s.publish("TaskDeleted", id, func() error {
		return events.TaskDeletedV1.Publish(s.eventBus, events.TaskDeletedEvent{
			TaskID:    id,
			DeletedAt: time.Now(),
		}, nil)
	})

	s.logger.Info("Task deleted", "task_id", id)
	return nil
}

// ListTasks returns the filtered, sorted listing with counters.
// Concurrent cache misses for the same listing share one database round trip.
func (s *Service) ListTasks(ctx context.Context, filter domain.Filter, sort domain.Sort) (*TaskList, error) {
	if !filter.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFilter, filter)
	}
	if !sort.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSort, sort)
	}

	key := cacheKeyList(filter, sort)
	gen := s.listGen.Load()

	if s.cache != nil {
		var cached TaskList
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("Cache read failed", "key", key, "error", err)
		}
		if found {
			return &cached, nil
		}
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		return s.loadList(ctx, filter, sort)
	})
	if err != nil {
		return nil, err
	}
	list := val.(*TaskList)

	if s.cache != nil && s.listGen.Load() == gen {
		if err := s.cache.Set(ctx, key, list); err != nil {
			s.logger.Warn("Cache write failed", "key", key, "error", err)
		}
		// A mutation may have invalidated between the check and the write.
		if s.listGen.Load() != gen {
			if err := s.cache.Delete(ctx, key); err != nil {
				s.logger.Warn("Failed to drop stale listing", "key", key, "error", err)
			}
		}
	}

	return list, nil
}

func (s *Service) loadList(ctx context.Context, filter domain.Filter, sort domain.Sort) (*TaskList, error) {
	tasks, err := s.repo.List(ctx, filter, sort)
	if err != nil {
		return nil, err
	}

	list := &TaskList{Tasks: tasks, Filter: filter, Sort: sort}
	if list.Total, err = s.repo.Count(ctx, domain.FilterAll); err != nil {
		return nil, err
	}
	if list.Pending, err = s.repo.Count(ctx, domain.FilterPending); err != nil {
		return nil, err
	}
	list.Completed = list.Total - list.Pending
	return list, nil
}

func (s *Service) invalidateLists(ctx context.Context) {
	// Loads already in flight must not be shared with later callers.
	for _, f := range domain.Filters {
		for _, srt := range domain.Sorts {
			s.sfGroup.Forget(cacheKeyList(f, srt))
		}
	}
	s.listGen.Add(1)

	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, "list:*"); err != nil {
		s.logger.Warn("Failed to invalidate task lists", "error", err)
	}
}

// publish is best-effort: a failed event never fails the operation.
func (s *Service) publish(name string, id uint, fn func() error) {
	if s.eventBus == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Warn("Failed to publish event", "event", name, "task_id", id, "error", err)
	}
}
