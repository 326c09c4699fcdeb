package task

import (
	"context"

	domain "github.com/example/todo-app/domain/task"
)

// TaskList is a filtered, sorted listing plus per-state counters.
type TaskList struct {
	Tasks     []domain.Task `json:"tasks"`
	Filter    domain.Filter `json:"filter"`
	Sort      domain.Sort   `json:"sort"`
	Total     int64         `json:"total"`
	Pending   int64         `json:"pending"`
	Completed int64         `json:"completed"`
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	Input domain.Input `json:"input"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	TaskID uint `json:"task_id"`
}

// UpdateTaskRequest is the request for editing a task.
type UpdateTaskRequest struct {
	TaskID uint         `json:"task_id"`
	Input  domain.Input `json:"input"`
}

// ToggleTaskRequest is the request for flipping a task's completed flag.
type ToggleTaskRequest struct {
	TaskID uint `json:"task_id"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	TaskID uint `json:"task_id"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

// ListTasksRequest is the request for listing tasks.
type ListTasksRequest struct {
	Filter string `json:"filter,omitempty"`
	Sort   string `json:"sort,omitempty"`
}

// TaskResponse carries either the stored task or the field errors that
// prevented storing it.
type TaskResponse struct {
	Task        *domain.Task      `json:"task,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// TaskPort defines the task operations available to other modules.
// Implementations return *domain.ValidationError for rejected input and
// ErrNotFound for unknown ids.
type TaskPort interface {
	CreateTask(ctx context.Context, in domain.Input) (*domain.Task, error)
	GetTask(ctx context.Context, id uint) (*domain.Task, error)
	UpdateTask(ctx context.Context, id uint, in domain.Input) (*domain.Task, error)
	ToggleTask(ctx context.Context, id uint) (*domain.Task, error)
	DeleteTask(ctx context.Context, id uint) error
	ListTasks(ctx context.Context, filter domain.Filter, sort domain.Sort) (*TaskList, error)
}
