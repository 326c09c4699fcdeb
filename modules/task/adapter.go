package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/todo-app/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter implements TaskPort by calling the task module's services
// through the service container.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// CreateTask creates a task via the create-task service.
func (a *taskAdapter) CreateTask(ctx context.Context, in domain.Input) (*domain.Task, error) {
	req := CreateTaskRequest{Input: in}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, mapServiceError("create-task", err)
	}
	return resp.result(in)
}

// GetTask retrieves a task via the get-task service.
func (a *taskAdapter) GetTask(ctx context.Context, id uint) (*domain.Task, error) {
	req := GetTaskRequest{TaskID: id}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, mapServiceError("get-task", err)
	}
	return resp.result(domain.Input{})
}

// UpdateTask edits a task via the update-task service.
func (a *taskAdapter) UpdateTask(ctx context.Context, id uint, in domain.Input) (*domain.Task, error) {
	req := UpdateTaskRequest{TaskID: id, Input: in}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, mapServiceError("update-task", err)
	}
	return resp.result(in)
}

// ToggleTask flips completion via the toggle-task service.
func (a *taskAdapter) ToggleTask(ctx context.Context, id uint) (*domain.Task, error) {
	req := ToggleTaskRequest{TaskID: id}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"toggle-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, mapServiceError("toggle-task", err)
	}
	return resp.result(domain.Input{})
}

// DeleteTask removes a task via the delete-task service.
func (a *taskAdapter) DeleteTask(ctx context.Context, id uint) error {
	req := DeleteTaskRequest{TaskID: id}
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return mapServiceError("delete-task", err)
	}
	if !resp.Deleted {
		return fmt.Errorf("task not deleted: %d", id)
	}
	return nil
}

// ListTasks lists tasks via the list-tasks service.
func (a *taskAdapter) ListTasks(ctx context.Context, filter domain.Filter, sort domain.Sort) (*TaskList, error) {
	req := ListTasksRequest{Filter: string(filter), Sort: string(sort)}
	var resp TaskList
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-tasks",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, mapServiceError("list-tasks", err)
	}
	return &resp, nil
}

// result turns a TaskResponse back into the values a local call would return.
func (r TaskResponse) result(in domain.Input) (*domain.Task, error) {
	if len(r.FieldErrors) > 0 {
		return nil, &domain.ValidationError{Errors: r.FieldErrors, Input: in}
	}
	if r.Task == nil {
		return nil, errors.New("empty task response")
	}
	return r.Task, nil
}

// mapServiceError converts service errors back to sentinel errors by checking
// the message, since error types do not survive the trip over NATS.
func mapServiceError(service string, err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, ErrNotFound.Error()):
		return ErrNotFound
	case strings.Contains(msg, domain.ErrUnknownFilter.Error()):
		return fmt.Errorf("%w: %s", domain.ErrUnknownFilter, err)
	case strings.Contains(msg, domain.ErrUnknownSort.Error()):
		return fmt.Errorf("%w: %s", domain.ErrUnknownSort, err)
	}
	return fmt.Errorf("%s service call failed: %w", service, err)
}
