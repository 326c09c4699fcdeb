package task

import (
	"context"
	"errors"

	domain "github.com/example/todo-app/domain/task"
	"github.com/go-monolith/mono"
)

// createTask handles the create-task service request.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	return toTaskResponse(m.service.CreateTask(ctx, req.Input))
}

// getTask handles the get-task service request.
func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	return toTaskResponse(m.service.GetTask(ctx, req.TaskID))
}

// updateTask handles the update-task service request.
func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	return toTaskResponse(m.service.UpdateTask(ctx, req.TaskID, req.Input))
}

// toggleTask handles the toggle-task service request.
func (m *TaskModule) toggleTask(ctx context.Context, req ToggleTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	return toTaskResponse(m.service.ToggleTask(ctx, req.TaskID))
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.DeleteTask(ctx, req.TaskID); err != nil {
		return DeleteTaskResponse{}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (TaskList, error) {
	filter, err := domain.ParseFilter(req.Filter)
	if err != nil {
		return TaskList{}, err
	}
	sort, err := domain.ParseSort(req.Sort)
	if err != nil {
		return TaskList{}, err
	}

	list, err := m.service.ListTasks(ctx, filter, sort)
	if err != nil {
		return TaskList{}, err
	}
	return *list, nil
}

// toTaskResponse moves validation failures into the response body so the
// field errors survive the trip back to the caller.
func toTaskResponse(t *domain.Task, err error) (TaskResponse, error) {
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return TaskResponse{FieldErrors: verr.Errors}, nil
		}
		return TaskResponse{}, err
	}
	return TaskResponse{Task: t}, nil
}
