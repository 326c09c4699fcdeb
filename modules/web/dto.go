package web

import (
	"context"

	domain "github.com/example/todo-app/domain/task"
	"github.com/go-monolith/mono"
)

// TaskJSON is the public JSON shape of a task.
type TaskJSON struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Completed   bool    `json:"completed"`
	DueDate     *string `json:"due_date"`
	CreatedAt   string  `json:"created_at"`
}

func toTaskJSON(t domain.Task) TaskJSON {
	out := TaskJSON{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.Format(timestampFmt),
	}
	if t.DueDate != nil {
		s := t.DueDateString()
		out.DueDate = &s
	}
	return out
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthChecker is a module whose health is reported by GET /health.
type HealthChecker interface {
	Name() string
	Health(ctx context.Context) mono.HealthStatus
}

// ModuleHealth is one module's entry in the health response.
type ModuleHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
