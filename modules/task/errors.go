package task

import (
	"errors"
	"fmt"

	domain "github.com/example/todo-app/domain/task"
)

var (
	// ErrNotFound is returned when no task has the requested id.
	ErrNotFound = errors.New("task not found")

	// ErrValidation matches any rejected task input.
	ErrValidation = domain.ErrValidation
)

// StorageError wraps a persistence failure. The surrounding transaction has
// already been rolled back when it is returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
