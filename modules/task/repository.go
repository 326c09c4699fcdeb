package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/todo-app/domain/task"
	"gorm.io/gorm"
)

// Repository provides access to task storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a new task built from validated fields.
func (r *Repository) Create(ctx context.Context, f domain.Fields) (*domain.Task, error) {
	if strings.TrimSpace(f.Title) == "" {
		return nil, fmt.Errorf("%w: %s", ErrValidation, domain.MsgTitleRequired)
	}

	t := &domain.Task{}
	t.Apply(f)

	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, &StorageError{Op: "create", Err: err}
	}
	return t, nil
}

// Get retrieves a task by its ID.
func (r *Repository) Get(ctx context.Context, id uint) (*domain.Task, error) {
	var t domain.Task
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, wrapError("get", err)
	}
	return &t, nil
}

// Update replaces the editable fields of an existing task.
func (r *Repository) Update(ctx context.Context, id uint, f domain.Fields) (*domain.Task, error) {
	if strings.TrimSpace(f.Title) == "" {
		return nil, fmt.Errorf("%w: %s", ErrValidation, domain.MsgTitleRequired)
	}

	var t domain.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&t, id).Error; err != nil {
			return err
		}
		t.Apply(f)
		if err := tx.Save(&t).Error; err != nil {
			return err
		}
		return tx.First(&t, id).Error
	})
	if err != nil {
		return nil, wrapError("update", err)
	}
	return &t, nil
}

// Toggle flips the completed flag of a task.
func (r *Repository) Toggle(ctx context.Context, id uint) (*domain.Task, error) {
	var t domain.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&t, id).Error; err != nil {
			return err
		}
		t.Completed = !t.Completed
		if err := tx.Save(&t).Error; err != nil {
			return err
		}
		return tx.First(&t, id).Error
	})
	if err != nil {
		return nil, wrapError("toggle", err)
	}
	return &t, nil
}

// Delete permanently removes a task.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, id)
	if err := result.Error; err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the tasks selected by filter in the given order.
func (r *Repository) List(ctx context.Context, filter domain.Filter, sort domain.Sort) ([]domain.Task, error) {
	where, err := filterScope(filter)
	if err != nil {
		return nil, err
	}
	order, err := sortScope(sort)
	if err != nil {
		return nil, err
	}

	tasks := make([]domain.Task, 0)
	if err := r.db.WithContext(ctx).Scopes(where, order).Find(&tasks).Error; err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return tasks, nil
}

// Count returns how many tasks the filter selects.
func (r *Repository) Count(ctx context.Context, filter domain.Filter) (int64, error) {
	where, err := filterScope(filter)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.Task{}).Scopes(where).Count(&n).Error; err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return n, nil
}

func wrapError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return &StorageError{Op: op, Err: err}
}
