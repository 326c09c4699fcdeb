package task

import (
	"fmt"

	domain "github.com/example/todo-app/domain/task"
	"gorm.io/gorm"
)

type scope = func(*gorm.DB) *gorm.DB

// filterScope maps every Filter to its WHERE clause.
func filterScope(f domain.Filter) (scope, error) {
	switch f {
	case domain.FilterAll:
		return func(db *gorm.DB) *gorm.DB { return db }, nil
	case domain.FilterPending:
		return func(db *gorm.DB) *gorm.DB { return db.Where("completed = ?", false) }, nil
	case domain.FilterCompleted:
		return func(db *gorm.DB) *gorm.DB { return db.Where("completed = ?", true) }, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFilter, f)
}

// sortScope maps every Sort to its ORDER BY clauses. The id tie-break keeps
// listings stable across identical keys.
func sortScope(s domain.Sort) (scope, error) {
	switch s {
	case domain.SortCreated:
		return func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Order("id DESC")
		}, nil
	case domain.SortDueDate:
		return func(db *gorm.DB) *gorm.DB {
			return db.Order("due_date IS NULL").Order("due_date ASC").Order("id ASC")
		}, nil
	case domain.SortTitle:
		return func(db *gorm.DB) *gorm.DB {
			return db.Order("title ASC").Order("id ASC")
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSort, s)
}
