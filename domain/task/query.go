package task

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFilter is returned for filter values outside all/pending/completed.
	ErrUnknownFilter = errors.New("unknown filter")
	// ErrUnknownSort is returned for sort values outside created/due_date/title.
	ErrUnknownSort = errors.New("unknown sort")
)

// Filter selects tasks by completion state.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterPending, FilterCompleted}

// DefaultFilter is used when no filter is given.
const DefaultFilter = FilterAll

// ParseFilter converts a query value into a Filter. Empty input yields DefaultFilter.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return DefaultFilter, nil
	}
	f := Filter(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
	}
	return f, nil
}

// Valid reports whether f is one of the known filters.
func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterPending, FilterCompleted:
		return true
	}
	return false
}

// Match reports whether t belongs to the subset selected by f.
func (f Filter) Match(t Task) bool {
	switch f {
	case FilterPending:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Sort orders a task listing.
type Sort string

const (
	SortCreated Sort = "created"
	SortDueDate Sort = "due_date"
	SortTitle   Sort = "title"
)

// Sorts lists every sort in display order.
var Sorts = []Sort{SortCreated, SortDueDate, SortTitle}

// DefaultSort is newest first.
const DefaultSort = SortCreated

// ParseSort converts a query value into a Sort. Empty input yields DefaultSort,
// and "date" is accepted as an alias of due_date.
func ParseSort(s string) (Sort, error) {
	switch s {
	case "":
		return DefaultSort, nil
	case "date":
		return SortDueDate, nil
	}
	o := Sort(s)
	if !o.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSort, s)
	}
	return o, nil
}

// Valid reports whether s is one of the known sorts.
func (s Sort) Valid() bool {
	switch s {
	case SortCreated, SortDueDate, SortTitle:
		return true
	}
	return false
}
