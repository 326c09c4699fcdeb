package task

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrValidation matches every *ValidationError through errors.Is.
var ErrValidation = errors.New("validation failed")

// MaxTitleLength is the title column size.
const MaxTitleLength = 100

// Field names used as keys in ValidationError.Errors.
const (
	FieldTitle   = "title"
	FieldDueDate = "due_date"
)

// Messages reported for invalid fields.
const (
	MsgTitleRequired  = "title required"
	MsgTitleTooLong   = "title too long"
	MsgInvalidDueDate = "invalid due date format"
)

// Input holds form values exactly as the user submitted them.
type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Completed   bool   `json:"completed"`
}

// InputFromTask builds the form values used to pre-fill an edit form.
func InputFromTask(t Task) Input {
	return Input{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDateString(),
		Completed:   t.Completed,
	}
}

// Fields are validated and normalized task values, safe to hand to the store.
type Fields struct {
	Title       string
	Description string
	DueDate     *time.Time
	Completed   bool
}

// ValidationError bundles every field error with the raw input so a form can be
// redisplayed without losing what the user typed.
type ValidationError struct {
	Errors map[string]string `json:"errors"`
	Input  Input             `json:"input"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Errors[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) true for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validate trims and checks raw input. All field errors are collected before returning.
func Validate(in Input) (Fields, error) {
	errs := make(map[string]string)

	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		errs[FieldTitle] = MsgTitleRequired
	case utf8.RuneCountInString(title) > MaxTitleLength:
		errs[FieldTitle] = MsgTitleTooLong
	}

	var due *time.Time
	if raw := strings.TrimSpace(in.DueDate); raw != "" {
		d, err := ParseDate(raw)
		if err != nil {
			errs[FieldDueDate] = MsgInvalidDueDate
		} else {
			due = &d
		}
	}

	if len(errs) > 0 {
		return Fields{}, &ValidationError{Errors: errs, Input: in}
	}

	return Fields{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		DueDate:     due,
		Completed:   in.Completed,
	}, nil
}
