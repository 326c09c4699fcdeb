package task

import "time"

// Task is the single persisted to-do item.
type Task struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string     `gorm:"size:100;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Completed   bool       `gorm:"not null;index" json:"completed"`
	DueDate     *time.Time `gorm:"type:date;index" json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the table name for Task model.
func (Task) TableName() string {
	return "tasks"
}

// Overdue reports whether the task's due day is strictly before the calendar day of now.
// Completed tasks and tasks without a due date are never overdue.
func (t Task) Overdue(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return CalendarDay(*t.DueDate).Before(Today(now))
}

// DueDateString returns the due date as YYYY-MM-DD, or "" when unset.
func (t Task) DueDateString() string {
	return FormatDate(t.DueDate)
}

// Apply copies validated fields onto the task.
func (t *Task) Apply(f Fields) {
	t.Title = f.Title
	t.Description = f.Description
	t.DueDate = f.DueDate
	t.Completed = f.Completed
}
