package web

import (
	"embed"
	"net/http"
	"time"

	domain "github.com/example/todo-app/domain/task"
	"github.com/gofiber/template/html/v2"
)

//go:embed views
var viewsFS embed.FS

const (
	layoutMain   = "views/layouts/main"
	viewList     = "views/tasks/list"
	viewForm     = "views/tasks/form"
	viewShow     = "views/tasks/show"
	viewError    = "views/error"
	timestampFmt = "2006-01-02 15:04:05"
)

func newViewEngine() *html.Engine {
	return html.NewFileSystem(http.FS(viewsFS), ".html")
}

// taskView is a task prepared for display with its derived fields.
type taskView struct {
	ID          uint
	Title       string
	Description string
	Completed   bool
	DueDay      string
	Overdue     bool
	Created     string
	Updated     string
}

func newTaskView(t domain.Task, now time.Time) taskView {
	return taskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		DueDay:      t.DueDateString(),
		Overdue:     t.Overdue(now),
		Created:     t.CreatedAt.Format(timestampFmt),
		Updated:     t.UpdatedAt.Format(timestampFmt),
	}
}

type listPage struct {
	Title     string
	Flash     string
	Tasks     []taskView
	Filter    string
	Sort      string
	Filters   []domain.Filter
	Sorts     []domain.Sort
	Total     int64
	Pending   int64
	Completed int64
}

type formPage struct {
	Title   string
	Action  string
	Editing bool
	Input   domain.Input
	Errors  map[string]string
}

type showPage struct {
	Title string
	Task  taskView
}

type errorPage struct {
	Title   string
	Code    int
	Message string
}
