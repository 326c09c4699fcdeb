package web

import (
	"errors"
	"strconv"
	"strings"
	"time"

	domain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/modules/activity"
	"github.com/example/todo-app/modules/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/fiber/v2/utils"
)

const flashKey = "flash"

// Flash messages shown after a successful mutation.
const (
	FlashCreated  = "Task created"
	FlashUpdated  = "Task updated"
	FlashDeleted  = "Task deleted"
	FlashDone     = "Task marked as done"
	FlashReopened = "Task marked as pending"
)

// Handlers serves the HTML pages and the JSON API.
type Handlers struct {
	tasks    task.TaskPort
	activity activity.ActivityPort
	checks   []HealthChecker
	sessions *session.Store
	logger   types.Logger
	now      func() time.Time
}

// root handles GET /.
func (h *Handlers) root(c *fiber.Ctx) error {
	target := "/tasks"
	if q := string(c.Request().URI().QueryString()); q != "" {
		target += "?" + q
	}
	return c.Redirect(target, fiber.StatusFound)
}

// listTasks handles GET /tasks.
func (h *Handlers) listTasks(c *fiber.Ctx) error {
	list, err := h.queryTasks(c)
	if err != nil {
		return err
	}

	now := h.now()
	views := make([]taskView, 0, len(list.Tasks))
	for _, t := range list.Tasks {
		views = append(views, newTaskView(t, now))
	}

	flash, err := h.popFlash(c)
	if err != nil {
		h.logger.Warn("Failed to read flash message", "error", err)
	}

	return c.Render(viewList, listPage{
		Title:     "Tasks",
		Flash:     flash,
		Tasks:     views,
		Filter:    string(list.Filter),
		Sort:      string(list.Sort),
		Filters:   domain.Filters,
		Sorts:     domain.Sorts,
		Total:     list.Total,
		Pending:   list.Pending,
		Completed: list.Completed,
	}, layoutMain)
}

// newTaskForm handles GET /tasks/new.
func (h *Handlers) newTaskForm(c *fiber.Ctx) error {
	return h.renderForm(c, fiber.StatusOK, formPage{
		Title:  "New task",
		Action: c.Path(),
	})
}

// createTask handles POST /tasks/new.
func (h *Handlers) createTask(c *fiber.Ctx) error {
	in := formInput(c)

	t, err := h.tasks.CreateTask(c.UserContext(), in)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return h.renderForm(c, fiber.StatusUnprocessableEntity, formPage{
				Title:  "New task",
				Action: c.Path(),
				Input:  verr.Input,
				Errors: verr.Errors,
			})
		}
		return h.taskError(err)
	}

	h.logger.Debug("Task created via web", "task_id", t.ID)
	return h.redirectWithFlash(c, FlashCreated)
}

// showTask handles GET /tasks/:id.
func (h *Handlers) showTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	t, err := h.tasks.GetTask(c.UserContext(), id)
	if err != nil {
		return h.taskError(err)
	}

	return c.Render(viewShow, showPage{
		Title: t.Title,
		Task:  newTaskView(*t, h.now()),
	}, layoutMain)
}

// editTaskForm handles GET /tasks/:id/edit.
func (h *Handlers) editTaskForm(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	t, err := h.tasks.GetTask(c.UserContext(), id)
	if err != nil {
		return h.taskError(err)
	}

	return h.renderForm(c, fiber.StatusOK, formPage{
		Title:   "Edit task",
		Action:  c.Path(),
		Editing: true,
		Input:   domain.InputFromTask(*t),
	})
}

// updateTask handles POST /tasks/:id/edit.
func (h *Handlers) updateTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	in := formInput(c)
	in.Completed = formBool(c.FormValue("completed"))

	if _, err := h.tasks.UpdateTask(c.UserContext(), id, in); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return h.renderForm(c, fiber.StatusUnprocessableEntity, formPage{
				Title:   "Edit task",
				Action:  c.Path(),
				Editing: true,
				Input:   verr.Input,
				Errors:  verr.Errors,
			})
		}
		return h.taskError(err)
	}

	return h.redirectWithFlash(c, FlashUpdated)
}

// toggleTask handles POST /tasks/:id/toggle.
func (h *Handlers) toggleTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	t, err := h.tasks.ToggleTask(c.UserContext(), id)
	if err != nil {
		return h.taskError(err)
	}

	if t.Completed {
		return h.redirectWithFlash(c, FlashDone)
	}
	return h.redirectWithFlash(c, FlashReopened)
}

// deleteTask handles POST /tasks/:id/delete.
func (h *Handlers) deleteTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.tasks.DeleteTask(c.UserContext(), id); err != nil {
		return h.taskError(err)
	}

	return h.redirectWithFlash(c, FlashDeleted)
}

// apiListTasks handles GET /api/tasks.
func (h *Handlers) apiListTasks(c *fiber.Ctx) error {
	list, err := h.queryTasks(c)
	if err != nil {
		return err
	}

	out := make([]TaskJSON, 0, len(list.Tasks))
	for _, t := range list.Tasks {
		out = append(out, toTaskJSON(t))
	}
	return c.JSON(out)
}

// apiGetTask handles GET /api/tasks/:id.
func (h *Handlers) apiGetTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	t, err := h.tasks.GetTask(c.UserContext(), id)
	if err != nil {
		return h.taskError(err)
	}
	return c.JSON(toTaskJSON(*t))
}

// apiActivity handles GET /api/activity.
func (h *Handlers) apiActivity(c *fiber.Ctx) error {
	if h.activity == nil {
		return c.JSON([]activity.Entry{})
	}
	return c.JSON(h.activity.Recent(c.QueryInt("limit", 20)))
}

// health handles GET /health. Any unhealthy module turns the response
// into a 503.
func (h *Handlers) health(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status:  "healthy",
		Details: make(map[string]any, len(h.checks)),
	}

	for _, check := range h.checks {
		status := check.Health(c.UserContext())
		resp.Details[check.Name()] = ModuleHealth{
			Healthy: status.Healthy,
			Message: status.Message,
		}
		if !status.Healthy {
			resp.Status = "unhealthy"
		}
	}

	if resp.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

func (h *Handlers) queryTasks(c *fiber.Ctx) (*task.TaskList, error) {
	filter, err := domain.ParseFilter(c.Query("filter", c.Query("state")))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	sort, err := domain.ParseSort(c.Query("sort"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	list, err := h.tasks.ListTasks(c.UserContext(), filter, sort)
	if err != nil {
		return nil, h.taskError(err)
	}
	return list, nil
}

func (h *Handlers) renderForm(c *fiber.Ctx, status int, page formPage) error {
	return c.Status(status).Render(viewForm, page, layoutMain)
}

func (h *Handlers) redirectWithFlash(c *fiber.Ctx, msg string) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		h.logger.Warn("Failed to load session", "error", err)
	} else {
		sess.Set(flashKey, msg)
		if err := sess.Save(); err != nil {
			h.logger.Warn("Failed to save flash message", "error", err)
		}
	}
	return c.Redirect("/tasks", fiber.StatusSeeOther)
}

// popFlash returns the pending flash message, if any, and clears it.
func (h *Handlers) popFlash(c *fiber.Ctx) (string, error) {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return "", err
	}

	msg, _ := sess.Get(flashKey).(string)
	if msg == "" {
		return "", nil
	}
	sess.Delete(flashKey)
	return msg, sess.Save()
}

// taskError maps task module errors onto HTTP errors.
func (h *Handlers) taskError(err error) error {
	switch {
	case errors.Is(err, task.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Task not found")
	case errors.Is(err, domain.ErrUnknownFilter), errors.Is(err, domain.ErrUnknownSort):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}

// errorHandler renders HTML error pages, or JSON under /api.
func (h *Handlers) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Something went wrong on our side."

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		h.logger.Error("HTTP error", "code", code, "path", c.Path(), "error", err)
	}

	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(ErrorResponse{
			Error:   strings.ToLower(strings.ReplaceAll(utils.StatusMessage(code), " ", "_")),
			Message: message,
		})
	}

	if renderErr := c.Status(code).Render(viewError, errorPage{
		Title:   utils.StatusMessage(code),
		Code:    code,
		Message: message,
	}, layoutMain); renderErr != nil {
		h.logger.Error("Failed to render error page", "error", renderErr)
		return c.Status(code).SendString(message)
	}
	return nil
}

func taskID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusNotFound, "Task not found")
	}
	return uint(id), nil
}

func formInput(c *fiber.Ctx) domain.Input {
	return domain.Input{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		DueDate:     c.FormValue("due_date"),
	}
}

func formBool(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
