package web

import (
	"strings"
	"time"

	"github.com/example/todo-app/modules/activity"
	"github.com/example/todo-app/modules/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Tasks       task.TaskPort
	Activity    activity.ActivityPort
	Health      []HealthChecker
	Sessions    *session.Store
	Metrics     *Metrics
	Logger      types.Logger
	CORSOrigins string
	Now         func() time.Time
	// AccessLog disables the per-request log line when false.
	AccessLog bool
}

// NewApp builds the fiber application with middleware and routes.
func NewApp(deps Deps) *fiber.App {
	if deps.Sessions == nil {
		deps.Sessions = session.New()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	h := &Handlers{
		tasks:    deps.Tasks,
		activity: deps.Activity,
		checks:   deps.Health,
		sessions: deps.Sessions,
		logger:   deps.Logger,
		now:      deps.Now,
	}

	app := fiber.New(fiber.Config{
		AppName:               "To-Do",
		DisableStartupMessage: true,
		ErrorHandler:          h.errorHandler,
		Views:                 newViewEngine(),
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if deps.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	app.Use(helmet.New())
	app.Use(deps.Metrics.Middleware())

	origins := deps.CORSOrigins
	if strings.TrimSpace(origins) == "" {
		origins = "http://localhost:3000"
	}
	app.Use("/api", cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	registerRoutes(app, h, deps.Metrics)
	return app
}

// registerRoutes sets up all HTTP routes.
func registerRoutes(app *fiber.App, h *Handlers, metrics *Metrics) {
	app.Get("/health", h.health)
	app.Get("/metrics", metrics.Handler())

	app.Get("/", h.root)
	app.Get("/tasks", h.listTasks)

	app.Get("/tasks/new", h.newTaskForm)
	app.Post("/tasks/new", h.createTask)
	app.Get("/add", h.newTaskForm)
	app.Post("/add", h.createTask)

	app.Get("/tasks/:id", h.showTask)

	app.Get("/tasks/:id/edit", h.editTaskForm)
	app.Post("/tasks/:id/edit", h.updateTask)
	app.Get("/edit/:id", h.editTaskForm)
	app.Post("/edit/:id", h.updateTask)

	app.Post("/tasks/:id/toggle", h.toggleTask)
	app.Post("/toggle/:id", h.toggleTask)

	app.Post("/tasks/:id/delete", h.deleteTask)
	app.Post("/delete/:id", h.deleteTask)

	api := app.Group("/api")
	api.Get("/tasks", h.apiListTasks)
	api.Get("/tasks/:id", h.apiGetTask)
	api.Get("/activity", h.apiActivity)
}
