// ===============================
// FILE: internal/handlers/api/v1/scheduler/scheduler_controller.go
// ===============================

package scheduler

import (
	"net/http"
	"strconv"
	"time"

	"activityhub/internal/response"
	"activityhub/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SchedulerController exposes the task registry for operators: list
// what is registered, and trigger a run of the due tasks.
type SchedulerController struct {
	scheduler services.SchedulerService
	logger    *zap.Logger
	response  *response.Writer
}

// NewSchedulerController creates a new scheduler controller
func NewSchedulerController(scheduler services.SchedulerService, logger *zap.Logger, writer *response.Writer) *SchedulerController {
	return &SchedulerController{
		scheduler: scheduler,
		logger:    logger,
		response:  writer,
	}
}

// Routes mounts the controller's routes
func (c *SchedulerController) Routes(r chi.Router) {
	r.Get("/tasks", c.ListTasks)
	r.Post("/run", c.RunDue)
}

// ListTasks handles GET /api/v1/scheduler/tasks
func (c *SchedulerController) ListTasks(w http.ResponseWriter, r *http.Request) {
	c.response.Success(w, r, http.StatusOK, c.scheduler.ListTasks())
}

// RunDue handles POST /api/v1/scheduler/run
func (c *SchedulerController) RunDue(w http.ResponseWriter, r *http.Request) {
	maxTasks := 0
	if raw := r.URL.Query().Get("max_tasks"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.response.ValidationError(w, r, "invalid max_tasks", nil)
			return
		}
		maxTasks = parsed
	}

	reports := c.scheduler.RunDue(r.Context(), time.Now(), maxTasks)
	c.response.Success(w, r, http.StatusOK, reports)
}
