package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nextrack/nextrack/internal/models"
	"github.com/nextrack/nextrack/internal/notify"
	"github.com/nextrack/nextrack/internal/task"
	"github.com/nextrack/nextrack/internal/user"
	"github.com/nextrack/nextrack/internal/workload"
)

// notifyTimeout bounds outbound chat deliveries fired from request handlers.
const notifyTimeout = 10 * time.Second

func (h *handlers) listTasks(c *gin.Context) {
	filters := task.ListFilters{
		Status:   c.Query("status"),
		TaskType: c.Query("type"),
	}
	if v, err := paramQueryUint(c, "project"); err == nil {
		filters.ProjectID = v
	}
	if v, err := paramQueryUint(c, "assignee"); err == nil {
		filters.AssigneeID = v
	}
	if v, err := paramQueryInt(c, "priority"); err == nil {
		filters.Priority = v
	}

	tasks, err := task.List(h.db, filters)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

type createTaskRequest struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	TaskType     string     `json:"task_type"`
	Priority     int        `json:"priority"`
	ProjectID    uint       `json:"project_id"`
	AssigneeID   uint       `json:"assignee_id"`
	PlannedHours float64    `json:"planned_hours"`
	DueDate      *time.Time `json:"due_date"`
}

func (opts createTaskRequest) toCreateOpts() task.CreateOpts {
	return task.CreateOpts{
		Name:         opts.Name,
		Description:  opts.Description,
		TaskType:     opts.TaskType,
		Priority:     opts.Priority,
		ProjectID:    opts.ProjectID,
		AssigneeID:   opts.AssigneeID,
		PlannedHours: opts.PlannedHours,
		DueDate:      opts.DueDate,
	}
}

func (h *handlers) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fieldError(c, "request", "invalid JSON body")
		return
	}

	t, eval, err := task.Create(h.db, req.toCreateOpts())
	if err != nil {
		svcError(c, "task", err)
		return
	}

	if eval != nil && eval.Level != workload.LevelNone {
		h.notifyWorkload(t, eval)
	}

	resp := gin.H{"task": t}
	if eval != nil {
		resp["evaluation"] = eval
	}
	c.JSON(http.StatusCreated, resp)
}

// validateWorkload runs the evaluator without creating anything, so the
// client can warn before the user commits the form.
func (h *handlers) validateWorkload(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fieldError(c, "request", "invalid JSON body")
		return
	}
	if req.DueDate == nil {
		fieldError(c, "due_date", "due date is required")
		return
	}

	eval, err := workload.Evaluate(h.db, workload.Input{
		AssigneeID:   req.AssigneeID,
		ProjectID:    req.ProjectID,
		PlannedHours: req.PlannedHours,
		DueDate:      *req.DueDate,
	})
	if err != nil {
		svcError(c, "workload", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evaluation": eval})
}

func (h *handlers) getTask(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	t, err := task.Get(h.db, id)
	if err != nil {
		svcError(c, "task", err)
		return
	}

	resp := gin.H{"task": t}
	if t.Status == task.StatusCompleted {
		resp["hours_variance"] = task.HoursVariance(t.ActualHours, t.PlannedHours)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) updateTask(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		fieldError(c, "request", "invalid JSON body")
		return
	}
	// JSON numbers arrive as float64; the range check expects int.
	if p, ok := updates["priority"].(float64); ok {
		updates["priority"] = int(p)
	}

	if err := task.Update(h.db, id, updates); err != nil {
		svcError(c, "task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) deleteTask(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := task.Delete(h.db, id); err != nil {
		svcError(c, "task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type transitionRequest struct {
	To                 string   `json:"to"`
	Reason             string   `json:"reason"`
	WaitingOn          *uint    `json:"waiting_on"`
	ActualHours        float64  `json:"actual_hours"`
	Comments           string   `json:"comments"`
	Links              []string `json:"links"`
	ProductivityRating int      `json:"productivity_rating"`
}

func (h *handlers) transitionTask(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fieldError(c, "request", "invalid JSON body")
		return
	}
	if req.To == "" {
		fieldError(c, "to", "target status is required")
		return
	}

	opts := task.TransitionOpts{To: req.To}
	if req.To == task.StatusBlocked {
		opts.Block = &task.BlockDetails{Reason: req.Reason, WaitingOn: req.WaitingOn}
	}
	if req.To == task.StatusCompleted {
		opts.Completion = &task.CompletionDetails{
			ActualHours:        req.ActualHours,
			Comments:           req.Comments,
			Links:              req.Links,
			ProductivityRating: req.ProductivityRating,
		}
	}

	changed, err := task.Transition(h.db, id, opts)
	if err != nil {
		svcError(c, "transition", err)
		return
	}

	t, err := task.Get(h.db, id)
	if err != nil {
		serverError(c, err)
		return
	}

	if changed && req.To == task.StatusBlocked {
		h.notifyBlocked(t, req.Reason)
	}

	c.JSON(http.StatusOK, gin.H{"task": t, "changed": changed})
}

func (h *handlers) notifyWorkload(t *models.Task, eval *workload.Evaluation) {
	if h.notifier == nil {
		return
	}
	name := h.assigneeName(t.AssigneeID)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := h.notifier.Send(ctx, notify.WorkloadEvent(t, name, eval)); err != nil {
			log.Printf("api: workload notification: %v", err)
		}
	}()
}

func (h *handlers) notifyBlocked(t *models.Task, reason string) {
	if h.notifier == nil {
		return
	}
	name := h.assigneeName(t.AssigneeID)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := h.notifier.Send(ctx, notify.BlockedEvent(t, name, reason)); err != nil {
			log.Printf("api: blocked notification: %v", err)
		}
	}()
}

func (h *handlers) assigneeName(id uint) string {
	u, err := user.Get(h.db, id)
	if err != nil {
		return ""
	}
	return u.Name
}
