// Package task provides task lifecycle operations, including the gated
// Kanban status transitions.
package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nextrack/nextrack/internal/models"
	"github.com/nextrack/nextrack/internal/workload"
	"gorm.io/gorm"
)

// Task statuses, one per Kanban column.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusBlocked    = "blocked"
)

// Statuses lists all task statuses in Kanban column order.
var Statuses = []string{StatusTodo, StatusInProgress, StatusBlocked, StatusCompleted}

// CreateOpts holds parameters for creating a new task.
type CreateOpts struct {
	Name         string
	Description  string
	TaskType     string
	Priority     int // 1=most urgent .. 4
	ProjectID    uint
	AssigneeID   uint
	PlannedHours float64
	DueDate      *time.Time
}

// ListFilters holds optional filters for listing tasks.
type ListFilters struct {
	ProjectID  uint
	AssigneeID uint
	Status     string
	Priority   int
	TaskType   string
}

// Create validates the input, runs the workload evaluator, and persists the
// task with its workload snapshot. The evaluation is returned so the caller
// can decide whether to surface a confirmation (high/critical) or proceed.
func Create(db *gorm.DB, opts CreateOpts) (*models.Task, *workload.Evaluation, error) {
	if opts.Name == "" {
		return nil, nil, fmt.Errorf("task: name is required")
	}
	if opts.PlannedHours <= 0 {
		return nil, nil, fmt.Errorf("task: planned hours must be positive")
	}
	if opts.Priority == 0 {
		opts.Priority = 3
	}
	if opts.Priority < 1 || opts.Priority > 4 {
		return nil, nil, fmt.Errorf("task: priority must be between 1 and 4")
	}
	if opts.TaskType == "" {
		opts.TaskType = "feature"
	}

	var project models.Project
	if err := db.Where("id = ?", opts.ProjectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("task: project not found: %d", opts.ProjectID)
		}
		return nil, nil, fmt.Errorf("task: check project %d: %w", opts.ProjectID, err)
	}

	t := models.Task{
		Name:         opts.Name,
		Description:  opts.Description,
		Status:       StatusTodo,
		Priority:     opts.Priority,
		TaskType:     opts.TaskType,
		ProjectID:    opts.ProjectID,
		AssigneeID:   opts.AssigneeID,
		PlannedHours: opts.PlannedHours,
		DueDate:      opts.DueDate,
		WarningLevel: string(workload.LevelNone),
	}

	// Evaluate workload when a due date is given; without one there is no
	// target week to measure against. The evaluator also verifies the
	// assignee exists and is on the project.
	var eval *workload.Evaluation
	if opts.DueDate != nil {
		var err error
		eval, err = workload.Evaluate(db, workload.Input{
			AssigneeID:   opts.AssigneeID,
			ProjectID:    opts.ProjectID,
			PlannedHours: opts.PlannedHours,
			DueDate:      *opts.DueDate,
		})
		if err != nil {
			return nil, nil, err
		}
		warnings, jerr := json.Marshal(eval.Warnings)
		if jerr != nil {
			return nil, nil, fmt.Errorf("task: marshal warnings: %w", jerr)
		}
		t.WarningLevel = string(eval.Level)
		t.Warnings = string(warnings)
		t.UtilizationPct = eval.Snapshot.UtilizationPct
		t.AllocationUtilization = eval.Snapshot.AllocationUtilization
		t.AvailableHours = eval.Snapshot.AvailableHours
	} else if err := requireMember(db, opts.ProjectID, opts.AssigneeID); err != nil {
		return nil, nil, err
	}

	if err := db.Create(&t).Error; err != nil {
		return nil, nil, fmt.Errorf("task: create: %w", err)
	}
	return &t, eval, nil
}

// Get retrieves a task by ID with its project and assignee.
func Get(db *gorm.DB, id uint) (*models.Task, error) {
	var t models.Task
	if err := db.Preload("Project").Preload("Assignee").Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task: not found: %d", id)
		}
		return nil, fmt.Errorf("task: get %d: %w", id, err)
	}
	return &t, nil
}

// List returns tasks matching the given filters, most urgent first.
func List(db *gorm.DB, filters ListFilters) ([]models.Task, error) {
	q := db.Model(&models.Task{})

	if filters.ProjectID != 0 {
		q = q.Where("project_id = ?", filters.ProjectID)
	}
	if filters.AssigneeID != 0 {
		q = q.Where("assignee_id = ?", filters.AssigneeID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Priority != 0 {
		q = q.Where("priority = ?", filters.Priority)
	}
	if filters.TaskType != "" {
		q = q.Where("task_type = ?", filters.TaskType)
	}

	var tasks []models.Task
	if err := q.Order("priority ASC, created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	return tasks, nil
}

// Update modifies plain task fields. Status cannot be changed here; every
// status change goes through Transition so the gated collection rules hold.
func Update(db *gorm.DB, id uint, updates map[string]interface{}) error {
	if _, ok := updates["status"]; ok {
		return fmt.Errorf("task: status changes must go through a transition")
	}
	if p, ok := updates["priority"]; ok {
		if pi, ok := p.(int); ok && (pi < 1 || pi > 4) {
			return fmt.Errorf("task: priority must be between 1 and 4")
		}
	}

	result := db.Model(&models.Task{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("task: update %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task: not found: %d", id)
	}
	return nil
}

// Delete removes a task. Confirmation is the caller's responsibility.
func Delete(db *gorm.DB, id uint) error {
	result := db.Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return fmt.Errorf("task: delete %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task: not found: %d", id)
	}
	return nil
}

// ValidStatus reports whether s names a Kanban column.
func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// requireMember verifies the user is assigned to the project.
func requireMember(db *gorm.DB, projectID, userID uint) error {
	var count int64
	if err := db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("task: check membership: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("task: user %d is not assigned to project %d", userID, projectID)
	}
	return nil
}
