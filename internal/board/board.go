// Package board renders tasks as Kanban columns and applies the in-memory
// filtering the dashboard re-runs whenever the collection or criteria change.
package board

import (
	"strings"
	"time"

	"github.com/nextrack/nextrack/internal/models"
	"github.com/nextrack/nextrack/internal/task"
)

// Column is one Kanban drop target with its tasks.
type Column struct {
	Status string        `json:"status"`
	Tasks  []models.Task `json:"tasks"`
}

// Columns groups tasks by status into the fixed column order
// todo, in_progress, blocked, completed. Every column is present even
// when empty. Tasks with an unknown status are dropped.
func Columns(tasks []models.Task) []Column {
	byStatus := make(map[string][]models.Task, len(task.Statuses))
	for _, t := range tasks {
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}

	cols := make([]Column, len(task.Statuses))
	for i, s := range task.Statuses {
		col := Column{Status: s, Tasks: byStatus[s]}
		if col.Tasks == nil {
			col.Tasks = []models.Task{}
		}
		cols[i] = col
	}
	return cols
}

// Filters are the criteria applied over an already-fetched collection.
// Zero values mean "no filter".
type Filters struct {
	ProjectID  uint
	AssigneeID uint
	Status     string
	Priority   int
	TaskType   string
	Search     string // case-insensitive substring over name and description
	DueBefore  *time.Time
}

// Apply returns the tasks matching all set criteria, preserving order.
func Apply(tasks []models.Task, f Filters) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if matches(t, f) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t models.Task, f Filters) bool {
	if f.ProjectID != 0 && t.ProjectID != f.ProjectID {
		return false
	}
	if f.AssigneeID != 0 && t.AssigneeID != f.AssigneeID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != 0 && t.Priority != f.Priority {
		return false
	}
	if f.TaskType != "" && t.TaskType != f.TaskType {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Name), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	if f.DueBefore != nil {
		if t.DueDate == nil || !t.DueDate.Before(*f.DueBefore) {
			return false
		}
	}
	return true
}
