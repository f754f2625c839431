package notify

import (
	"fmt"
	"strings"

	"github.com/nextrack/nextrack/internal/models"
	"github.com/nextrack/nextrack/internal/workload"
)

// WorkloadEvent formats a workload escalation raised at task creation.
func WorkloadEvent(t *models.Task, assignee string, eval *workload.Evaluation) Event {
	color := ColorHigh
	if eval.Level == workload.LevelCritical {
		color = ColorCritical
	}

	return Event{
		Title: fmt.Sprintf("Workload %s: %s", eval.Level, assignee),
		Body:  strings.Join(eval.Warnings, "\n"),
		Color: color,
		Fields: []Field{
			{Name: "Task", Value: t.Name, Short: true},
			{Name: "Planned", Value: fmt.Sprintf("%.1fh", t.PlannedHours), Short: true},
			{Name: "Utilization", Value: fmt.Sprintf("%.1f%%", eval.Snapshot.UtilizationPct), Short: true},
			{Name: "Available", Value: fmt.Sprintf("%.1fh", eval.Snapshot.AvailableHours), Short: true},
		},
	}
}

// BlockedEvent formats a task entering the blocked state.
func BlockedEvent(t *models.Task, assignee, reason string) Event {
	fields := []Field{
		{Name: "Task", Value: t.Name, Short: true},
		{Name: "Assignee", Value: assignee, Short: true},
	}
	return Event{
		Title:  fmt.Sprintf("Task blocked: %s", t.Name),
		Body:   reason,
		Color:  ColorHigh,
		Fields: fields,
	}
}
