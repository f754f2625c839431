// Package workload estimates weekly utilization for a prospective task
// assignment and classifies the result into a warning severity.
package workload

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nextrack/nextrack/internal/models"
	"gorm.io/gorm"
)

// DefaultCapacity is the weekly capacity assumed for users without an
// explicit available_hours_per_week.
const DefaultCapacity = 40

// Level is the warning severity gating task creation in the UI.
type Level string

const (
	LevelNone     Level = "none"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Input describes a prospective task assignment.
type Input struct {
	AssigneeID   uint
	ProjectID    uint
	PlannedHours float64
	DueDate      time.Time
}

// Snapshot is the workload computation for (assignee, week of due date).
type Snapshot struct {
	CurrentTaskCount      int     `json:"current_task_count"`
	CurrentHours          float64 `json:"current_hours"`
	NewTaskHours          float64 `json:"new_task_hours"`
	TotalHours            float64 `json:"total_hours"`
	Capacity              float64 `json:"capacity"`
	AvailableHours        float64 `json:"available_hours"`
	UtilizationPct        float64 `json:"utilization_percentage"`
	AllocatedHours        float64 `json:"allocated_hours"`
	AllocationUtilization float64 `json:"allocation_utilization"`
	WeeksUntilDue         int     `json:"weeks_until_due"`
}

// Evaluation is the evaluator output consumed by the task-creation flow.
type Evaluation struct {
	Warnings []string `json:"warnings"`
	Level    Level    `json:"warning_level"`
	Snapshot Snapshot `json:"workload"`
}

// WeekBounds returns the half-open [Monday 00:00, next Monday 00:00)
// interval of the ISO week containing t, in t's location.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	// Weekday() is Sunday=0; shift so Monday=0.
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}

// Evaluate computes the workload snapshot and warning classification for a
// prospective assignment. It is read-only: nothing is persisted.
func Evaluate(db *gorm.DB, in Input) (*Evaluation, error) {
	if in.PlannedHours <= 0 {
		return nil, fmt.Errorf("workload: planned hours must be positive")
	}
	if in.DueDate.IsZero() {
		return nil, fmt.Errorf("workload: due date is required")
	}

	var assignee models.User
	if err := db.Where("id = ?", in.AssigneeID).First(&assignee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("workload: assignee not found: %d", in.AssigneeID)
		}
		return nil, fmt.Errorf("workload: get assignee %d: %w", in.AssigneeID, err)
	}

	var member models.ProjectMember
	if err := db.Where("project_id = ? AND user_id = ?", in.ProjectID, in.AssigneeID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("workload: user %d is not assigned to project %d", in.AssigneeID, in.ProjectID)
		}
		return nil, fmt.Errorf("workload: get membership: %w", err)
	}

	capacity := assignee.AvailableHours
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	// Pending load for the week of the due date. Completed tasks are sunk
	// cost, not pending work, and are excluded.
	weekStart, weekEnd := WeekBounds(in.DueDate)
	type agg struct {
		Count int
		Hours float64
	}
	var cur agg
	if err := db.Model(&models.Task{}).
		Select("COUNT(*) as count, COALESCE(SUM(planned_hours), 0) as hours").
		Where("assignee_id = ? AND status != ? AND due_date >= ? AND due_date < ?",
			in.AssigneeID, "completed", weekStart, weekEnd).
		Scan(&cur).Error; err != nil {
		return nil, fmt.Errorf("workload: sum pending hours: %w", err)
	}

	total := cur.Hours + in.PlannedHours
	snap := Snapshot{
		CurrentTaskCount: cur.Count,
		CurrentHours:     cur.Hours,
		NewTaskHours:     in.PlannedHours,
		TotalHours:       total,
		Capacity:         capacity,
		AvailableHours:   capacity - total,
		UtilizationPct:   round1(total / capacity * 100),
		AllocatedHours:   member.AllocatedHours,
		WeeksUntilDue:    weeksUntil(in.DueDate, time.Now()),
	}
	if member.AllocatedHours > 0 {
		snap.AllocationUtilization = round1(total / member.AllocatedHours * 100)
	}

	level, warnings := Classify(snap)
	return &Evaluation{Warnings: warnings, Level: level, Snapshot: snap}, nil
}

// Classify derives the warning severity and human-readable warning strings
// from a snapshot. Overload and allocation warnings come first, deadline
// warnings last; the most severe condition wins.
func Classify(s Snapshot) (Level, []string) {
	level := LevelNone
	var warnings []string

	remainingBefore := s.Capacity - s.CurrentHours

	switch {
	case s.UtilizationPct > 100:
		level = LevelCritical
		warnings = append(warnings, fmt.Sprintf(
			"Assignee is overcommitted: %.1fh planned against %.1fh weekly capacity (%.1f%% utilization)",
			s.TotalHours, s.Capacity, s.UtilizationPct))
	case s.NewTaskHours > remainingBefore:
		level = LevelCritical
		warnings = append(warnings, fmt.Sprintf(
			"New task (%.1fh) exceeds the assignee's remaining capacity (%.1fh) for that week",
			s.NewTaskHours, remainingBefore))
	case s.UtilizationPct >= 60:
		level = LevelHigh
		warnings = append(warnings, fmt.Sprintf(
			"Assignee utilization is high: %.1fh of %.1fh weekly capacity (%.1f%%)",
			s.TotalHours, s.Capacity, s.UtilizationPct))
	case s.AvailableHours <= 0.4*s.Capacity:
		level = LevelHigh
		warnings = append(warnings, fmt.Sprintf(
			"Only %.1fh of weekly capacity left after this task", s.AvailableHours))
	}

	if s.AllocatedHours > 0 && s.AllocationUtilization > 100 {
		warnings = append(warnings, fmt.Sprintf(
			"Planned hours exceed the assignee's %.1fh/week allocation on this project (%.1f%% of allocation)",
			s.AllocatedHours, s.AllocationUtilization))
	}

	// A tight deadline is flagged but never raises the level on its own.
	if s.WeeksUntilDue < 2 {
		warnings = append(warnings, fmt.Sprintf(
			"Due date is less than 2 weeks away (%d week(s))", s.WeeksUntilDue))
	}

	return level, warnings
}

// weeksUntil returns ceil((due − now) / 7 days), comparing calendar dates.
func weeksUntil(due, now time.Time) int {
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(d.Sub(n).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return (days + 6) / 7
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
