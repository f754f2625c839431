// Package digest builds and schedules the weekly workload summary.
package digest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nextrack/nextrack/internal/models"
	"github.com/nextrack/nextrack/internal/notify"
	"github.com/nextrack/nextrack/internal/workload"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Report holds the computed workload summary for one week.
type Report struct {
	WeekStart   time.Time
	WeekEnd     time.Time
	Utilization []UserLoad
	Overdue     []models.Task
}

// UserLoad is one user's load for the report week.
type UserLoad struct {
	Name           string
	PlannedHours   float64
	Capacity       float64
	UtilizationPct float64
	TaskCount      int
	Overallocated  bool
}

// Build computes the report for the ISO week containing now. Users without
// pending work that week are omitted.
func Build(db *gorm.DB, now time.Time) (*Report, error) {
	weekStart, weekEnd := workload.WeekBounds(now)
	report := &Report{WeekStart: weekStart, WeekEnd: weekEnd}

	var users []models.User
	if err := db.Where("active = ?", true).Order("name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("digest: list users: %w", err)
	}

	for _, u := range users {
		var agg struct {
			Count int
			Hours float64
		}
		if err := db.Model(&models.Task{}).
			Select("COUNT(*) as count, COALESCE(SUM(planned_hours), 0) as hours").
			Where("assignee_id = ? AND status != ? AND due_date >= ? AND due_date < ?",
				u.ID, "completed", weekStart, weekEnd).
			Scan(&agg).Error; err != nil {
			return nil, fmt.Errorf("digest: sum hours for %s: %w", u.Name, err)
		}
		if agg.Count == 0 {
			continue
		}

		capacity := u.AvailableHours
		if capacity <= 0 {
			capacity = workload.DefaultCapacity
		}

		var allocated float64
		if err := db.Model(&models.ProjectMember{}).
			Where("user_id = ?", u.ID).
			Select("COALESCE(SUM(allocated_hours_per_week), 0)").
			Scan(&allocated).Error; err != nil {
			return nil, fmt.Errorf("digest: sum allocations for %s: %w", u.Name, err)
		}

		report.Utilization = append(report.Utilization, UserLoad{
			Name:           u.Name,
			PlannedHours:   agg.Hours,
			Capacity:       capacity,
			UtilizationPct: agg.Hours / capacity * 100,
			TaskCount:      agg.Count,
			Overallocated:  allocated > capacity,
		})
	}

	if err := db.Preload("Assignee").Preload("Project").
		Where("status != ? AND due_date < ?", "completed", weekStart).
		Order("due_date ASC").
		Find(&report.Overdue).Error; err != nil {
		return nil, fmt.Errorf("digest: list overdue: %w", err)
	}

	return report, nil
}

// Format renders a report as a notification event. Returns false when the
// week has no pending work and no overdue tasks, so the digest is suppressed.
func Format(report *Report) (notify.Event, bool) {
	if len(report.Utilization) == 0 && len(report.Overdue) == 0 {
		return notify.Event{}, false
	}

	var bodyLines []string
	bodyLines = append(bodyLines, fmt.Sprintf("**Week**: %s – %s",
		report.WeekStart.Format("Jan 2"),
		report.WeekEnd.AddDate(0, 0, -1).Format("Jan 2")))

	if len(report.Utilization) > 0 {
		bodyLines = append(bodyLines, "", "**Utilization**:")
		for _, u := range report.Utilization {
			line := fmt.Sprintf("  %s: %.1fh of %.1fh (%.0f%%), %d task(s)",
				u.Name, u.PlannedHours, u.Capacity, u.UtilizationPct, u.TaskCount)
			if u.Overallocated {
				line += " [overallocated]"
			}
			bodyLines = append(bodyLines, line)
		}
	}

	if len(report.Overdue) > 0 {
		bodyLines = append(bodyLines, "", "**Overdue**:")
		for _, t := range report.Overdue {
			bodyLines = append(bodyLines, fmt.Sprintf("  %s (%s, due %s)",
				t.Name, t.Assignee.Name, t.DueDate.Format("Jan 2")))
		}
	}

	color := notify.ColorInfo
	for _, u := range report.Utilization {
		if u.UtilizationPct > 100 {
			color = notify.ColorCritical
			break
		}
	}
	if color == notify.ColorInfo && len(report.Overdue) > 0 {
		color = notify.ColorHigh
	}

	return notify.Event{
		Title: "Weekly Workload Digest",
		Body:  strings.Join(bodyLines, "\n"),
		Color: color,
		Fields: []notify.Field{
			{Name: "Users with work", Value: fmt.Sprintf("%d", len(report.Utilization)), Short: true},
			{Name: "Overdue tasks", Value: fmt.Sprintf("%d", len(report.Overdue)), Short: true},
		},
	}, true
}

// Scheduler fires the digest on a cron schedule.
type Scheduler struct {
	db       *gorm.DB
	notifier notify.Notifier
	schedule string
}

// NewScheduler builds a Scheduler. The schedule must be a 5-field cron
// expression.
func NewScheduler(db *gorm.DB, notifier notify.Notifier, schedule string) (*Scheduler, error) {
	if _, err := cronParser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("digest: parse schedule %q: %w", schedule, err)
	}
	return &Scheduler{db: db, notifier: notifier, schedule: schedule}, nil
}

// Run fires the digest at each scheduled time until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		d := nextCronDuration(s.schedule)
		if d <= 0 {
			d = time.Minute
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d):
			if err := s.fire(ctx); err != nil {
				log.Printf("digest: %v", err)
			}
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) error {
	report, err := Build(s.db, time.Now())
	if err != nil {
		return err
	}
	evt, ok := Format(report)
	if !ok {
		return nil
	}
	return s.notifier.Send(ctx, evt)
}

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}
