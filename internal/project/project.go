// Package project provides project lifecycle operations.
package project

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nextrack/nextrack/internal/models"
	"gorm.io/gorm"
)

// Project statuses.
var validStatuses = map[string]bool{
	"active":    true,
	"inactive":  true,
	"completed": true,
	"dropped":   true,
}

// CreateOpts holds parameters for creating a new project.
type CreateOpts struct {
	Name           string
	Description    string
	Budget         float64
	EstimatedHours float64
	StartDate      *time.Time
	EndDate        *time.Time
}

// ListFilters holds optional filters for listing projects.
type ListFilters struct {
	Status string
}

// Stats is the derived summary for one project.
type Stats struct {
	TotalTasks     int     `json:"total_tasks"`
	TodoTasks      int     `json:"todo_tasks"`
	InProgress     int     `json:"in_progress_tasks"`
	BlockedTasks   int     `json:"blocked_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	MemberCount    int     `json:"member_count"`
	Progress       float64 `json:"progress"` // completed / total, percent
}

// Create creates a new project.
func Create(db *gorm.DB, opts CreateOpts) (*models.Project, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("project: name is required")
	}
	if opts.StartDate != nil && opts.EndDate != nil && opts.EndDate.Before(*opts.StartDate) {
		return nil, fmt.Errorf("project: end date is before start date")
	}

	p := models.Project{
		Name:           opts.Name,
		Description:    opts.Description,
		Status:         "active",
		Budget:         opts.Budget,
		EstimatedHours: opts.EstimatedHours,
		StartDate:      opts.StartDate,
		EndDate:        opts.EndDate,
	}
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("project: create: %w", err)
	}
	return &p, nil
}

// Get retrieves a project by ID.
func Get(db *gorm.DB, id uint) (*models.Project, error) {
	var p models.Project
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project: not found: %d", id)
		}
		return nil, fmt.Errorf("project: get %d: %w", id, err)
	}
	return &p, nil
}

// List returns projects matching the given filters, newest first.
func List(db *gorm.DB, filters ListFilters) ([]models.Project, error) {
	q := db.Model(&models.Project{})
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}

	var projects []models.Project
	if err := q.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	return projects, nil
}

// Update modifies project fields. Status values are validated.
func Update(db *gorm.DB, id uint, updates map[string]interface{}) error {
	if s, ok := updates["status"].(string); ok && !validStatuses[s] {
		return fmt.Errorf("project: invalid status %q", s)
	}

	result := db.Model(&models.Project{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("project: update %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("project: not found: %d", id)
	}
	return nil
}

// Delete removes a project. Projects with unfinished tasks are refused;
// finished tasks and team assignments are removed with the project.
func Delete(db *gorm.DB, id uint) error {
	if _, err := Get(db, id); err != nil {
		return err
	}

	var open int64
	if err := db.Model(&models.Task{}).
		Where("project_id = ? AND status != ?", id, "completed").
		Count(&open).Error; err != nil {
		return fmt.Errorf("project: count open tasks: %w", err)
	}
	if open > 0 {
		return fmt.Errorf("project: %d has %d unfinished task(s); finish or delete them first", id, open)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("project: delete tasks: %w", err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return fmt.Errorf("project: delete members: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.Project{}).Error; err != nil {
			return fmt.Errorf("project: delete %d: %w", id, err)
		}
		return nil
	})
}

// GetStats returns derived task and membership counts for a project.
func GetStats(db *gorm.DB, id uint) (*Stats, error) {
	if _, err := Get(db, id); err != nil {
		return nil, err
	}

	type row struct {
		Status string
		Count  int
	}
	var rows []row
	if err := db.Model(&models.Task{}).
		Select("status, COUNT(*) as count").
		Where("project_id = ?", id).
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("project: task counts for %d: %w", id, err)
	}

	var s Stats
	for _, r := range rows {
		s.TotalTasks += r.Count
		switch r.Status {
		case "todo":
			s.TodoTasks = r.Count
		case "in_progress":
			s.InProgress = r.Count
		case "blocked":
			s.BlockedTasks = r.Count
		case "completed":
			s.CompletedTasks = r.Count
		}
	}
	if s.TotalTasks > 0 {
		s.Progress = math.Round(float64(s.CompletedTasks) / float64(s.TotalTasks) * 1000) / 10
	}

	var members int64
	if err := db.Model(&models.ProjectMember{}).Where("project_id = ?", id).Count(&members).Error; err != nil {
		return nil, fmt.Errorf("project: member count for %d: %w", id, err)
	}
	s.MemberCount = int(members)

	return &s, nil
}
