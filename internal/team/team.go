// Package team manages project-team assignments and their weekly hour
// allocations.
package team

import (
	"errors"
	"fmt"

	"github.com/nextrack/nextrack/internal/models"
	"github.com/nextrack/nextrack/internal/workload"
	"gorm.io/gorm"
)

// Member is a team assignment joined with its user for display.
type Member struct {
	UserID         uint    `json:"user_id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	AllocatedHours float64 `json:"allocated_hours_per_week"`
	AvailableHours float64 `json:"available_hours_per_week"`
}

// AddMember assigns a user to a project with a weekly allocation. The
// returned warning is non-empty when the user's allocations across all
// projects now exceed their capacity; the assignment still succeeds
// (checked opportunistically, never enforced).
func AddMember(db *gorm.DB, projectID, userID uint, allocatedHours float64) (string, error) {
	if allocatedHours <= 0 {
		return "", fmt.Errorf("team: allocated hours must be positive")
	}

	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("team: user not found: %d", userID)
		}
		return "", fmt.Errorf("team: get user %d: %w", userID, err)
	}
	var count int64
	if err := db.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return "", fmt.Errorf("team: check project %d: %w", projectID, err)
	}
	if count == 0 {
		return "", fmt.Errorf("team: project not found: %d", projectID)
	}

	member := models.ProjectMember{
		ProjectID:      projectID,
		UserID:         userID,
		AllocatedHours: allocatedHours,
	}
	if err := db.Create(&member).Error; err != nil {
		return "", fmt.Errorf("team: add user %d to project %d: %w", userID, projectID, err)
	}

	return overallocationWarning(db, user)
}

// UpdateAllocation changes a member's weekly allocation, with the same
// opportunistic overallocation warning as AddMember.
func UpdateAllocation(db *gorm.DB, projectID, userID uint, allocatedHours float64) (string, error) {
	if allocatedHours <= 0 {
		return "", fmt.Errorf("team: allocated hours must be positive")
	}

	result := db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("allocated_hours_per_week", allocatedHours)
	if result.Error != nil {
		return "", fmt.Errorf("team: update allocation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", fmt.Errorf("team: user %d is not assigned to project %d", userID, projectID)
	}

	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		return "", fmt.Errorf("team: get user %d: %w", userID, err)
	}
	return overallocationWarning(db, user)
}

// RemoveMember removes a user from a project. Users with unfinished tasks
// on the project cannot be removed.
func RemoveMember(db *gorm.DB, projectID, userID uint) error {
	var open int64
	if err := db.Model(&models.Task{}).
		Where("project_id = ? AND assignee_id = ? AND status != ?", projectID, userID, "completed").
		Count(&open).Error; err != nil {
		return fmt.Errorf("team: count open tasks: %w", err)
	}
	if open > 0 {
		return fmt.Errorf("team: user %d still has %d unfinished task(s) on project %d", userID, open, projectID)
	}

	result := db.Where("project_id = ? AND user_id = ?", projectID, userID).Delete(&models.ProjectMember{})
	if result.Error != nil {
		return fmt.Errorf("team: remove user %d from project %d: %w", userID, projectID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("team: user %d is not assigned to project %d", userID, projectID)
	}
	return nil
}

// ListMembers returns the project's team with allocations.
func ListMembers(db *gorm.DB, projectID uint) ([]Member, error) {
	var members []models.ProjectMember
	if err := db.Preload("User").Where("project_id = ?", projectID).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("team: list members of project %d: %w", projectID, err)
	}

	out := make([]Member, len(members))
	for i, m := range members {
		out[i] = Member{
			UserID:         m.UserID,
			Name:           m.User.Name,
			Email:          m.User.Email,
			Role:           m.User.Role,
			AllocatedHours: m.AllocatedHours,
			AvailableHours: m.User.AvailableHours,
		}
	}
	return out, nil
}

// AvailableUsers returns active users not yet assigned to the project.
func AvailableUsers(db *gorm.DB, projectID uint) ([]models.User, error) {
	var users []models.User
	sub := db.Model(&models.ProjectMember{}).Select("user_id").Where("project_id = ?", projectID)
	if err := db.Where("active = ? AND id NOT IN (?)", true, sub).
		Order("name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("team: available users for project %d: %w", projectID, err)
	}
	return users, nil
}

// overallocationWarning sums the user's allocations across all projects
// and warns when they exceed the user's weekly capacity.
func overallocationWarning(db *gorm.DB, user models.User) (string, error) {
	var total float64
	if err := db.Model(&models.ProjectMember{}).
		Where("user_id = ?", user.ID).
		Select("COALESCE(SUM(allocated_hours_per_week), 0)").
		Scan(&total).Error; err != nil {
		return "", fmt.Errorf("team: sum allocations for user %d: %w", user.ID, err)
	}

	capacity := user.AvailableHours
	if capacity <= 0 {
		capacity = workload.DefaultCapacity
	}
	if total > capacity {
		return fmt.Sprintf("%s is allocated %.1fh/week across projects, above their %.1fh capacity",
			user.Name, total, capacity), nil
	}
	return "", nil
}
