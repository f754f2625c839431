// Package user provides account management operations.
package user

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nextrack/nextrack/internal/models"
	"github.com/nextrack/nextrack/internal/workload"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User roles.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

var validRoles = map[string]bool{
	RoleAdmin:    true,
	RoleManager:  true,
	RoleEmployee: true,
}

// CreateOpts holds parameters for creating a new user.
type CreateOpts struct {
	Name           string
	Email          string
	Password       string
	Role           string
	AvailableHours float64
}

// Create creates a user with a bcrypt-hashed password. Email must be unique
// and the role defaults to employee. AvailableHours of 0 falls back to the
// default weekly capacity.
func Create(db *gorm.DB, opts CreateOpts) (*models.User, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return nil, fmt.Errorf("user: name is required")
	}
	email := strings.ToLower(strings.TrimSpace(opts.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("user: valid email is required")
	}
	if len(opts.Password) < 8 {
		return nil, fmt.Errorf("user: password must be at least 8 characters")
	}
	role := opts.Role
	if role == "" {
		role = RoleEmployee
	}
	if !validRoles[role] {
		return nil, fmt.Errorf("user: invalid role %q", role)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("user: check email: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("user: email %s is already registered", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("user: hash password: %w", err)
	}

	hours := opts.AvailableHours
	if hours <= 0 {
		hours = workload.DefaultCapacity
	}

	u := models.User{
		Name:           opts.Name,
		Email:          email,
		PasswordHash:   string(hash),
		Role:           role,
		AvailableHours: hours,
		Active:         true,
	}
	if err := db.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("user: create: %w", err)
	}
	return &u, nil
}

// Get retrieves a user by ID.
func Get(db *gorm.DB, id uint) (*models.User, error) {
	var u models.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user: not found: %d", id)
		}
		return nil, fmt.Errorf("user: get %d: %w", id, err)
	}
	return &u, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func GetByEmail(db *gorm.DB, email string) (*models.User, error) {
	var u models.User
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user: not found: %s", email)
		}
		return nil, fmt.Errorf("user: get %s: %w", email, err)
	}
	return &u, nil
}

// List returns all users ordered by name.
func List(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user: list: %w", err)
	}
	return users, nil
}

// Update modifies user fields. Passwords go through auth, not here; the
// password_hash key is rejected.
func Update(db *gorm.DB, id uint, updates map[string]interface{}) error {
	if _, ok := updates["password_hash"]; ok {
		return fmt.Errorf("user: password changes go through the auth flow")
	}
	if r, ok := updates["role"].(string); ok && !validRoles[r] {
		return fmt.Errorf("user: invalid role %q", r)
	}
	if e, ok := updates["email"].(string); ok {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || !strings.Contains(e, "@") {
			return fmt.Errorf("user: valid email is required")
		}
		var count int64
		if err := db.Model(&models.User{}).Where("email = ? AND id != ?", e, id).Count(&count).Error; err != nil {
			return fmt.Errorf("user: check email: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("user: email %s is already registered", e)
		}
		updates["email"] = e
	}

	result := db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("user: update %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user: not found: %d", id)
	}
	return nil
}

// Deactivate marks a user inactive instead of deleting the row, so their
// task history survives. Users with unfinished tasks are refused.
func Deactivate(db *gorm.DB, id uint) error {
	var open int64
	if err := db.Model(&models.Task{}).
		Where("assignee_id = ? AND status != ?", id, "completed").
		Count(&open).Error; err != nil {
		return fmt.Errorf("user: count open tasks: %w", err)
	}
	if open > 0 {
		return fmt.Errorf("user: %d still has %d unfinished task(s); reassign them first", id, open)
	}

	result := db.Model(&models.User{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return fmt.Errorf("user: deactivate %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user: not found: %d", id)
	}
	return nil
}

// Tasks returns the user's tasks, most urgent first.
func Tasks(db *gorm.DB, id uint) ([]models.Task, error) {
	if _, err := Get(db, id); err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := db.Preload("Project").
		Where("assignee_id = ?", id).
		Order("priority ASC, created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("user: tasks for %d: %w", id, err)
	}
	return tasks, nil
}

// Projects returns the projects the user is assigned to.
func Projects(db *gorm.DB, id uint) ([]models.Project, error) {
	if _, err := Get(db, id); err != nil {
		return nil, err
	}
	var projects []models.Project
	sub := db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", id)
	if err := db.Where("id IN (?)", sub).Order("name ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("user: projects for %d: %w", id, err)
	}
	return projects, nil
}
