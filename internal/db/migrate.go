package db

import (
	"fmt"

	"github.com/nextrack/nextrack/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.PasswordReset{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedAdmin upserts the initial admin account. The password is only set on
// first creation so reruns never clobber a changed password.
func SeedAdmin(db *gorm.DB, email, password string) error {
	if email == "" {
		return fmt.Errorf("db: seed admin: email is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("db: seed admin: hash password: %w", err)
	}

	admin := models.User{
		Name:           "Administrator",
		Email:          email,
		PasswordHash:   string(hash),
		Role:           "admin",
		AvailableHours: 40,
		Active:         true,
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "active"}),
	}).Create(&admin)
	if result.Error != nil {
		return fmt.Errorf("db: seed admin %q: %w", email, result.Error)
	}
	return nil
}
