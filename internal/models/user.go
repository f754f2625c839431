package models

import "time"

// User is an account that can log in and be assigned to projects and tasks.
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"size:128;not null"`
	Email        string `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string `gorm:"size:128;not null"`
	Role         string `gorm:"size:16;default:employee;index"`

	// AvailableHours is the user's weekly capacity. Workload evaluation
	// falls back to 40 when this is unset.
	AvailableHours float64 `gorm:"column:available_hours_per_week;default:0"`

	DarkTheme bool `gorm:"default:false"`
	Active    bool `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Memberships []ProjectMember `gorm:"foreignKey:UserID"`
	Tasks       []Task          `gorm:"foreignKey:AssigneeID"`
}
