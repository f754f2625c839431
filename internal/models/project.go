package models

import "time"

// Project groups tasks and team assignments.
type Project struct {
	ID             uint    `gorm:"primaryKey;autoIncrement"`
	Name           string  `gorm:"size:255;not null"`
	Description    string  `gorm:"type:text"`
	Status         string  `gorm:"size:16;default:active;index"`
	Budget         float64 `gorm:"default:0"`
	EstimatedHours float64 `gorm:"default:0"`
	StartDate      *time.Time
	EndDate        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Tasks   []Task          `gorm:"foreignKey:ProjectID"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID"`
}

// ProjectMember is a user's participation in one project, with a
// project-specific weekly hour commitment distinct from the user's
// global capacity.
type ProjectMember struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	ProjectID uint `gorm:"not null;uniqueIndex:idx_project_user"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_project_user"`

	AllocatedHours float64 `gorm:"column:allocated_hours_per_week;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Project Project `gorm:"foreignKey:ProjectID"`
	User    User    `gorm:"foreignKey:UserID"`
}
