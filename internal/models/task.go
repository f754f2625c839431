package models

import "time"

// Task is the core work item in NexTrack.
type Task struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"size:16;default:todo;index"`
	Priority    int    `gorm:"default:3"`
	TaskType    string `gorm:"size:32;default:feature"`

	ProjectID  uint  `gorm:"not null;index"`
	AssigneeID uint  `gorm:"not null;index"`
	WaitingOn  *uint // team member a blocked task is waiting on

	PlannedHours float64 `gorm:"default:0"`
	ActualHours  float64 `gorm:"default:0"` // meaningful only once status=completed
	DueDate      *time.Time

	// WorkDescription doubles as the block reason while blocked and the
	// completion notes once completed.
	WorkDescription    string `gorm:"type:text"`
	Attachments        string `gorm:"type:text"` // newline-joined links
	ProductivityRating int    `gorm:"default:0"` // 1..5, set on completion

	// Workload snapshot recorded at creation time.
	WarningLevel          string  `gorm:"size:16;default:none"`
	Warnings              string  `gorm:"type:json"`
	UtilizationPct        float64 `gorm:"default:0"`
	AllocationUtilization float64 `gorm:"default:0"`
	AvailableHours        float64 `gorm:"default:0"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time

	Project  Project `gorm:"foreignKey:ProjectID"`
	Assignee User    `gorm:"foreignKey:AssigneeID"`
}

// PasswordReset is a single-use password reset token.
type PasswordReset struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    uint   `gorm:"not null;index"`
	Token     string `gorm:"size:36;not null;uniqueIndex"`
	ExpiresAt time.Time
	Used      bool `gorm:"default:false"`
	CreatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}
