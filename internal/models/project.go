package models

import "time"

// Project categories, priorities, durations and statuses form closed enums;
// values outside these sets are rejected at validation time.
var (
	ProjectCategories = []string{"building", "farming", "exploration", "pvp", "creative", "technical", "community", "other"}
	ProjectPriorities = []string{"low", "medium", "high", "urgent"}
	ProjectDurations  = []string{"1-day", "few-days", "1-week", "few-weeks", "1-month", "few-months", "ongoing"}
	ProjectStatuses   = []string{"active", "completed", "paused", "cancelled"}
)

// Project is a collaborative quest board for one gaming goal.
type Project struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Title             string          `gorm:"size:100;not null" json:"title"`
	Description       string          `gorm:"size:1000;not null" json:"description"`
	Game              string          `gorm:"size:100;not null" json:"game"`
	Category          string          `gorm:"size:50;default:other" json:"category"`
	Priority          string          `gorm:"size:20;default:medium" json:"priority"`
	EstimatedDuration string          `gorm:"size:20;default:1-week" json:"estimated_duration"`
	Status            string          `gorm:"size:20;default:active" json:"status"`
	CreatedBy         uint            `gorm:"index;not null" json:"created_by"`
	Members           []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `gorm:"index" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

// HasAccess reports whether userID appears in the preloaded member list.
func (p *Project) HasAccess(userID uint) bool {
	for _, m := range p.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// UserRole returns the member's role, or "" when userID is not a member.
// It never errors: absence is an answer, not a failure.
func (p *Project) UserRole(userID uint) string {
	for _, m := range p.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return ""
}

// IsOwnerOrAdmin reports whether userID holds a structural role on the project.
func (p *Project) IsOwnerOrAdmin(userID uint) bool {
	role := p.UserRole(userID)
	return role == RoleOwner || role == RoleAdmin
}
