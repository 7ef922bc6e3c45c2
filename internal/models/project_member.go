package models

import "time"

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ProjectMember represents a user's membership and role within a project.
// The composite unique index makes duplicate memberships impossible even
// under concurrent invite-accepts.
type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      string    `gorm:"size:20;default:member;not null" json:"role"` // owner, admin, member
	JoinedAt  time.Time `json:"joined_at"`
}

func (ProjectMember) TableName() string { return "project_members" }
