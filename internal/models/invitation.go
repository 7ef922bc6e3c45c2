package models

import "time"

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

// Invitation invites an existing user to join a project. The composite unique
// index on (project, invited user, status) prevents duplicate pendings.
type Invitation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProjectID     uint      `gorm:"uniqueIndex:idx_project_invitee_status;not null" json:"project_id"`
	Project       *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	InvitedUserID uint      `gorm:"uniqueIndex:idx_project_invitee_status;index;not null" json:"invited_user_id"`
	InvitedUser   *User     `gorm:"foreignKey:InvitedUserID" json:"invited_user,omitempty"`
	InvitedBy     uint      `gorm:"not null" json:"invited_by"`
	Inviter       *User     `gorm:"foreignKey:InvitedBy" json:"inviter,omitempty"`
	Status        string    `gorm:"uniqueIndex:idx_project_invitee_status;size:20;default:pending;not null" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Invitation) TableName() string { return "invitations" }
