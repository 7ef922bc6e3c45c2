package models

import "time"

// Notification types form a closed enum.
const (
	NotificationTaskAssigned        = "task_assigned"
	NotificationTaskComment         = "task_comment"
	NotificationTaskMention         = "task_mention"
	NotificationTaskStatusChanged   = "task_status_changed"
	NotificationDeadlineApproaching = "task_deadline_approaching"
	NotificationProjectInvite       = "project_invite"
	NotificationTeamMemberJoined    = "team_member_joined"
)

// Notification is a persisted, per-user event record. Delivery to the realtime
// channel is best-effort; the row is the source of truth.
type Notification struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	RecipientID uint       `gorm:"index:idx_notif_recipient_read;not null" json:"recipient_id"`
	SenderID    *uint      `json:"sender_id,omitempty"`
	Sender      *User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type        string     `gorm:"size:50;not null" json:"type"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Message     string     `gorm:"size:500;not null" json:"message"`
	Link        string     `gorm:"size:500" json:"link,omitempty"`
	ProjectID   *uint      `json:"project_id,omitempty"`
	TaskID      *uint      `json:"task_id,omitempty"`
	Read        bool       `gorm:"index:idx_notif_recipient_read;default:false" json:"read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
