package models

import "time"

// User represents a registered player account.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Email       string    `gorm:"uniqueIndex;size:255;not null" json:"email"` // stored lowercase
	Password    string    `gorm:"size:255;not null" json:"-"`                 // bcrypt hash
	DisplayName string    `gorm:"size:100" json:"display_name"`
	Bio         string    `gorm:"size:500" json:"bio"`
	Avatar      string    `gorm:"type:text" json:"avatar,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// PublicProfile strips fields not visible to other users.
func (u *User) PublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":           u.ID,
		"username":     u.Username,
		"display_name": u.DisplayName,
		"bio":          u.Bio,
		"avatar":       u.Avatar,
		"created_at":   u.CreatedAt,
	}
}
