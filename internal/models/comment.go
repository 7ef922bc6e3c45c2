package models

import "time"

// MaxCommentLength bounds comment text.
const MaxCommentLength = 1000

// Comment belongs to exactly one task.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"size:1000;not null" json:"text"`
	TaskID    uint      `gorm:"index;not null" json:"task_id"`
	CreatedBy uint      `gorm:"not null" json:"created_by"`
	Author    *User     `gorm:"foreignKey:CreatedBy" json:"author,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Comment) TableName() string { return "comments" }
