package models

import "time"

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusCompleted  = "completed"
)

var (
	TaskStatuses   = []string{TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted}
	TaskPriorities = []string{"low", "medium", "high"}
)

// Task belongs to exactly one project and is deleted with it.
// A nil AssigneeID means unassigned.
type Task struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"size:1000" json:"description"`
	Status      string     `gorm:"size:20;default:todo;index:idx_task_project_status" json:"status"`
	Priority    string     `gorm:"size:20;default:medium" json:"priority"`
	ProjectID   uint       `gorm:"not null;index:idx_task_project_status" json:"project_id"`
	AssigneeID  *uint      `gorm:"index" json:"assignee_id"`
	Assignee    *User      `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	DueDate     *time.Time `gorm:"index" json:"due_date,omitempty"`
	CreatedBy   uint       `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Task) TableName() string { return "tasks" }

// NextStatus advances the 3-state cycle todo -> in-progress -> completed -> todo.
func (t *Task) NextStatus() string {
	switch t.Status {
	case TaskStatusTodo:
		return TaskStatusInProgress
	case TaskStatusInProgress:
		return TaskStatusCompleted
	default:
		return TaskStatusTodo
	}
}
