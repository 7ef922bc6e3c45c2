package services

import (
	"errors"
	"strings"
	"time"

	"github.com/questboard/questboard/internal/models"
	"github.com/questboard/questboard/internal/realtime"
	"github.com/questboard/questboard/pkg/response"
	"gorm.io/gorm"
)

type TaskService struct {
	db    *gorm.DB
	hub   *realtime.Hub
	queue TaskQueue
}

func NewTaskService(db *gorm.DB, hub *realtime.Hub, queue TaskQueue) *TaskService {
	return &TaskService{db: db, hub: hub, queue: queue}
}

type CreateTaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssigneeID  *uint      `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateTaskInput struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
	Priority      *string    `json:"priority"`
	AssigneeID    *uint      `json:"assignee_id"`
	ClearAssignee bool       `json:"clear_assignee"`
	DueDate       *time.Time `json:"due_date"`
	ClearDueDate  bool       `json:"clear_due_date"`
}

// loadTaskForUser loads a task and its project, enforcing membership. The
// project comes back with members preloaded for role checks.
func (s *TaskService) loadTaskForUser(taskID, userID uint) (*models.Task, *models.Project, error) {
	var task models.Task
	if err := s.db.Preload("Assignee").First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, response.NewNotFound("task not found")
		}
		return nil, nil, err
	}

	project, err := loadProjectForUser(s.db, task.ProjectID, userID)
	if err != nil {
		return nil, nil, err
	}
	return &task, project, nil
}

// touchProject bumps the project's updated_at so board listings reflect
// task activity.
func (s *TaskService) touchProject(projectID uint) {
	s.db.Model(&models.Project{}).Where("id = ?", projectID).
		Update("updated_at", time.Now())
}

// ListByProject returns the project's tasks for its kanban board.
func (s *TaskService) ListByProject(projectID, userID uint) ([]models.Task, error) {
	if _, err := loadProjectForUser(s.db, projectID, userID); err != nil {
		return nil, err
	}

	var tasks []models.Task
	err := s.db.Where("project_id = ?", projectID).
		Preload("Assignee").
		Order("created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

// Create adds a task to the project. Any member may create tasks; the
// assignee, when set, must also be a member.
func (s *TaskService) Create(projectID, userID uint, input *CreateTaskInput) (*models.Task, error) {
	project, err := loadProjectForUser(s.db, projectID, userID)
	if err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if input.Priority == "" {
		input.Priority = "medium"
	}

	var fields []string
	if input.Title == "" || len(input.Title) > 200 {
		fields = append(fields, "title is required and must be at most 200 characters")
	}
	if len(input.Description) > 1000 {
		fields = append(fields, "description must be at most 1000 characters")
	}
	if !contains(models.TaskStatuses, input.Status) {
		fields = append(fields, "status is invalid")
	}
	if !contains(models.TaskPriorities, input.Priority) {
		fields = append(fields, "priority is invalid")
	}
	if input.AssigneeID != nil && !project.HasAccess(*input.AssigneeID) {
		fields = append(fields, "assignee must be a project member")
	}
	if len(fields) > 0 {
		return nil, response.NewValidationError(fields)
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		ProjectID:   projectID,
		AssigneeID:  input.AssigneeID,
		DueDate:     input.DueDate,
		CreatedBy:   userID,
	}
	if err := s.db.Create(task).Error; err != nil {
		return nil, err
	}
	s.db.Preload("Assignee").First(task, task.ID)
	s.touchProject(projectID)

	if s.hub != nil {
		s.hub.BroadcastToProject(projectID, realtime.Event{
			Event:     realtime.EventTaskCreated,
			ProjectID: projectID,
			Data:      task,
		}, userID)
	}
	if task.AssigneeID != nil && s.queue != nil {
		s.queue.Enqueue(&NotificationJob{
			Kind:        JobTaskAssigned,
			ActorID:     userID,
			TaskID:      task.ID,
			RecipientID: *task.AssigneeID,
		})
	}
	return task, nil
}

// Update applies partial changes to a task. Any member may edit.
func (s *TaskService) Update(taskID, userID uint, input *UpdateTaskInput) (*models.Task, error) {
	task, project, err := s.loadTaskForUser(taskID, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	var fields []string
	oldStatus := task.Status
	newStatus := task.Status
	assigneeChanged := false

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" || len(title) > 200 {
			fields = append(fields, "title is required and must be at most 200 characters")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		if len(*input.Description) > 1000 {
			fields = append(fields, "description must be at most 1000 characters")
		}
		updates["description"] = *input.Description
	}
	if input.Status != nil {
		if !contains(models.TaskStatuses, *input.Status) {
			fields = append(fields, "status is invalid")
		}
		newStatus = *input.Status
		updates["status"] = *input.Status
	}
	if input.Priority != nil {
		if !contains(models.TaskPriorities, *input.Priority) {
			fields = append(fields, "priority is invalid")
		}
		updates["priority"] = *input.Priority
	}
	if input.ClearAssignee {
		updates["assignee_id"] = nil
	} else if input.AssigneeID != nil {
		if !project.HasAccess(*input.AssigneeID) {
			fields = append(fields, "assignee must be a project member")
		}
		if task.AssigneeID == nil || *task.AssigneeID != *input.AssigneeID {
			assigneeChanged = true
		}
		updates["assignee_id"] = *input.AssigneeID
	}
	if input.ClearDueDate {
		updates["due_date"] = nil
	} else if input.DueDate != nil {
		updates["due_date"] = *input.DueDate
	}
	if len(fields) > 0 {
		return nil, response.NewValidationError(fields)
	}

	if len(updates) > 0 {
		if err := s.db.Model(task).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	s.db.Preload("Assignee").First(task, task.ID)
	s.touchProject(task.ProjectID)

	if s.hub != nil {
		s.hub.BroadcastToProject(task.ProjectID, realtime.Event{
			Event:     realtime.EventTaskUpdated,
			ProjectID: task.ProjectID,
			Data:      task,
		}, userID)
	}
	if s.queue != nil {
		if assigneeChanged && task.AssigneeID != nil {
			s.queue.Enqueue(&NotificationJob{
				Kind:        JobTaskAssigned,
				ActorID:     userID,
				TaskID:      task.ID,
				RecipientID: *task.AssigneeID,
			})
		}
		if newStatus != oldStatus {
			s.queue.Enqueue(&NotificationJob{
				Kind:      JobTaskStatusChanged,
				ActorID:   userID,
				TaskID:    task.ID,
				OldStatus: oldStatus,
				NewStatus: newStatus,
			})
		}
	}
	return task, nil
}

// Toggle advances the task through the todo, in-progress, completed cycle.
func (s *TaskService) Toggle(taskID, userID uint) (*models.Task, error) {
	task, _, err := s.loadTaskForUser(taskID, userID)
	if err != nil {
		return nil, err
	}

	oldStatus := task.Status
	newStatus := task.NextStatus()
	if err := s.db.Model(task).Update("status", newStatus).Error; err != nil {
		return nil, err
	}
	task.Status = newStatus
	s.touchProject(task.ProjectID)

	if s.hub != nil {
		s.hub.BroadcastToProject(task.ProjectID, realtime.Event{
			Event:     realtime.EventTaskUpdated,
			ProjectID: task.ProjectID,
			Data:      task,
		}, userID)
	}
	if s.queue != nil {
		s.queue.Enqueue(&NotificationJob{
			Kind:      JobTaskStatusChanged,
			ActorID:   userID,
			TaskID:    task.ID,
			OldStatus: oldStatus,
			NewStatus: newStatus,
		})
	}
	return task, nil
}

// Delete removes the task and its comments. Any member may delete.
func (s *TaskService) Delete(taskID, userID uint) error {
	task, _, err := s.loadTaskForUser(taskID, userID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, taskID).Error
	})
	if err != nil {
		return err
	}
	s.touchProject(task.ProjectID)

	if s.hub != nil {
		s.hub.BroadcastToProject(task.ProjectID, realtime.Event{
			Event:     realtime.EventTaskDeleted,
			ProjectID: task.ProjectID,
			Data:      map[string]interface{}{"id": taskID},
		}, userID)
	}
	return nil
}

// FindDeadlineCandidates returns unfinished assigned tasks due within the
// window. The deadline scanner feeds these to the notification service.
func (s *TaskService) FindDeadlineCandidates(window time.Duration) ([]models.Task, error) {
	now := time.Now()
	var tasks []models.Task
	err := s.db.
		Where("due_date IS NOT NULL AND due_date > ? AND due_date < ?", now, now.Add(window)).
		Where("status <> ?", models.TaskStatusCompleted).
		Where("assignee_id IS NOT NULL").
		Find(&tasks).Error
	return tasks, err
}
