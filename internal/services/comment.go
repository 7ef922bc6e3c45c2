package services

import (
	"errors"
	"strings"

	"github.com/questboard/questboard/internal/models"
	"github.com/questboard/questboard/internal/realtime"
	"github.com/questboard/questboard/pkg/response"
	"gorm.io/gorm"
)

type CommentService struct {
	db    *gorm.DB
	hub   *realtime.Hub
	queue TaskQueue
}

func NewCommentService(db *gorm.DB, hub *realtime.Hub, queue TaskQueue) *CommentService {
	return &CommentService{db: db, hub: hub, queue: queue}
}

// loadCommentForUser loads a comment plus its task, enforcing project
// membership through the task.
func (s *CommentService) loadCommentForUser(commentID, userID uint) (*models.Comment, *models.Task, error) {
	var comment models.Comment
	if err := s.db.Preload("Author").First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, response.NewNotFound("comment not found")
		}
		return nil, nil, err
	}

	var task models.Task
	if err := s.db.First(&task, comment.TaskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, response.NewNotFound("task not found")
		}
		return nil, nil, err
	}
	if _, err := loadProjectForUser(s.db, task.ProjectID, userID); err != nil {
		return nil, nil, err
	}
	return &comment, &task, nil
}

// ListByTask returns a task's comments oldest first.
func (s *CommentService) ListByTask(taskID, userID uint) ([]models.Comment, error) {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("task not found")
		}
		return nil, err
	}
	if _, err := loadProjectForUser(s.db, task.ProjectID, userID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	err := s.db.Where("task_id = ?", taskID).
		Preload("Author").
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// Create adds a comment to a task and fans out notifications off the
// request path.
func (s *CommentService) Create(taskID, userID uint, text string) (*models.Comment, error) {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("task not found")
		}
		return nil, err
	}
	if _, err := loadProjectForUser(s.db, task.ProjectID, userID); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" || len(text) > models.MaxCommentLength {
		return nil, response.NewBadRequest("comment text is required and must be at most 1000 characters")
	}

	comment := &models.Comment{
		Text:      text,
		TaskID:    taskID,
		CreatedBy: userID,
	}
	if err := s.db.Create(comment).Error; err != nil {
		return nil, err
	}
	s.db.Preload("Author").First(comment, comment.ID)

	if s.hub != nil {
		s.hub.BroadcastToProject(task.ProjectID, realtime.Event{
			Event:     realtime.EventCommentCreated,
			ProjectID: task.ProjectID,
			Data:      comment,
		}, userID)
	}
	if s.queue != nil {
		s.queue.Enqueue(&NotificationJob{
			Kind:      JobCommentCreated,
			ActorID:   userID,
			CommentID: comment.ID,
		})
	}
	return comment, nil
}

// Update edits a comment's text. Only the author may edit.
func (s *CommentService) Update(commentID, userID uint, text string) (*models.Comment, error) {
	comment, task, err := s.loadCommentForUser(commentID, userID)
	if err != nil {
		return nil, err
	}
	if comment.CreatedBy != userID {
		return nil, response.NewForbidden("only the author can edit a comment")
	}

	text = strings.TrimSpace(text)
	if text == "" || len(text) > models.MaxCommentLength {
		return nil, response.NewBadRequest("comment text is required and must be at most 1000 characters")
	}

	if err := s.db.Model(comment).Update("text", text).Error; err != nil {
		return nil, err
	}
	comment.Text = text

	if s.hub != nil {
		s.hub.BroadcastToProject(task.ProjectID, realtime.Event{
			Event:     realtime.EventCommentUpdated,
			ProjectID: task.ProjectID,
			Data:      comment,
		}, userID)
	}
	return comment, nil
}

// Delete removes a comment. Only the author may delete.
func (s *CommentService) Delete(commentID, userID uint) error {
	comment, task, err := s.loadCommentForUser(commentID, userID)
	if err != nil {
		return err
	}
	if comment.CreatedBy != userID {
		return response.NewForbidden("only the author can delete a comment")
	}

	if err := s.db.Delete(&models.Comment{}, commentID).Error; err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.BroadcastToProject(task.ProjectID, realtime.Event{
			Event:     realtime.EventCommentDeleted,
			ProjectID: task.ProjectID,
			Data:      map[string]interface{}{"id": commentID, "task_id": task.ID},
		}, userID)
	}
	return nil
}
