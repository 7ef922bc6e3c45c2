package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/questboard/questboard/internal/models"
	"github.com/questboard/questboard/internal/realtime"
	"github.com/questboard/questboard/pkg/logger"
	"github.com/questboard/questboard/pkg/response"
	"gorm.io/gorm"
)

var mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9_]+)`)

// NotificationService persists notifications and pushes them to connected
// recipients. It also implements the job processor wired into the task queue.
type NotificationService struct {
	db  *gorm.DB
	hub *realtime.Hub
}

func NewNotificationService(db *gorm.DB, hub *realtime.Hub) *NotificationService {
	return &NotificationService{db: db, hub: hub}
}

// Create persists a notification and pushes it to the recipient's open
// connections. The push is best-effort; the row is the source of truth.
func (s *NotificationService) Create(n *models.Notification) error {
	if err := s.db.Create(n).Error; err != nil {
		return err
	}

	if n.SenderID != nil {
		var sender models.User
		if err := s.db.First(&sender, *n.SenderID).Error; err == nil {
			n.Sender = &sender
		}
	}

	if s.hub != nil {
		s.hub.PublishToUser(n.RecipientID, realtime.Event{
			Event: realtime.EventNotification,
			Data:  n,
		})
	}
	return nil
}

// List returns the recipient's notifications, newest first.
func (s *NotificationService) List(userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := s.db.Where("recipient_id = ?", userID).
		Preload("Sender").
		Order("created_at DESC").
		Limit(limit)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification as read. Marking an already-read
// notification again is a no-op, not an error.
func (s *NotificationService) MarkRead(userID, notificationID uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.Where("id = ? AND recipient_id = ?", notificationID, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("notification not found")
		}
		return nil, err
	}

	if !n.Read {
		now := time.Now()
		n.Read = true
		n.ReadAt = &now
		if err := s.db.Model(&n).Updates(map[string]interface{}{"read": true, "read_at": now}).Error; err != nil {
			return nil, err
		}
	}
	return &n, nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	result := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": time.Now()})
	return result.RowsAffected, result.Error
}

// Delete removes one notification owned by the user.
func (s *NotificationService) Delete(userID, notificationID uint) error {
	result := s.db.Where("id = ? AND recipient_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("notification not found")
	}
	return nil
}

// PurgeRead deletes read notifications older than the cutoff. Returns the
// number of rows removed.
func (s *NotificationService) PurgeRead(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result := s.db.Where("read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

// ProcessJob is the task queue processor. It re-reads current state, so a
// job that raced with a membership or delete is simply dropped.
func (s *NotificationService) ProcessJob(ctx context.Context, job *NotificationJob) error {
	switch job.Kind {
	case JobCommentCreated:
		return s.processCommentCreated(job)
	case JobTaskAssigned:
		return s.processTaskAssigned(job)
	case JobTaskStatusChanged:
		return s.processTaskStatusChanged(job)
	case JobInvitationCreated:
		return s.processInvitationCreated(job)
	case JobMemberJoined:
		return s.processMemberJoined(job)
	default:
		logger.Warnf("[Notifications] unknown job kind: %s", job.Kind)
		return nil
	}
}

// processCommentCreated notifies every project member except the author.
// Members mentioned with @username get a mention notification on top of
// the generic comment one.
func (s *NotificationService) processCommentCreated(job *NotificationJob) error {
	var comment models.Comment
	if err := s.db.Preload("Author").First(&comment, job.CommentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	var task models.Task
	if err := s.db.First(&task, comment.TaskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	var members []models.ProjectMember
	if err := s.db.Where("project_id = ?", task.ProjectID).Preload("User").Find(&members).Error; err != nil {
		return err
	}

	mentioned := make(map[string]bool)
	for _, m := range mentionPattern.FindAllStringSubmatch(comment.Text, -1) {
		mentioned[m[1]] = true
	}

	authorName := ""
	if comment.Author != nil {
		authorName = comment.Author.Username
	}

	link := fmt.Sprintf("/projects/%d/tasks/%d", task.ProjectID, task.ID)
	for _, member := range members {
		if member.UserID == comment.CreatedBy {
			continue
		}

		n := &models.Notification{
			RecipientID: member.UserID,
			SenderID:    &comment.CreatedBy,
			Type:        models.NotificationTaskComment,
			Title:       "New comment",
			Message:     fmt.Sprintf("%s commented on \"%s\"", authorName, task.Title),
			Link:        link,
			ProjectID:   &task.ProjectID,
			TaskID:      &task.ID,
		}
		if err := s.Create(n); err != nil {
			logger.Errorf("[Notifications] comment fan-out failed for user %d: %v", member.UserID, err)
		}

		if member.User != nil && mentioned[member.User.Username] {
			m := &models.Notification{
				RecipientID: member.UserID,
				SenderID:    &comment.CreatedBy,
				Type:        models.NotificationTaskMention,
				Title:       "You were mentioned",
				Message:     fmt.Sprintf("%s mentioned you on \"%s\"", authorName, task.Title),
				Link:        link,
				ProjectID:   &task.ProjectID,
				TaskID:      &task.ID,
			}
			if err := s.Create(m); err != nil {
				logger.Errorf("[Notifications] mention fan-out failed for user %d: %v", member.UserID, err)
			}
		}
	}
	return nil
}

// processTaskAssigned notifies the assignee unless they assigned themselves.
func (s *NotificationService) processTaskAssigned(job *NotificationJob) error {
	if job.RecipientID == 0 || job.RecipientID == job.ActorID {
		return nil
	}

	var task models.Task
	if err := s.db.First(&task, job.TaskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	var actor models.User
	if err := s.db.First(&actor, job.ActorID).Error; err != nil {
		return err
	}

	return s.Create(&models.Notification{
		RecipientID: job.RecipientID,
		SenderID:    &job.ActorID,
		Type:        models.NotificationTaskAssigned,
		Title:       "Task assigned to you",
		Message:     fmt.Sprintf("%s assigned \"%s\" to you", actor.Username, task.Title),
		Link:        fmt.Sprintf("/projects/%d/tasks/%d", task.ProjectID, task.ID),
		ProjectID:   &task.ProjectID,
		TaskID:      &task.ID,
	})
}

// processTaskStatusChanged notifies the assignee when someone else moved
// their task.
func (s *NotificationService) processTaskStatusChanged(job *NotificationJob) error {
	var task models.Task
	if err := s.db.First(&task, job.TaskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if task.AssigneeID == nil || *task.AssigneeID == job.ActorID {
		return nil
	}

	var actor models.User
	if err := s.db.First(&actor, job.ActorID).Error; err != nil {
		return err
	}

	return s.Create(&models.Notification{
		RecipientID: *task.AssigneeID,
		SenderID:    &job.ActorID,
		Type:        models.NotificationTaskStatusChanged,
		Title:       "Task status changed",
		Message:     fmt.Sprintf("%s moved \"%s\" from %s to %s", actor.Username, task.Title, job.OldStatus, job.NewStatus),
		Link:        fmt.Sprintf("/projects/%d/tasks/%d", task.ProjectID, task.ID),
		ProjectID:   &task.ProjectID,
		TaskID:      &task.ID,
	})
}

// processInvitationCreated notifies the invited user.
func (s *NotificationService) processInvitationCreated(job *NotificationJob) error {
	var inv models.Invitation
	if err := s.db.Preload("Project").Preload("Inviter").First(&inv, job.InvitationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if inv.Status != models.InvitationPending || inv.Project == nil || inv.Inviter == nil {
		return nil
	}

	return s.Create(&models.Notification{
		RecipientID: inv.InvitedUserID,
		SenderID:    &inv.InvitedBy,
		Type:        models.NotificationProjectInvite,
		Title:       "Project invitation",
		Message:     fmt.Sprintf("%s invited you to join \"%s\"", inv.Inviter.Username, inv.Project.Title),
		Link:        "/invitations",
		ProjectID:   &inv.ProjectID,
	})
}

// processMemberJoined notifies existing members that someone joined.
func (s *NotificationService) processMemberJoined(job *NotificationJob) error {
	var project models.Project
	if err := s.db.Preload("Members").First(&project, job.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	var joined models.User
	if err := s.db.First(&joined, job.ActorID).Error; err != nil {
		return err
	}

	for _, member := range project.Members {
		if member.UserID == job.ActorID {
			continue
		}
		n := &models.Notification{
			RecipientID: member.UserID,
			SenderID:    &job.ActorID,
			Type:        models.NotificationTeamMemberJoined,
			Title:       "New team member",
			Message:     fmt.Sprintf("%s joined \"%s\"", joined.Username, project.Title),
			Link:        fmt.Sprintf("/projects/%d", project.ID),
			ProjectID:   &project.ID,
		}
		if err := s.Create(n); err != nil {
			logger.Errorf("[Notifications] member-joined fan-out failed for user %d: %v", member.UserID, err)
		}
	}
	return nil
}

// NotifyDeadline creates a deadline reminder for a task's assignee, skipping
// tasks already reminded within the window.
func (s *NotificationService) NotifyDeadline(task *models.Task, window time.Duration) error {
	if task.AssigneeID == nil || task.DueDate == nil {
		return nil
	}

	var count int64
	since := time.Now().Add(-window)
	if err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND task_id = ? AND type = ? AND created_at > ?",
			*task.AssigneeID, task.ID, models.NotificationDeadlineApproaching, since).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return s.Create(&models.Notification{
		RecipientID: *task.AssigneeID,
		Type:        models.NotificationDeadlineApproaching,
		Title:       "Deadline approaching",
		Message:     fmt.Sprintf("\"%s\" is due %s", task.Title, task.DueDate.Format("Jan 2 15:04")),
		Link:        fmt.Sprintf("/projects/%d/tasks/%d", task.ProjectID, task.ID),
		ProjectID:   &task.ProjectID,
		TaskID:      &task.ID,
	})
}
