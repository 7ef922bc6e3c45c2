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

type InvitationService struct {
	db    *gorm.DB
	hub   *realtime.Hub
	queue TaskQueue
}

func NewInvitationService(db *gorm.DB, hub *realtime.Hub, queue TaskQueue) *InvitationService {
	return &InvitationService{db: db, hub: hub, queue: queue}
}

// SearchUsers finds users by username prefix who could be invited to the
// project: existing members are filtered out.
func (s *InvitationService) SearchUsers(projectID, userID uint, query string) ([]map[string]interface{}, error) {
	project, err := loadProjectForUser(s.db, projectID, userID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, response.NewBadRequest("search query must be at least 2 characters")
	}

	var users []models.User
	if err := s.db.Where("username LIKE ?", query+"%").
		Order("username ASC").
		Limit(10).
		Find(&users).Error; err != nil {
		return nil, err
	}

	results := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		if project.HasAccess(users[i].ID) {
			continue
		}
		results = append(results, users[i].PublicProfile())
	}
	return results, nil
}

// Create invites a user to a project. Only owners and admins may invite.
// Inviting a current member or re-inviting while a pending invitation
// exists is a conflict.
func (s *InvitationService) Create(projectID, actorID, invitedUserID uint) (*models.Invitation, error) {
	project, err := loadProjectForUser(s.db, projectID, actorID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwnerOrAdmin(actorID) {
		return nil, response.NewForbidden("only owners and admins can send invitations")
	}

	var invited models.User
	if err := s.db.First(&invited, invitedUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}

	if project.HasAccess(invitedUserID) {
		return nil, response.NewConflict("user is already a member")
	}

	var pending int64
	if err := s.db.Model(&models.Invitation{}).
		Where("project_id = ? AND invited_user_id = ? AND status = ?",
			projectID, invitedUserID, models.InvitationPending).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, response.NewConflict("user already has a pending invitation")
	}

	inv := &models.Invitation{
		ProjectID:     projectID,
		InvitedUserID: invitedUserID,
		InvitedBy:     actorID,
		Status:        models.InvitationPending,
	}
	if err := s.db.Create(inv).Error; err != nil {
		return nil, err
	}
	s.db.Preload("Project").Preload("InvitedUser").Preload("Inviter").First(inv, inv.ID)

	if s.queue != nil {
		s.queue.Enqueue(&NotificationJob{
			Kind:         JobInvitationCreated,
			ActorID:      actorID,
			InvitationID: inv.ID,
		})
	}
	return inv, nil
}

// ListMine returns the user's pending invitations.
func (s *InvitationService) ListMine(userID uint) ([]models.Invitation, error) {
	var invitations []models.Invitation
	err := s.db.Where("invited_user_id = ? AND status = ?", userID, models.InvitationPending).
		Preload("Project").
		Preload("Inviter").
		Order("created_at DESC").
		Find(&invitations).Error
	return invitations, err
}

// ListByProject returns a project's pending invitations for its managers.
func (s *InvitationService) ListByProject(projectID, userID uint) ([]models.Invitation, error) {
	project, err := loadProjectForUser(s.db, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwnerOrAdmin(userID) {
		return nil, response.NewForbidden("only owners and admins can view invitations")
	}

	var invitations []models.Invitation
	err = s.db.Where("project_id = ? AND status = ?", projectID, models.InvitationPending).
		Preload("InvitedUser").
		Preload("Inviter").
		Order("created_at DESC").
		Find(&invitations).Error
	return invitations, err
}

// Accept joins the invitee to the project. Only pending invitations can
// be accepted; a second accept conflicts. The membership check runs inside
// the transaction so concurrent accepts create exactly one member row.
func (s *InvitationService) Accept(invitationID, userID uint) (*models.Project, error) {
	var inv models.Invitation
	if err := s.db.First(&inv, invitationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("invitation not found")
		}
		return nil, err
	}
	if inv.InvitedUserID != userID {
		return nil, response.NewForbidden("this invitation is not addressed to you")
	}
	if inv.Status != models.InvitationPending {
		return nil, response.NewConflict("invitation was already processed")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// An accepted invitation from an earlier join would collide
		// with the unique index once this one flips to accepted.
		if err := tx.Where("project_id = ? AND invited_user_id = ? AND status = ? AND id <> ?",
			inv.ProjectID, userID, models.InvitationAccepted, inv.ID).
			Delete(&models.Invitation{}).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", inv.ProjectID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			member := &models.ProjectMember{
				ProjectID: inv.ProjectID,
				UserID:    userID,
				Role:      models.RoleMember,
				JoinedAt:  time.Now(),
			}
			if err := tx.Create(member).Error; err != nil {
				return err
			}
		}
		return tx.Model(&inv).Update("status", models.InvitationAccepted).Error
	})
	if err != nil {
		return nil, err
	}

	project, err := loadProjectForUser(s.db, inv.ProjectID, userID)
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastToProject(inv.ProjectID, realtime.Event{
			Event:     realtime.EventMemberJoined,
			ProjectID: inv.ProjectID,
			Data:      map[string]interface{}{"user_id": userID},
		}, userID)
	}
	if s.queue != nil {
		s.queue.Enqueue(&NotificationJob{
			Kind:      JobMemberJoined,
			ActorID:   userID,
			ProjectID: inv.ProjectID,
		})
	}
	return project, nil
}

// Decline marks the invitation declined. Declining twice is a no-op.
func (s *InvitationService) Decline(invitationID, userID uint) error {
	var inv models.Invitation
	if err := s.db.First(&inv, invitationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("invitation not found")
		}
		return err
	}
	if inv.InvitedUserID != userID {
		return response.NewForbidden("this invitation is not addressed to you")
	}
	if inv.Status == models.InvitationAccepted {
		return response.NewConflict("invitation was already accepted")
	}
	if inv.Status == models.InvitationDeclined {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Drop any earlier declined invitation so the unique index does
		// not reject this transition.
		if err := tx.Where("project_id = ? AND invited_user_id = ? AND status = ? AND id <> ?",
			inv.ProjectID, userID, models.InvitationDeclined, inv.ID).
			Delete(&models.Invitation{}).Error; err != nil {
			return err
		}
		return tx.Model(&inv).Update("status", models.InvitationDeclined).Error
	})
}

// Cancel withdraws a pending invitation. Only project owners and admins
// may cancel.
func (s *InvitationService) Cancel(invitationID, userID uint) error {
	var inv models.Invitation
	if err := s.db.First(&inv, invitationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("invitation not found")
		}
		return err
	}

	project, err := loadProjectForUser(s.db, inv.ProjectID, userID)
	if err != nil {
		return err
	}
	if !project.IsOwnerOrAdmin(userID) {
		return response.NewForbidden("only owners and admins can cancel invitations")
	}
	if inv.Status != models.InvitationPending {
		return response.NewConflict("only pending invitations can be cancelled")
	}
	return s.db.Delete(&inv).Error
}
