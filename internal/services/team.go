package services

import (
	"github.com/questboard/questboard/internal/models"
	"github.com/questboard/questboard/internal/realtime"
	"github.com/questboard/questboard/pkg/response"
	"gorm.io/gorm"
)

type TeamService struct {
	db  *gorm.DB
	hub *realtime.Hub
}

func NewTeamService(db *gorm.DB, hub *realtime.Hub) *TeamService {
	return &TeamService{db: db, hub: hub}
}

// Members returns the project's member list with user profiles.
func (s *TeamService) Members(projectID, userID uint) ([]models.ProjectMember, error) {
	project, err := loadProjectForUser(s.db, projectID, userID)
	if err != nil {
		return nil, err
	}
	return project.Members, nil
}

// UpdateRole changes a member's role between admin and member. The owner
// role is assigned at project creation and never reassigned here. Admins
// may manage plain members; only the owner may touch another admin.
func (s *TeamService) UpdateRole(projectID, actorID, targetUserID uint, role string) (*models.ProjectMember, error) {
	project, err := loadProjectForUser(s.db, projectID, actorID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwnerOrAdmin(actorID) {
		return nil, response.NewForbidden("only owners and admins can change roles")
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, response.NewBadRequest("role must be admin or member")
	}

	targetRole := project.UserRole(targetUserID)
	if targetRole == "" {
		return nil, response.NewNotFound("member not found")
	}
	if targetRole == models.RoleOwner {
		return nil, response.NewForbidden("the owner's role cannot be changed")
	}
	if targetRole == models.RoleAdmin && project.UserRole(actorID) != models.RoleOwner {
		return nil, response.NewForbidden("only the owner can change an admin's role")
	}

	var member models.ProjectMember
	if err := s.db.Where("project_id = ? AND user_id = ?", projectID, targetUserID).First(&member).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&member).Update("role", role).Error; err != nil {
		return nil, err
	}
	member.Role = role
	s.db.Preload("User").First(&member, member.ID)
	return &member, nil
}

// Remove kicks a member from the project. The owner cannot be removed, and
// only the owner may remove an admin.
func (s *TeamService) Remove(projectID, actorID, targetUserID uint) error {
	project, err := loadProjectForUser(s.db, projectID, actorID)
	if err != nil {
		return err
	}
	if !project.IsOwnerOrAdmin(actorID) {
		return response.NewForbidden("only owners and admins can remove members")
	}

	targetRole := project.UserRole(targetUserID)
	if targetRole == "" {
		return response.NewNotFound("member not found")
	}
	if targetRole == models.RoleOwner {
		return response.NewForbidden("the owner cannot be removed")
	}
	if targetRole == models.RoleAdmin && project.UserRole(actorID) != models.RoleOwner {
		return response.NewForbidden("only the owner can remove an admin")
	}

	if err := s.removeMembership(projectID, targetUserID); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.BroadcastToProject(projectID, realtime.Event{
			Event:     realtime.EventMemberLeft,
			ProjectID: projectID,
			Data:      map[string]interface{}{"user_id": targetUserID},
		}, actorID)
	}
	return nil
}

// Leave removes the caller's own membership. Owners cannot leave; they
// delete the project instead.
func (s *TeamService) Leave(projectID, userID uint) error {
	project, err := loadProjectForUser(s.db, projectID, userID)
	if err != nil {
		return err
	}
	if project.UserRole(userID) == models.RoleOwner {
		return response.NewForbidden("the owner cannot leave the project")
	}

	if err := s.removeMembership(projectID, userID); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.BroadcastToProject(projectID, realtime.Event{
			Event:     realtime.EventMemberLeft,
			ProjectID: projectID,
			Data:      map[string]interface{}{"user_id": userID},
		}, userID)
	}
	return nil
}

// removeMembership drops the membership row and unassigns the user from the
// project's tasks in one transaction.
func (s *TeamService) removeMembership(projectID, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).
			Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Task{}).
			Where("project_id = ? AND assignee_id = ?", projectID, userID).
			Update("assignee_id", nil).Error
	})
}
