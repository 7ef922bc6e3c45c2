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

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// loadProjectForUser loads a project with its members and enforces that
// userID is one of them. Nonexistent projects yield 404; existing projects
// the user is not a member of yield 403.
func loadProjectForUser(db *gorm.DB, projectID, userID uint) (*models.Project, error) {
	var project models.Project
	if err := db.Preload("Members.User").First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	if !project.HasAccess(userID) {
		return nil, response.NewForbidden("not a member of this project")
	}
	return &project, nil
}

type ProjectService struct {
	db    *gorm.DB
	hub   *realtime.Hub
	queue TaskQueue
}

func NewProjectService(db *gorm.DB, hub *realtime.Hub, queue TaskQueue) *ProjectService {
	return &ProjectService{db: db, hub: hub, queue: queue}
}

type CreateProjectInput struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Game              string `json:"game"`
	Category          string `json:"category"`
	Priority          string `json:"priority"`
	EstimatedDuration string `json:"estimated_duration"`
}

type UpdateProjectInput struct {
	Title             *string `json:"title"`
	Description       *string `json:"description"`
	Game              *string `json:"game"`
	Category          *string `json:"category"`
	Priority          *string `json:"priority"`
	EstimatedDuration *string `json:"estimated_duration"`
	Status            *string `json:"status"`
}

// ProjectSummary is a project with its task progress counts, as shown on
// the board listing.
type ProjectSummary struct {
	models.Project
	TaskCount      int64 `json:"task_count"`
	CompletedTasks int64 `json:"completed_tasks"`
}

func (input *CreateProjectInput) validate() error {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Game = strings.TrimSpace(input.Game)
	if input.Category == "" {
		input.Category = "other"
	}
	if input.Priority == "" {
		input.Priority = "medium"
	}
	if input.EstimatedDuration == "" {
		input.EstimatedDuration = "1-week"
	}

	var fields []string
	if input.Title == "" || len(input.Title) > 100 {
		fields = append(fields, "title is required and must be at most 100 characters")
	}
	if input.Description == "" || len(input.Description) > 1000 {
		fields = append(fields, "description is required and must be at most 1000 characters")
	}
	if input.Game == "" || len(input.Game) > 100 {
		fields = append(fields, "game is required and must be at most 100 characters")
	}
	if !contains(models.ProjectCategories, input.Category) {
		fields = append(fields, "category is invalid")
	}
	if !contains(models.ProjectPriorities, input.Priority) {
		fields = append(fields, "priority is invalid")
	}
	if !contains(models.ProjectDurations, input.EstimatedDuration) {
		fields = append(fields, "estimated duration is invalid")
	}
	if len(fields) > 0 {
		return response.NewValidationError(fields)
	}
	return nil
}

// List returns every project the user is a member of, most recently
// updated first, with task progress counts.
func (s *ProjectService) List(userID uint) ([]ProjectSummary, error) {
	var projects []models.Project
	err := s.db.
		Joins("JOIN project_members ON project_members.project_id = projects.id AND project_members.user_id = ?", userID).
		Preload("Members.User").
		Order("projects.updated_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		var total, completed int64
		if err := s.db.Model(&models.Task{}).Where("project_id = ?", p.ID).Count(&total).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.Task{}).
			Where("project_id = ? AND status = ?", p.ID, models.TaskStatusCompleted).
			Count(&completed).Error; err != nil {
			return nil, err
		}
		summaries = append(summaries, ProjectSummary{Project: p, TaskCount: total, CompletedTasks: completed})
	}
	return summaries, nil
}

// Get returns one project the user is a member of.
func (s *ProjectService) Get(projectID, userID uint) (*models.Project, error) {
	return loadProjectForUser(s.db, projectID, userID)
}

// Create makes a new project with the creator as its owner. The project and
// the owner membership are written in one transaction.
func (s *ProjectService) Create(userID uint, input *CreateProjectInput) (*models.Project, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	project := &models.Project{
		Title:             input.Title,
		Description:       input.Description,
		Game:              input.Game,
		Category:          input.Category,
		Priority:          input.Priority,
		EstimatedDuration: input.EstimatedDuration,
		Status:            "active",
		CreatedBy:         userID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		member := &models.ProjectMember{
			ProjectID: project.ID,
			UserID:    userID,
			Role:      models.RoleOwner,
			JoinedAt:  time.Now(),
		}
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, err
	}

	return loadProjectForUser(s.db, project.ID, userID)
}

// Update applies partial changes. Only owners and admins may update.
func (s *ProjectService) Update(projectID, userID uint, input *UpdateProjectInput) (*models.Project, error) {
	project, err := loadProjectForUser(s.db, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwnerOrAdmin(userID) {
		return nil, response.NewForbidden("only owners and admins can update the project")
	}

	updates := map[string]interface{}{}
	var fields []string
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" || len(title) > 100 {
			fields = append(fields, "title is required and must be at most 100 characters")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc == "" || len(desc) > 1000 {
			fields = append(fields, "description is required and must be at most 1000 characters")
		}
		updates["description"] = desc
	}
	if input.Game != nil {
		game := strings.TrimSpace(*input.Game)
		if game == "" || len(game) > 100 {
			fields = append(fields, "game is required and must be at most 100 characters")
		}
		updates["game"] = game
	}
	if input.Category != nil {
		if !contains(models.ProjectCategories, *input.Category) {
			fields = append(fields, "category is invalid")
		}
		updates["category"] = *input.Category
	}
	if input.Priority != nil {
		if !contains(models.ProjectPriorities, *input.Priority) {
			fields = append(fields, "priority is invalid")
		}
		updates["priority"] = *input.Priority
	}
	if input.EstimatedDuration != nil {
		if !contains(models.ProjectDurations, *input.EstimatedDuration) {
			fields = append(fields, "estimated duration is invalid")
		}
		updates["estimated_duration"] = *input.EstimatedDuration
	}
	if input.Status != nil {
		if !contains(models.ProjectStatuses, *input.Status) {
			fields = append(fields, "status is invalid")
		}
		updates["status"] = *input.Status
	}
	if len(fields) > 0 {
		return nil, response.NewValidationError(fields)
	}

	if len(updates) > 0 {
		if err := s.db.Model(project).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	project, err = loadProjectForUser(s.db, projectID, userID)
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastToProject(projectID, realtime.Event{
			Event:     realtime.EventProjectUpdated,
			ProjectID: projectID,
			Data:      project,
		}, userID)
	}
	return project, nil
}

// Delete removes a project and everything under it. Only the owner may
// delete; all dependent rows go in one transaction.
func (s *ProjectService) Delete(projectID, userID uint) error {
	project, err := loadProjectForUser(s.db, projectID, userID)
	if err != nil {
		return err
	}
	if project.UserRole(userID) != models.RoleOwner {
		return response.NewForbidden("only the owner can delete the project")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint
		if err := tx.Model(&models.Task{}).Where("project_id = ?", projectID).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Invitation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, projectID).Error
	})
}

// HasAccess reports whether the user is a member of the project. The
// realtime hub uses it to authorize room joins.
func (s *ProjectService) HasAccess(userID, projectID uint) bool {
	var count int64
	if err := s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}
