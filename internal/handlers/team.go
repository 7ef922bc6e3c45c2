package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/questboard/questboard/internal/middleware"
	"github.com/questboard/questboard/internal/services"
	"github.com/questboard/questboard/pkg/response"
)

type TeamHandler struct {
	teamService *services.TeamService
}

func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// Members returns the project's member list
// GET /api/projects/:id/members
func (h *TeamHandler) Members(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	members, err := h.teamService.Members(projectID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, members)
}

// UpdateRole changes a member's role
// PUT /api/projects/:id/members/:userId/role
func (h *TeamHandler) UpdateRole(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.teamService.UpdateRole(projectID, middleware.GetUserID(c), targetID, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, member)
}

// Remove kicks a member from the project
// DELETE /api/projects/:id/members/:userId
func (h *TeamHandler) Remove(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	if err := h.teamService.Remove(projectID, middleware.GetUserID(c), targetID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "member removed"})
}

// Leave removes the caller's own membership
// POST /api/projects/:id/leave
func (h *TeamHandler) Leave(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.teamService.Leave(projectID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "left project"})
}
