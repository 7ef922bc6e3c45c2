package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/questboard/questboard/internal/middleware"
	"github.com/questboard/questboard/internal/services"
	"github.com/questboard/questboard/pkg/response"
)

type InvitationHandler struct {
	invitationService *services.InvitationService
}

func NewInvitationHandler(invitationService *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

// SearchUsers finds invitable users by username prefix
// GET /api/projects/:id/invitations/search?q=...
func (h *InvitationHandler) SearchUsers(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	users, err := h.invitationService.SearchUsers(projectID, middleware.GetUserID(c), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, users)
}

// Create invites a user to a project
// POST /api/projects/:id/invitations
func (h *InvitationHandler) Create(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		InvitedUserID uint `json:"invited_user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.InvitedUserID == 0 {
		response.BadRequest(c, "invited_user_id is required")
		return
	}

	inv, err := h.invitationService.Create(projectID, middleware.GetUserID(c), req.InvitedUserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, inv)
}

// ListMine returns the caller's pending invitations
// GET /api/invitations
func (h *InvitationHandler) ListMine(c *gin.Context) {
	invitations, err := h.invitationService.ListMine(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, invitations)
}

// ListByProject returns a project's pending invitations
// GET /api/projects/:id/invitations
func (h *InvitationHandler) ListByProject(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListByProject(projectID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, invitations)
}

// Accept joins the caller to the inviting project
// POST /api/invitations/:id/accept
func (h *InvitationHandler) Accept(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.invitationService.Accept(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Decline marks the invitation declined
// POST /api/invitations/:id/decline
func (h *InvitationHandler) Decline(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.invitationService.Decline(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "invitation declined"})
}

// Cancel withdraws a pending invitation
// DELETE /api/invitations/:id
func (h *InvitationHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.invitationService.Cancel(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "invitation cancelled"})
}
