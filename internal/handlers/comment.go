package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/questboard/questboard/internal/middleware"
	"github.com/questboard/questboard/internal/services"
	"github.com/questboard/questboard/pkg/response"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

type commentRequest struct {
	Text string `json:"text"`
}

// List returns a task's comments
// GET /api/tasks/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	comments, err := h.commentService.ListByTask(taskID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, comments)
}

// Create adds a comment to a task
// POST /api/tasks/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.Create(taskID, middleware.GetUserID(c), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, comment)
}

// Update edits a comment's text
// PUT /api/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.Update(id, middleware.GetUserID(c), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, comment)
}

// Delete removes a comment
// DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.Delete(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "comment deleted"})
}
