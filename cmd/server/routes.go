package main

import (
	"github.com/gin-gonic/gin"
	"github.com/questboard/questboard/internal/config"
	"github.com/questboard/questboard/internal/middleware"
	"github.com/questboard/questboard/internal/models"
	"github.com/questboard/questboard/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(&cfg.CORS))

	// Rate limiter for credential endpoints
	authLimiter := middleware.NewRateLimiter(5, 10)

	api := r.Group("/api")
	{
		api.GET("/health", svc.healthHandler.Check)

		// Auth routes (public)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
		}

		// Websocket endpoint (token authenticated before upgrade)
		api.GET("/ws", svc.wsHandler.Serve)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(models.GetDB()))
		{
			protected.GET("/auth/me", svc.authHandler.Me)

			// Users
			protected.GET("/users/:id", svc.userHandler.GetProfile)
			protected.PUT("/users/profile", svc.userHandler.UpdateProfile)
			protected.PUT("/users/password", svc.userHandler.ChangePassword)

			// Projects
			protected.GET("/projects", svc.projectHandler.List)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)

			// Tasks
			protected.GET("/projects/:id/tasks", svc.taskHandler.List)
			protected.POST("/projects/:id/tasks", svc.taskHandler.Create)
			protected.PUT("/tasks/:id", svc.taskHandler.Update)
			protected.PATCH("/tasks/:id/toggle", svc.taskHandler.Toggle)
			protected.DELETE("/tasks/:id", svc.taskHandler.Delete)

			// Comments
			protected.GET("/tasks/:id/comments", svc.commentHandler.List)
			protected.POST("/tasks/:id/comments", svc.commentHandler.Create)
			protected.PUT("/comments/:id", svc.commentHandler.Update)
			protected.DELETE("/comments/:id", svc.commentHandler.Delete)

			// Team
			protected.GET("/projects/:id/members", svc.teamHandler.Members)
			protected.PUT("/projects/:id/members/:userId/role", svc.teamHandler.UpdateRole)
			protected.DELETE("/projects/:id/members/:userId", svc.teamHandler.Remove)
			protected.POST("/projects/:id/leave", svc.teamHandler.Leave)

			// Invitations
			protected.GET("/projects/:id/invitations", svc.invitationHandler.ListByProject)
			protected.POST("/projects/:id/invitations", svc.invitationHandler.Create)
			protected.GET("/projects/:id/invitations/search", svc.invitationHandler.SearchUsers)
			protected.GET("/invitations", svc.invitationHandler.ListMine)
			protected.POST("/invitations/:id/accept", svc.invitationHandler.Accept)
			protected.POST("/invitations/:id/decline", svc.invitationHandler.Decline)
			protected.DELETE("/invitations/:id", svc.invitationHandler.Cancel)

			// Notifications
			protected.GET("/notifications", svc.notificationHandler.List)
			protected.GET("/notifications/unread-count", svc.notificationHandler.UnreadCount)
			protected.PATCH("/notifications/read-all", svc.notificationHandler.MarkAllRead)
			protected.PATCH("/notifications/:id/read", svc.notificationHandler.MarkRead)
			protected.DELETE("/notifications/:id", svc.notificationHandler.Delete)
		}
	}
}
