package main

import (
	"github.com/questboard/questboard/internal/config"
	"github.com/questboard/questboard/internal/handlers"
	"github.com/questboard/questboard/internal/models"
	"github.com/questboard/questboard/internal/realtime"
	"github.com/questboard/questboard/internal/services"
	"github.com/questboard/questboard/internal/utils"
	"github.com/questboard/questboard/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	hub       *realtime.Hub
	taskQueue services.TaskQueue
	worker    *services.Worker
	scheduler *services.Scheduler

	authHandler         *handlers.AuthHandler
	userHandler         *handlers.UserHandler
	projectHandler      *handlers.ProjectHandler
	taskHandler         *handlers.TaskHandler
	commentHandler      *handlers.CommentHandler
	teamHandler         *handlers.TeamHandler
	invitationHandler   *handlers.InvitationHandler
	notificationHandler *handlers.NotificationHandler
	wsHandler           *handlers.WSHandler
	healthHandler       *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, realtime hub,
// task queue, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	// The hub re-checks membership on every room join, so a revoked member
	// cannot rejoin a project room with a stale connection.
	projectService := services.NewProjectService(db, nil, nil)
	hub := realtime.NewHub(projectService.HasAccess)

	taskQueue := services.NewTaskQueue(cfg)
	notificationService := services.NewNotificationService(db, hub)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notificationService.ProcessJob)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notificationService.ProcessJob)
			worker.Start()
		}
	}

	projectService = services.NewProjectService(db, hub, taskQueue)
	taskService := services.NewTaskService(db, hub, taskQueue)
	commentService := services.NewCommentService(db, hub, taskQueue)
	teamService := services.NewTeamService(db, hub)
	invitationService := services.NewInvitationService(db, hub, taskQueue)
	authService := services.NewAuthService(db, &cfg.JWT)
	userService := services.NewUserService(db)

	scheduler := services.NewScheduler(taskService, notificationService)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	return &appServices{
		hub:       hub,
		taskQueue: taskQueue,
		worker:    worker,
		scheduler: scheduler,

		authHandler:         handlers.NewAuthHandler(authService),
		userHandler:         handlers.NewUserHandler(userService),
		projectHandler:      handlers.NewProjectHandler(projectService),
		taskHandler:         handlers.NewTaskHandler(taskService),
		commentHandler:      handlers.NewCommentHandler(commentService),
		teamHandler:         handlers.NewTeamHandler(teamService),
		invitationHandler:   handlers.NewInvitationHandler(invitationService),
		notificationHandler: handlers.NewNotificationHandler(notificationService),
		wsHandler:           handlers.NewWSHandler(db, hub),
		healthHandler:       handlers.NewHealthHandler(db),
	}
}

// shutdown gracefully stops all background services.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("All background services stopped")
}
