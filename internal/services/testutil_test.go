package services

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/questboard/questboard/internal/models"
	"github.com/questboard/questboard/pkg/response"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Invitation{},
		&models.Task{},
		&models.Comment{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "hashed",
		DisplayName: username,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func createTestProject(t *testing.T, db *gorm.DB, owner *models.User) *models.Project {
	t.Helper()

	project := &models.Project{
		Title:             "Castle Build",
		Description:       "Build the mountain castle",
		Game:              "Minecraft",
		Category:          "building",
		Priority:          "medium",
		EstimatedDuration: "1-week",
		Status:            "active",
		CreatedBy:         owner.ID,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	member := &models.ProjectMember{
		ProjectID: project.ID,
		UserID:    owner.ID,
		Role:      models.RoleOwner,
		JoinedAt:  time.Now(),
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create owner membership: %v", err)
	}
	return project
}

func addTestMember(t *testing.T, db *gorm.DB, project *models.Project, user *models.User, role string) {
	t.Helper()

	member := &models.ProjectMember{
		ProjectID: project.ID,
		UserID:    user.ID,
		Role:      role,
		JoinedAt:  time.Now(),
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
}

func createTestTask(t *testing.T, db *gorm.DB, project *models.Project, creator *models.User) *models.Task {
	t.Helper()

	task := &models.Task{
		Title:     "Gather cobblestone",
		Status:    models.TaskStatusTodo,
		Priority:  "medium",
		ProjectID: project.ID,
		CreatedBy: creator.ID,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	return task
}

// appStatus asserts err is an application error and returns its HTTP status.
func appStatus(t *testing.T, err error) int {
	t.Helper()

	if err == nil {
		t.Fatal("expected an error")
	}
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected an app error, got %T: %v", err, err)
	}
	return appErr.HTTPStatus
}
