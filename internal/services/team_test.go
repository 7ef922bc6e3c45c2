package services

import (
	"net/http"
	"testing"

	"github.com/questboard/questboard/internal/models"
)

func TestTeamRemove_OwnerProtected(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	project := createTestProject(t, db, steve)
	addTestMember(t, db, project, alex, models.RoleAdmin)

	if err := svc.Remove(project.ID, alex.ID, steve.ID); appStatus(t, err) != http.StatusForbidden {
		t.Error("the owner must never be removable")
	}
}

func TestTeamRemove_AdminCannotRemoveAdmin(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	casey := createTestUser(t, db, "casey")
	project := createTestProject(t, db, steve)
	addTestMember(t, db, project, alex, models.RoleAdmin)
	addTestMember(t, db, project, casey, models.RoleAdmin)

	if err := svc.Remove(project.ID, alex.ID, casey.ID); appStatus(t, err) != http.StatusForbidden {
		t.Error("only the owner may remove an admin")
	}
	if err := svc.Remove(project.ID, steve.ID, casey.ID); err != nil {
		t.Fatalf("owner removing an admin failed: %v", err)
	}
}

func TestTeamRemove_UnassignsTasks(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	project := createTestProject(t, db, steve)
	addTestMember(t, db, project, alex, models.RoleMember)
	task := createTestTask(t, db, project, steve)
	db.Model(task).Update("assignee_id", alex.ID)

	if err := svc.Remove(project.ID, steve.ID, alex.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	var reloaded models.Task
	db.First(&reloaded, task.ID)
	if reloaded.AssigneeID != nil {
		t.Error("removed member's tasks should become unassigned")
	}
}

func TestTeamLeave(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	project := createTestProject(t, db, steve)
	addTestMember(t, db, project, alex, models.RoleMember)

	if err := svc.Leave(project.ID, steve.ID); appStatus(t, err) != http.StatusForbidden {
		t.Error("the owner cannot leave the project")
	}
	if err := svc.Leave(project.ID, alex.ID); err != nil {
		t.Fatalf("member leave failed: %v", err)
	}

	var memberships int64
	db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, alex.ID).
		Count(&memberships)
	if memberships != 0 {
		t.Errorf("memberships = %d, expected 0", memberships)
	}
}

func TestTeamUpdateRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	project := createTestProject(t, db, steve)
	addTestMember(t, db, project, alex, models.RoleMember)

	member, err := svc.UpdateRole(project.ID, steve.ID, alex.ID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}
	if member.Role != models.RoleAdmin {
		t.Errorf("role = %q, expected admin", member.Role)
	}
}

func TestTeamUpdateRole_Restrictions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	casey := createTestUser(t, db, "casey")
	project := createTestProject(t, db, steve)
	addTestMember(t, db, project, alex, models.RoleAdmin)
	addTestMember(t, db, project, casey, models.RoleAdmin)

	// owner role is immutable
	if _, err := svc.UpdateRole(project.ID, alex.ID, steve.ID, models.RoleMember); appStatus(t, err) != http.StatusForbidden {
		t.Error("the owner's role must not be changeable")
	}
	// role must be admin or member
	if _, err := svc.UpdateRole(project.ID, steve.ID, alex.ID, models.RoleOwner); appStatus(t, err) != http.StatusBadRequest {
		t.Error("promoting to owner must be rejected")
	}
	// admin cannot demote another admin
	if _, err := svc.UpdateRole(project.ID, alex.ID, casey.ID, models.RoleMember); appStatus(t, err) != http.StatusForbidden {
		t.Error("only the owner may change an admin's role")
	}
	// unknown member
	if _, err := svc.UpdateRole(project.ID, steve.ID, 9999, models.RoleMember); appStatus(t, err) != http.StatusNotFound {
		t.Error("unknown member should be not found")
	}
}
