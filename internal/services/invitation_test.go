package services

import (
	"net/http"
	"testing"

	"github.com/questboard/questboard/internal/models"
)

func TestInvitationCreate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInvitationService(db, nil, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	project := createTestProject(t, db, steve)

	inv, err := svc.Create(project.ID, steve.ID, alex.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if inv.Status != models.InvitationPending {
		t.Errorf("status = %q, expected pending", inv.Status)
	}
}

func TestInvitationCreate_RequiresOwnerOrAdmin(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInvitationService(db, nil, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	casey := createTestUser(t, db, "casey")
	project := createTestProject(t, db, steve)
	addTestMember(t, db, project, alex, models.RoleMember)

	_, err := svc.Create(project.ID, alex.ID, casey.ID)
	if status := appStatus(t, err); status != http.StatusForbidden {
		t.Errorf("status = %d, expected %d", status, http.StatusForbidden)
	}
}

func TestInvitationCreate_Conflicts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInvitationService(db, nil, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	project := createTestProject(t, db, steve)

	// inviting a current member
	addTestMember(t, db, project, alex, models.RoleMember)
	if _, err := svc.Create(project.ID, steve.ID, alex.ID); appStatus(t, err) != http.StatusConflict {
		t.Error("inviting a member should conflict")
	}

	// double pending invitation
	casey := createTestUser(t, db, "casey")
	if _, err := svc.Create(project.ID, steve.ID, casey.ID); err != nil {
		t.Fatalf("first invite failed: %v", err)
	}
	if _, err := svc.Create(project.ID, steve.ID, casey.ID); appStatus(t, err) != http.StatusConflict {
		t.Error("second pending invite should conflict")
	}

	// unknown user
	if _, err := svc.Create(project.ID, steve.ID, 9999); appStatus(t, err) != http.StatusNotFound {
		t.Error("inviting an unknown user should be not found")
	}
}

func TestInvitationAccept(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInvitationService(db, nil, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	project := createTestProject(t, db, steve)

	inv, _ := svc.Create(project.ID, steve.ID, alex.ID)

	joined, err := svc.Accept(inv.ID, alex.ID)
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if joined.UserRole(alex.ID) != models.RoleMember {
		t.Errorf("joined role = %q, expected member", joined.UserRole(alex.ID))
	}
}

func TestInvitationAccept_SecondAcceptConflicts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInvitationService(db, nil, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	project := createTestProject(t, db, steve)

	inv, _ := svc.Create(project.ID, steve.ID, alex.ID)
	if _, err := svc.Accept(inv.ID, alex.ID); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}
	if _, err := svc.Accept(inv.ID, alex.ID); appStatus(t, err) != http.StatusConflict {
		t.Error("second accept should conflict")
	}

	var memberships int64
	db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, alex.ID).
		Count(&memberships)
	if memberships != 1 {
		t.Errorf("memberships = %d, expected exactly 1", memberships)
	}
}

func TestInvitationAccept_WrongUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInvitationService(db, nil, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	mallory := createTestUser(t, db, "mallory")
	project := createTestProject(t, db, steve)

	inv, _ := svc.Create(project.ID, steve.ID, alex.ID)
	if _, err := svc.Accept(inv.ID, mallory.ID); appStatus(t, err) != http.StatusForbidden {
		t.Error("only the invitee may accept")
	}
}

func TestInvitationDecline(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInvitationService(db, nil, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	project := createTestProject(t, db, steve)

	inv, _ := svc.Create(project.ID, steve.ID, alex.ID)
	if err := svc.Decline(inv.ID, alex.ID); err != nil {
		t.Fatalf("Decline() error = %v", err)
	}
	// declining twice is a no-op
	if err := svc.Decline(inv.ID, alex.ID); err != nil {
		t.Fatalf("second decline should be a no-op: %v", err)
	}
	// accepting a declined invitation conflicts
	if _, err := svc.Accept(inv.ID, alex.ID); appStatus(t, err) != http.StatusConflict {
		t.Error("accepting a declined invitation should conflict")
	}

	var memberships int64
	db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, alex.ID).
		Count(&memberships)
	if memberships != 0 {
		t.Errorf("decline must not create a membership, found %d", memberships)
	}
}

func TestInvitationSearchUsers_ExcludesMembers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInvitationService(db, nil, nil)
	steve := createTestUser(t, db, "steve")
	createTestUser(t, db, "stella")
	project := createTestProject(t, db, steve)

	results, err := svc.SearchUsers(project.ID, steve.ID, "ste")
	if err != nil {
		t.Fatalf("SearchUsers() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, expected 1", len(results))
	}
	if results[0]["username"] != "stella" {
		t.Errorf("result = %v, expected stella (members must be excluded)", results[0]["username"])
	}
}

func TestInvitationListMine_PendingOnly(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInvitationService(db, nil, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	p1 := createTestProject(t, db, steve)
	p2 := createTestProject(t, db, steve)

	inv1, _ := svc.Create(p1.ID, steve.ID, alex.ID)
	svc.Create(p2.ID, steve.ID, alex.ID)
	svc.Decline(inv1.ID, alex.ID)

	pending, err := svc.ListMine(alex.ID)
	if err != nil {
		t.Fatalf("ListMine() error = %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending = %d, expected 1", len(pending))
	}
}
