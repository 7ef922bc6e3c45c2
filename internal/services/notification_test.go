package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/questboard/questboard/internal/models"
)

func TestProcessJob_CommentFanOut(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	casey := createTestUser(t, db, "casey")
	project := createTestProject(t, db, steve)
	addTestMember(t, db, project, alex, models.RoleMember)
	addTestMember(t, db, project, casey, models.RoleMember)
	task := createTestTask(t, db, project, steve)

	comment := &models.Comment{Text: "ready for review", TaskID: task.ID, CreatedBy: steve.ID}
	db.Create(comment)

	err := svc.ProcessJob(context.Background(), &NotificationJob{
		Kind: JobCommentCreated, ActorID: steve.ID, CommentID: comment.ID,
	})
	if err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}

	var toAuthor, toOthers int64
	db.Model(&models.Notification{}).Where("recipient_id = ?", steve.ID).Count(&toAuthor)
	db.Model(&models.Notification{}).Where("type = ?", models.NotificationTaskComment).Count(&toOthers)
	if toAuthor != 0 {
		t.Error("the comment author must not be notified")
	}
	if toOthers != 2 {
		t.Errorf("comment notifications = %d, expected 2", toOthers)
	}
}

func TestProcessJob_MentionAddsToComment(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	casey := createTestUser(t, db, "casey")
	project := createTestProject(t, db, steve)
	addTestMember(t, db, project, alex, models.RoleMember)
	addTestMember(t, db, project, casey, models.RoleMember)
	task := createTestTask(t, db, project, steve)

	comment := &models.Comment{Text: "@alex can you take this?", TaskID: task.ID, CreatedBy: steve.ID}
	db.Create(comment)

	if err := svc.ProcessJob(context.Background(), &NotificationJob{
		Kind: JobCommentCreated, ActorID: steve.ID, CommentID: comment.ID,
	}); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}

	// mentioned member gets the comment notification plus a mention
	var comments, mentions int64
	db.Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ?", alex.ID, models.NotificationTaskComment).
		Count(&comments)
	db.Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ?", alex.ID, models.NotificationTaskMention).
		Count(&mentions)
	if comments != 1 || mentions != 1 {
		t.Errorf("alex got comment=%d mention=%d, expected 1 and 1", comments, mentions)
	}

	// unmentioned member gets only the comment notification
	var caseyTotal int64
	db.Model(&models.Notification{}).Where("recipient_id = ?", casey.ID).Count(&caseyTotal)
	if caseyTotal != 1 {
		t.Errorf("casey got %d notifications, expected 1", caseyTotal)
	}
}

func TestProcessJob_SelfAssignmentSkipped(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db, nil)
	steve := createTestUser(t, db, "steve")
	project := createTestProject(t, db, steve)
	task := createTestTask(t, db, project, steve)

	if err := svc.ProcessJob(context.Background(), &NotificationJob{
		Kind: JobTaskAssigned, ActorID: steve.ID, TaskID: task.ID, RecipientID: steve.ID,
	}); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}

	var count int64
	db.Model(&models.Notification{}).Count(&count)
	if count != 0 {
		t.Error("self-assignment must not produce a notification")
	}
}

func TestProcessJob_TaskAssigned(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")
	project := createTestProject(t, db, steve)
	addTestMember(t, db, project, alex, models.RoleMember)
	task := createTestTask(t, db, project, steve)
	db.Model(task).Update("assignee_id", alex.ID)

	if err := svc.ProcessJob(context.Background(), &NotificationJob{
		Kind: JobTaskAssigned, ActorID: steve.ID, TaskID: task.ID, RecipientID: alex.ID,
	}); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}

	var n models.Notification
	if err := db.Where("recipient_id = ?", alex.ID).First(&n).Error; err != nil {
		t.Fatalf("expected a notification for the assignee: %v", err)
	}
	if n.Type != models.NotificationTaskAssigned {
		t.Errorf("type = %q, expected task_assigned", n.Type)
	}
}

func TestProcessJob_DeletedCommentIsDropped(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db, nil)

	// Job references a comment that no longer exists; it must not error so
	// the queue does not retry forever.
	if err := svc.ProcessJob(context.Background(), &NotificationJob{
		Kind: JobCommentCreated, ActorID: 1, CommentID: 9999,
	}); err != nil {
		t.Errorf("stale job should be dropped, got error %v", err)
	}
}

func TestMarkRead_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db, nil)
	steve := createTestUser(t, db, "steve")

	n := &models.Notification{RecipientID: steve.ID, Type: models.NotificationTaskComment, Title: "t", Message: "m"}
	db.Create(n)

	first, err := svc.MarkRead(steve.ID, n.ID)
	if err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if !first.Read || first.ReadAt == nil {
		t.Error("notification should be marked read with a timestamp")
	}

	if _, err := svc.MarkRead(steve.ID, n.ID); err != nil {
		t.Fatalf("second MarkRead should be a no-op: %v", err)
	}
}

func TestMarkRead_OwnershipEnforced(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db, nil)
	steve := createTestUser(t, db, "steve")
	alex := createTestUser(t, db, "alex")

	n := &models.Notification{RecipientID: steve.ID, Type: models.NotificationTaskComment, Title: "t", Message: "m"}
	db.Create(n)

	if _, err := svc.MarkRead(alex.ID, n.ID); appStatus(t, err) != http.StatusNotFound {
		t.Error("another user's notification should look nonexistent")
	}
}

func TestUnreadCountAndMarkAllRead(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db, nil)
	steve := createTestUser(t, db, "steve")

	for i := 0; i < 3; i++ {
		db.Create(&models.Notification{RecipientID: steve.ID, Type: models.NotificationTaskComment, Title: "t", Message: "m"})
	}

	count, err := svc.UnreadCount(steve.ID)
	if err != nil {
		t.Fatalf("UnreadCount() error = %v", err)
	}
	if count != 3 {
		t.Errorf("unread = %d, expected 3", count)
	}

	marked, err := svc.MarkAllRead(steve.ID)
	if err != nil {
		t.Fatalf("MarkAllRead() error = %v", err)
	}
	if marked != 3 {
		t.Errorf("marked = %d, expected 3", marked)
	}

	count, _ = svc.UnreadCount(steve.ID)
	if count != 0 {
		t.Errorf("unread after mark-all = %d, expected 0", count)
	}
}

func TestPurgeRead(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db, nil)
	steve := createTestUser(t, db, "steve")

	old := &models.Notification{RecipientID: steve.ID, Type: models.NotificationTaskComment, Title: "t", Message: "m", Read: true}
	db.Create(old)
	db.Model(old).Update("created_at", time.Now().Add(-40*24*time.Hour))

	fresh := &models.Notification{RecipientID: steve.ID, Type: models.NotificationTaskComment, Title: "t", Message: "m", Read: true}
	db.Create(fresh)

	unreadOld := &models.Notification{RecipientID: steve.ID, Type: models.NotificationTaskComment, Title: "t", Message: "m"}
	db.Create(unreadOld)
	db.Model(unreadOld).Update("created_at", time.Now().Add(-40*24*time.Hour))

	removed, err := svc.PurgeRead(30 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeRead() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, expected 1 (only old read notifications)", removed)
	}
}

func TestNotifyDeadline_Dedupe(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db, nil)
	steve := createTestUser(t, db, "steve")
	project := createTestProject(t, db, steve)
	task := createTestTask(t, db, project, steve)

	due := time.Now().Add(3 * time.Hour)
	db.Model(task).Updates(map[string]interface{}{"assignee_id": steve.ID, "due_date": due})
	db.First(task, task.ID)

	if err := svc.NotifyDeadline(task, 24*time.Hour); err != nil {
		t.Fatalf("NotifyDeadline() error = %v", err)
	}
	if err := svc.NotifyDeadline(task, 24*time.Hour); err != nil {
		t.Fatalf("second NotifyDeadline() error = %v", err)
	}

	var count int64
	db.Model(&models.Notification{}).
		Where("type = ?", models.NotificationDeadlineApproaching).
		Count(&count)
	if count != 1 {
		t.Errorf("deadline reminders = %d, expected 1 per window", count)
	}
}
