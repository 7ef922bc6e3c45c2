package services

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSyncQueue_ProcessesJobs(t *testing.T) {
	q := NewSyncQueue()

	var mu sync.Mutex
	var processed []*NotificationJob
	done := make(chan struct{}, 1)

	q.SetProcessor(func(ctx context.Context, job *NotificationJob) error {
		mu.Lock()
		processed = append(processed, job)
		mu.Unlock()
		done <- struct{}{}
		return nil
	})

	if err := q.Enqueue(&NotificationJob{Kind: JobCommentCreated, CommentID: 7}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job was not processed")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(processed) != 1 || processed[0].CommentID != 7 {
		t.Errorf("processed = %+v, expected the enqueued job", processed)
	}
}

func TestSyncQueue_NoProcessorDropsJob(t *testing.T) {
	q := NewSyncQueue()

	if err := q.Enqueue(&NotificationJob{Kind: JobCommentCreated}); err != nil {
		t.Errorf("Enqueue without processor should not error, got %v", err)
	}
}

func TestSyncQueue_IsNotAsync(t *testing.T) {
	q := NewSyncQueue()
	if q.IsAsync() {
		t.Error("sync queue should report IsAsync() == false")
	}
	if err := q.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
