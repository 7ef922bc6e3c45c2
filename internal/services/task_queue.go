package services

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/questboard/questboard/internal/config"
	"github.com/questboard/questboard/pkg/logger"
)

const TaskTypeNotify = "notification:deliver"

// Notification job kinds. Each kind maps to one fan-out rule in the
// notification service.
const (
	JobCommentCreated    = "comment_created"
	JobTaskAssigned      = "task_assigned"
	JobTaskStatusChanged = "task_status_changed"
	JobInvitationCreated = "invitation_created"
	JobMemberJoined      = "member_joined"
)

// NotificationJob describes a notification fan-out to run off the request
// path. Only the ids are carried; the processor re-reads current state so a
// job enqueued before a membership change fans out to the membership at
// processing time.
type NotificationJob struct {
	Kind         string `json:"kind"`
	ActorID      uint   `json:"actor_id"`
	ProjectID    uint   `json:"project_id,omitempty"`
	TaskID       uint   `json:"task_id,omitempty"`
	CommentID    uint   `json:"comment_id,omitempty"`
	InvitationID uint   `json:"invitation_id,omitempty"`
	RecipientID  uint   `json:"recipient_id,omitempty"`
	OldStatus    string `json:"old_status,omitempty"`
	NewStatus    string `json:"new_status,omitempty"`
}

// TaskQueue defines the interface for notification job processing.
type TaskQueue interface {
	// Enqueue adds a job to the queue
	Enqueue(job *NotificationJob) error
	// IsAsync returns true if the queue processes jobs asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// NewTaskQueue builds the queue from config: Redis-backed when enabled and
// reachable, in-process otherwise.
func NewTaskQueue(cfg *config.Config) TaskQueue {
	if cfg.Redis.Enabled {
		queue, err := NewAsyncQueue(&cfg.Redis)
		if err != nil {
			logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
			return NewSyncQueue()
		}
		logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
		return queue
	}
	logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
	return NewSyncQueue()
}

// AsyncQueue implements TaskQueue using asynq (Redis-based).
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection up front so we can fall back to sync mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(job *NotificationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeNotify, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("kind", job.Kind).Msg("notification job enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue with in-process processing (no Redis).
type SyncQueue struct {
	processor func(context.Context, *NotificationJob) error
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function that handles jobs.
func (q *SyncQueue) SetProcessor(processor func(context.Context, *NotificationJob) error) {
	q.processor = processor
}

// Enqueue runs the job in a goroutine so the HTTP response is not blocked
// on notification fan-out.
func (q *SyncQueue) Enqueue(job *NotificationJob) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] no processor set, job dropped: kind=%s", job.Kind)
		return nil
	}

	go func() {
		if err := q.processor(context.Background(), job); err != nil {
			logger.Errorf("[SyncQueue] job processing failed: %v", err)
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

func (q *SyncQueue) Close() error {
	return nil
}
