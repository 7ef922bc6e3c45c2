package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/questboard/questboard/internal/config"
	"github.com/questboard/questboard/pkg/logger"
)

// Worker processes notification jobs from the Redis queue.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, *NotificationJob) error
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewWorker creates a worker, or nil when Redis is disabled (the sync queue
// processes jobs in-process instead).
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Errorf("[Worker] error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetProcessor sets the function that handles notification jobs.
func (w *Worker) SetProcessor(processor func(context.Context, *NotificationJob) error) {
	w.processor = processor
}

// Start begins processing jobs.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeNotify, w.handleNotifyTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] starting async worker")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[Worker] server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[Worker] shutting down")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[Worker] shutdown complete")
}

func (w *Worker) handleNotifyTask(ctx context.Context, t *asynq.Task) error {
	var job NotificationJob
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		logger.Errorf("[Worker] failed to unmarshal job: %v", err)
		return err
	}

	if w.processor == nil {
		logger.Warnf("[Worker] no processor set, job dropped: kind=%s", job.Kind)
		return nil
	}

	return w.processor(ctx, &job)
}
