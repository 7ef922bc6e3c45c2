package services

import (
	"time"

	"github.com/questboard/questboard/pkg/logger"
	"github.com/robfig/cron/v3"
)

const (
	deadlineWindow    = 24 * time.Hour
	notificationAge   = 30 * 24 * time.Hour
	deadlineScanSpec  = "0 * * * *"
	notificationPurge = "0 3 * * *"
)

// Scheduler runs the periodic jobs: the task deadline scan and the read
// notification purge.
type Scheduler struct {
	cron          *cron.Cron
	tasks         *TaskService
	notifications *NotificationService
}

func NewScheduler(tasks *TaskService, notifications *NotificationService) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		tasks:         tasks,
		notifications: notifications,
	}
}

// Start registers the jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(deadlineScanSpec, s.scanDeadlines); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(notificationPurge, s.purgeNotifications); err != nil {
		return err
	}

	s.cron.Start()
	logger.Infof("[Scheduler] started: deadline scan %q, notification purge %q", deadlineScanSpec, notificationPurge)
	return nil
}

// Stop halts the cron loop, waiting for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Infof("[Scheduler] stopped")
}

// scanDeadlines reminds assignees of unfinished tasks due within 24 hours.
// The notification service dedupes, so repeated scans do not re-remind.
func (s *Scheduler) scanDeadlines() {
	tasks, err := s.tasks.FindDeadlineCandidates(deadlineWindow)
	if err != nil {
		logger.Errorf("[Scheduler] deadline scan failed: %v", err)
		return
	}

	for i := range tasks {
		if err := s.notifications.NotifyDeadline(&tasks[i], deadlineWindow); err != nil {
			logger.Errorf("[Scheduler] deadline reminder failed for task %d: %v", tasks[i].ID, err)
		}
	}
	if len(tasks) > 0 {
		logger.Infof("[Scheduler] deadline scan checked %d tasks", len(tasks))
	}
}

// purgeNotifications removes read notifications older than 30 days.
func (s *Scheduler) purgeNotifications() {
	removed, err := s.notifications.PurgeRead(notificationAge)
	if err != nil {
		logger.Errorf("[Scheduler] notification purge failed: %v", err)
		return
	}
	if removed > 0 {
		logger.Infof("[Scheduler] purged %d read notifications", removed)
	}
}
