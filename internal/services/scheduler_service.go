// file: internal/services/scheduler_service.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"activityhub/internal/config"
	"activityhub/internal/models"

	"go.uber.org/zap"
)

// schedulerService keeps a registry of named interval tasks and runs the
// due ones when triggered. It owns no goroutines: an external caller
// (ticker loop, cron hit, admin endpoint) drives RunDue, so the same
// registry behaves identically in production and in tests.
type schedulerService struct {
	mu            sync.Mutex
	tasks         map[string]*ScheduledTask
	order         []string
	notifications NotificationService
	audit         AuditService
	config        config.SchedulerConfig
	logger        *zap.Logger
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(
	notifications NotificationService,
	audit AuditService,
	cfg config.SchedulerConfig,
	logger *zap.Logger,
) SchedulerService {
	return &schedulerService{
		tasks:         make(map[string]*ScheduledTask),
		notifications: notifications,
		audit:         audit,
		config:        cfg,
		logger:        logger,
	}
}

// Register adds or replaces a named task. A freshly registered task is
// due immediately.
func (s *schedulerService) Register(name string, interval time.Duration, fn TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[name]; !exists {
		s.order = append(s.order, name)
	}
	s.tasks[name] = &ScheduledTask{
		Name:            name,
		IntervalSeconds: int(interval / time.Second),
		Enabled:         true,
		fn:              fn,
	}
}

// RegisterDefaults wires the built-in maintenance tasks
func (s *schedulerService) RegisterDefaults() {
	s.Register("notifications_dispatch", s.config.DispatchInterval, func(ctx context.Context) (int, error) {
		return s.notifications.DispatchPending(ctx, 0)
	})
}

// DueTasks returns the enabled tasks whose next run is at or before now
func (s *schedulerService) DueTasks(now time.Time) []*ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]*ScheduledTask, 0, len(s.tasks))
	for _, name := range s.order {
		task := s.tasks[name]
		if task.Enabled && taskDue(task, now) {
			due = append(due, task)
		}
	}
	return due
}

// taskDue: never-run tasks are due; otherwise due once the interval has
// elapsed since the last run.
func taskDue(task *ScheduledTask, now time.Time) bool {
	if task.NextRunAt == nil {
		return true
	}
	return !task.NextRunAt.After(now)
}

// RunDue executes up to maxTasks due tasks sequentially. Every run is
// rescheduled and audited regardless of outcome, so a failing task
// retries on its normal cadence instead of hot-looping.
func (s *schedulerService) RunDue(ctx context.Context, now time.Time, maxTasks int) []*TaskRunReport {
	if maxTasks <= 0 {
		maxTasks = s.config.MaxTasksPerRun
	}

	due := s.DueTasks(now)
	// maxTasks <= 0 means no cap
	if maxTasks > 0 && len(due) > maxTasks {
		due = due[:maxTasks]
	}

	reports := make([]*TaskRunReport, 0, len(due))
	for _, task := range due {
		reports = append(reports, s.runTask(ctx, task, now))
	}
	return reports
}

func (s *schedulerService) runTask(ctx context.Context, task *ScheduledTask, now time.Time) *TaskRunReport {
	started := time.Now()
	affected, err := s.executeTask(ctx, task)
	finished := time.Now()

	// Reschedule off the caller-supplied instant, not the wall clock
	next := now.Add(time.Duration(task.IntervalSeconds) * time.Second)
	s.mu.Lock()
	task.LastRunAt = &now
	task.NextRunAt = &next
	s.mu.Unlock()

	report := &TaskRunReport{
		Task:       task.Name,
		StartedAt:  started,
		FinishedAt: finished,
		NextRunAt:  &next,
	}
	if err != nil {
		report.Status = "failed"
		report.Error = err.Error()
		s.logger.Error("Scheduled task failed",
			zap.String("task", task.Name),
			zap.Error(err),
		)
	} else {
		report.Status = "success"
		report.AffectedCount = &affected
		s.logger.Info("Scheduled task completed",
			zap.String("task", task.Name),
			zap.Int("affected", affected),
			zap.Duration("elapsed", finished.Sub(started)),
		)
	}

	s.recordRun(ctx, task, report)
	return report
}

// executeTask isolates panics so one misbehaving task cannot take down
// the run loop.
func (s *schedulerService) executeTask(ctx context.Context, task *ScheduledTask) (affected int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task.fn(ctx)
}

func (s *schedulerService) recordRun(ctx context.Context, task *ScheduledTask, report *TaskRunReport) {
	auditCtx := models.JSONMap{
		"task":   task.Name,
		"status": report.Status,
	}
	if report.AffectedCount != nil {
		auditCtx["affected_count"] = *report.AffectedCount
	}
	if report.Error != "" {
		auditCtx["error"] = report.Error
	}
	entry := &AuditRecord{
		Action:     models.AuditTaskRun,
		EntityType: models.AuditEntityTask,
		Context:    auditCtx,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record task run audit entry",
			zap.String("task", task.Name),
			zap.Error(err),
		)
	}
}

// ListTasks returns the registry snapshot in registration order
func (s *schedulerService) ListTasks() []*ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]*ScheduledTask, 0, len(s.tasks))
	for _, name := range s.order {
		copied := *s.tasks[name]
		tasks = append(tasks, &copied)
	}
	return tasks
}
