// file: internal/services/notification_service.go
package services

import (
	"context"
	"time"

	"activityhub/internal/config"
	"activityhub/internal/models"
	"activityhub/internal/repositories"

	"go.uber.org/zap"
)

// notificationService owns the durable notification queue: enqueue with
// synchronous best-effort delivery, and flush-driven retry.
type notificationService struct {
	repo    repositories.NotificationRepository
	audit   AuditService
	senders SenderResolver
	config  config.NotificationConfig
	logger  *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	repo repositories.NotificationRepository,
	audit AuditService,
	senders SenderResolver,
	cfg config.NotificationConfig,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		repo:    repo,
		audit:   audit,
		senders: senders,
		config:  cfg,
		logger:  logger,
	}
}

// Enqueue records the notification intent and, when due, attempts
// delivery synchronously within the same call.
func (s *notificationService) Enqueue(ctx context.Context, req *EnqueueRequest) (*models.NotificationLog, error) {
	if !req.Channel.IsValid() {
		return nil, NewValidationError("unknown notification channel", nil)
	}
	if !req.Event.IsValid() {
		return nil, NewValidationError("unknown notification event", nil)
	}

	log := &models.NotificationLog{
		ParticipantID:   req.ParticipantID,
		ActivityID:      req.ActivityID,
		SignupID:        req.SignupID,
		Channel:         req.Channel,
		Event:           req.Event,
		Status:          models.NotificationPending,
		Payload:         req.Payload,
		ScheduledSendAt: req.ScheduledSendAt,
	}
	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.Error("Failed to enqueue notification",
			zap.String("event", string(req.Event)),
			zap.Error(err),
		)
		return nil, NewInternalError("failed to enqueue notification")
	}

	if log.DueAt(time.Now()) {
		s.deliver(ctx, log)
	}
	return log, nil
}

// deliver performs one delivery attempt. A sender failure marks the row
// failed and bumps retry_count; it never propagates.
func (s *notificationService) deliver(ctx context.Context, log *models.NotificationLog) {
	if log.Status == models.NotificationSent {
		return
	}
	if !log.DueAt(time.Now()) {
		return
	}

	log.Status = models.NotificationSending
	if err := s.repo.Update(ctx, log); err != nil {
		s.logger.Error("Failed to mark notification sending",
			zap.Int64("notification_id", log.ID),
			zap.Error(err),
		)
		return
	}

	sender := s.senders.Resolve(log.Channel)
	err := sender.Send(ctx, &NotificationContext{
		Channel:       log.Channel,
		Event:         log.Event,
		ParticipantID: log.ParticipantID,
		ActivityID:    log.ActivityID,
		SignupID:      log.SignupID,
		Payload:       log.Payload,
	})
	if err != nil {
		s.markFailed(ctx, log, err)
		return
	}
	s.markSent(ctx, log)
}

func (s *notificationService) markSent(ctx context.Context, log *models.NotificationLog) {
	now := time.Now()
	log.Status = models.NotificationSent
	log.SentAt = &now
	log.ErrorMessage = nil
	if err := s.repo.Update(ctx, log); err != nil {
		s.logger.Error("Failed to mark notification sent",
			zap.Int64("notification_id", log.ID),
			zap.Error(err),
		)
		return
	}

	s.recordAudit(ctx, log, nil)
}

func (s *notificationService) markFailed(ctx context.Context, log *models.NotificationLog, sendErr error) {
	message := sendErr.Error()
	log.Status = models.NotificationFailed
	log.SentAt = nil
	log.ErrorMessage = &message
	log.RetryCount++
	if err := s.repo.Update(ctx, log); err != nil {
		s.logger.Error("Failed to mark notification failed",
			zap.Int64("notification_id", log.ID),
			zap.Error(err),
		)
		return
	}

	s.logger.Warn("Notification delivery failed",
		zap.Int64("notification_id", log.ID),
		zap.String("channel", string(log.Channel)),
		zap.Int("retry_count", log.RetryCount),
		zap.Error(sendErr),
	)
	s.recordAudit(ctx, log, sendErr)
}

// recordAudit writes one notification_sent entry per delivery attempt
func (s *notificationService) recordAudit(ctx context.Context, log *models.NotificationLog, sendErr error) {
	auditCtx := models.JSONMap{
		"channel": string(log.Channel),
		"event":   string(log.Event),
		"status":  string(log.Status),
	}
	if sendErr != nil {
		auditCtx["error"] = sendErr.Error()
	}
	entry := &AuditRecord{
		Action:             models.AuditNotificationSent,
		EntityType:         models.AuditEntityNotification,
		EntityID:           &log.ID,
		ActorParticipantID: log.ParticipantID,
		Context:            auditCtx,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record notification audit entry",
			zap.Int64("notification_id", log.ID),
			zap.Error(err),
		)
	}
}

// DispatchPending flushes up to limit due rows, oldest first. Failed
// rows are re-selected only while under the retry cap; this is the sole
// re-entry point for deferred or previously failed notifications.
func (s *notificationService) DispatchPending(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = s.config.DispatchBatchSize
	}

	logs, err := s.repo.ListDispatchable(ctx, limit, time.Now(), s.config.MaxRetries)
	if err != nil {
		s.logger.Error("Failed to select dispatchable notifications", zap.Error(err))
		return 0, NewInternalError("failed to select dispatchable notifications")
	}

	for _, log := range logs {
		s.deliver(ctx, log)
	}
	return len(logs), nil
}

// ===============================
// USER-FACING QUEUE OPERATIONS
// ===============================

func (s *notificationService) List(ctx context.Context, participantID int64, params models.PaginationParams) ([]*models.NotificationLog, error) {
	params.Normalize()
	logs, err := s.repo.List(ctx, repositories.NotificationFilter{
		ParticipantID: &participantID,
		Limit:         params.Limit,
		Offset:        params.Offset,
	})
	if err != nil {
		return nil, NewInternalError("failed to list notifications")
	}
	return logs, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, participantID int64) (int, error) {
	count, err := s.repo.MarkAllRead(ctx, participantID)
	if err != nil {
		return 0, NewInternalError("failed to mark notifications read")
	}
	return count, nil
}

func (s *notificationService) Delete(ctx context.Context, notificationID, participantID int64) error {
	deleted, err := s.repo.DeleteOne(ctx, notificationID, participantID)
	if err != nil {
		return NewInternalError("failed to delete notification")
	}
	if !deleted {
		return NewNotFoundError("notification not found", "notification_not_found")
	}
	return nil
}

func (s *notificationService) DeleteBatch(ctx context.Context, ids []int64, participantID int64) (int, error) {
	count, err := s.repo.DeleteBatch(ctx, ids, participantID)
	if err != nil {
		return 0, NewInternalError("failed to delete notifications")
	}
	return count, nil
}

func (s *notificationService) DeleteAll(ctx context.Context, participantID int64) (int, error) {
	count, err := s.repo.DeleteAllForParticipant(ctx, participantID)
	if err != nil {
		return 0, NewInternalError("failed to delete notifications")
	}
	return count, nil
}
