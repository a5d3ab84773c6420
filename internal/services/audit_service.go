package services

import (
	"context"

	"activityhub/internal/models"
	"activityhub/internal/repositories"

	"go.uber.org/zap"
)

// auditService appends immutable audit entries
type auditService struct {
	repo   repositories.AuditRepository
	logger *zap.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo repositories.AuditRepository, logger *zap.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger,
	}
}

// Record appends one audit entry. Callers inside a unit of work get the
// entry committed or rolled back with the rest of the operation.
func (s *auditService) Record(ctx context.Context, entry *AuditRecord) error {
	if entry.Action == "" || entry.EntityType == "" {
		return NewValidationError("audit action and entity type are required", nil)
	}

	row := &models.AuditLog{
		Action:             entry.Action,
		EntityType:         entry.EntityType,
		EntityID:           entry.EntityID,
		ActorAdminID:       entry.ActorAdminID,
		ActorParticipantID: entry.ActorParticipantID,
		Description:        entry.Description,
		Context:            entry.Context,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return NewInternalError("failed to record audit entry")
	}
	return nil
}

// List returns audit entries for the admin surface
func (s *auditService) List(ctx context.Context, req *ListAuditRequest) ([]*models.AuditLog, error) {
	req.Pagination.Normalize()
	logs, err := s.repo.List(ctx, repositories.AuditFilter{
		Action:     req.Action,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Limit:      req.Pagination.Limit,
		Offset:     req.Pagination.Offset,
	})
	if err != nil {
		s.logger.Error("Failed to list audit logs", zap.Error(err))
		return nil, NewInternalError("failed to list audit logs")
	}
	return logs, nil
}
