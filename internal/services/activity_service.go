// file: internal/services/activity_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"activityhub/internal/cache"
	"activityhub/internal/models"
	"activityhub/internal/repositories"
	"activityhub/internal/utils"

	"go.uber.org/zap"
)

const (
	// activityCacheTTL is short on purpose: activities mutate rarely but
	// token rotation must become visible quickly everywhere.
	activityCacheTTL = 30 * time.Second

	defaultTokenTTL  = 2 * time.Hour
	tokenEntropySize = 24
)

// activityService exposes the activity surface the signup lifecycle
// depends on: lookups and check-in token management.
type activityService struct {
	activities repositories.ActivityRepository
	cache      cache.Cache
	audit      AuditService
	logger     *zap.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(
	activities repositories.ActivityRepository,
	cacheStore cache.Cache,
	audit AuditService,
	logger *zap.Logger,
) ActivityService {
	return &activityService{
		activities: activities,
		cache:      cacheStore,
		audit:      audit,
		logger:     logger,
	}
}

func activityCacheKey(id int64) string {
	return fmt.Sprintf("activity:%d", id)
}

// Get loads an activity, serving from cache when possible
func (s *activityService) Get(ctx context.Context, activityID int64) (*models.Activity, error) {
	key := activityCacheKey(activityID)
	if raw, ok := s.cache.Get(ctx, key); ok {
		var activity models.Activity
		if err := json.Unmarshal([]byte(raw), &activity); err == nil {
			return &activity, nil
		}
		// Unreadable cache entry: fall through to the database
		_ = s.cache.Delete(ctx, key)
	}

	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, NewNotFoundError("activity not found", CodeActivityNotFound)
		}
		return nil, NewInternalError("failed to load activity")
	}

	if data, err := json.Marshal(activity); err == nil {
		if err := s.cache.Set(ctx, key, string(data), activityCacheTTL); err != nil {
			s.logger.Warn("Failed to cache activity",
				zap.Int64("activity_id", activityID),
				zap.Error(err),
			)
		}
	}
	return activity, nil
}

// RotateCheckinToken issues a fresh token, invalidating any previous one
func (s *activityService) RotateCheckinToken(ctx context.Context, req *RotateTokenRequest) (*CheckinTokenResult, error) {
	if _, err := s.activities.GetByID(ctx, req.ActivityID); err != nil {
		if repositories.IsNotFound(err) {
			return nil, NewNotFoundError("activity not found", CodeActivityNotFound)
		}
		return nil, NewInternalError("failed to load activity")
	}

	token, err := utils.GenerateToken(tokenEntropySize)
	if err != nil {
		return nil, NewInternalError("failed to generate check-in token")
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	expiresAt := time.Now().Add(ttl)

	if err := s.activities.SetCheckinToken(ctx, req.ActivityID, token, &expiresAt); err != nil {
		s.logger.Error("Failed to store check-in token",
			zap.Int64("activity_id", req.ActivityID),
			zap.Error(err),
		)
		return nil, NewInternalError("failed to store check-in token")
	}
	s.invalidate(ctx, req.ActivityID)

	s.logger.Info("Check-in token rotated",
		zap.Int64("activity_id", req.ActivityID),
		zap.Time("expires_at", expiresAt),
	)
	s.recordTokenChange(ctx, req.ActivityID, req.ActorAdminID, models.AuditCheckinTokenGenerated, models.JSONMap{
		"expires_at": expiresAt,
	})
	return &CheckinTokenResult{
		ActivityID: req.ActivityID,
		Token:      token,
		ExpiresAt:  &expiresAt,
	}, nil
}

// CloseCheckin clears the activity's check-in token
func (s *activityService) CloseCheckin(ctx context.Context, activityID int64, actorAdminID *int64) error {
	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		if repositories.IsNotFound(err) {
			return NewNotFoundError("activity not found", CodeActivityNotFound)
		}
		return NewInternalError("failed to load activity")
	}

	if err := s.activities.ClearCheckinToken(ctx, activityID); err != nil {
		s.logger.Error("Failed to clear check-in token",
			zap.Int64("activity_id", activityID),
			zap.Error(err),
		)
		return NewInternalError("failed to clear check-in token")
	}
	s.invalidate(ctx, activityID)

	s.logger.Info("Check-in closed", zap.Int64("activity_id", activityID))
	s.recordTokenChange(ctx, activityID, actorAdminID, models.AuditActivityUpdated, models.JSONMap{
		"change": "checkin_closed",
	})
	return nil
}

func (s *activityService) invalidate(ctx context.Context, activityID int64) {
	if err := s.cache.Delete(ctx, activityCacheKey(activityID)); err != nil {
		s.logger.Warn("Failed to invalidate activity cache",
			zap.Int64("activity_id", activityID),
			zap.Error(err),
		)
	}
}

func (s *activityService) recordTokenChange(ctx context.Context, activityID int64, actorAdminID *int64, action models.AuditAction, auditCtx models.JSONMap) {
	entry := &AuditRecord{
		Action:       action,
		EntityType:   models.AuditEntityActivity,
		EntityID:     &activityID,
		ActorAdminID: actorAdminID,
		Context:      auditCtx,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record activity audit entry",
			zap.Int64("activity_id", activityID),
			zap.Error(err),
		)
	}
}
