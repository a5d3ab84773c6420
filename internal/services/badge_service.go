// file: internal/services/badge_service.go
package services

import (
	"context"

	"activityhub/internal/models"
	"activityhub/internal/repositories"

	"go.uber.org/zap"
)

// badgeService owns the badge catalogue and the single award path.
// Every award, manual or rule-driven, funnels through awardBadge so the
// (participant, badge) uniqueness constraint is enforced in one place.
type badgeService struct {
	badges       repositories.BadgeRepository
	participants repositories.ParticipantRepository
	activities   repositories.ActivityRepository
	audit        AuditService
	logger       *zap.Logger
}

// NewBadgeService creates a new badge service
func NewBadgeService(
	badges repositories.BadgeRepository,
	participants repositories.ParticipantRepository,
	activities repositories.ActivityRepository,
	audit AuditService,
	logger *zap.Logger,
) BadgeService {
	return &badgeService{
		badges:       badges,
		participants: participants,
		activities:   activities,
		audit:        audit,
		logger:       logger,
	}
}

func (s *badgeService) ListBadges(ctx context.Context) ([]*models.Badge, error) {
	badges, err := s.badges.ListBadges(ctx)
	if err != nil {
		return nil, NewInternalError("failed to list badges")
	}
	return badges, nil
}

func (s *badgeService) ListParticipantBadges(ctx context.Context, participantID int64) ([]*models.UserBadge, error) {
	if _, err := s.requireParticipant(ctx, participantID); err != nil {
		return nil, err
	}
	awards, err := s.badges.ListUserBadges(ctx, participantID)
	if err != nil {
		return nil, NewInternalError("failed to list participant badges")
	}
	return awards, nil
}

// Award grants a badge by code
func (s *badgeService) Award(ctx context.Context, req *AwardBadgeRequest) (*models.UserBadge, error) {
	badge, err := s.badges.GetBadgeByCode(ctx, req.BadgeCode)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, NewNotFoundError("badge not found", CodeBadgeNotFound)
		}
		return nil, NewInternalError("failed to load badge")
	}
	return s.awardBadge(ctx, badge, req.ParticipantID, req.ActivityID, req.Notes)
}

// AwardByBadgeID grants a badge by id
func (s *badgeService) AwardByBadgeID(ctx context.Context, req *AwardBadgeByIDRequest) (*models.UserBadge, error) {
	badge, err := s.badges.GetBadge(ctx, req.BadgeID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, NewNotFoundError("badge not found", CodeBadgeNotFound)
		}
		return nil, NewInternalError("failed to load badge")
	}
	return s.awardBadge(ctx, badge, req.ParticipantID, req.ActivityID, req.Notes)
}

// awardBadge validates preconditions and inserts the award row. The
// database uniqueness constraint is authoritative for exactly-once;
// a conflict surfaces as badge_already_awarded.
func (s *badgeService) awardBadge(ctx context.Context, badge *models.Badge, participantID int64, activityID *int64, notes *string) (*models.UserBadge, error) {
	if !badge.IsActive {
		return nil, NewBusinessError("badge is not active", CodeBadgeInactive)
	}
	participant, err := s.requireParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if !participant.IsActive {
		return nil, NewBusinessError("participant is not active", CodeParticipantInactive)
	}
	if activityID != nil {
		if _, err := s.activities.GetByID(ctx, *activityID); err != nil {
			if repositories.IsNotFound(err) {
				return nil, NewNotFoundError("activity not found", CodeActivityNotFound)
			}
			return nil, NewInternalError("failed to load activity")
		}
	}

	award := &models.UserBadge{
		ParticipantID: participantID,
		BadgeID:       badge.ID,
		ActivityID:    activityID,
		Notes:         notes,
	}
	if err := s.badges.CreateUserBadge(ctx, award); err != nil {
		if repositories.IsDuplicate(err) {
			return nil, NewBadgeAlreadyAwardedError(participantID, badge.ID)
		}
		s.logger.Error("Failed to create badge award",
			zap.Int64("participant_id", participantID),
			zap.String("badge_code", badge.Code),
			zap.Error(err),
		)
		return nil, NewInternalError("failed to award badge")
	}

	s.logger.Info("Badge awarded",
		zap.Int64("participant_id", participantID),
		zap.String("badge_code", badge.Code),
	)
	s.recordAward(ctx, badge, award)
	return award, nil
}

func (s *badgeService) recordAward(ctx context.Context, badge *models.Badge, award *models.UserBadge) {
	entry := &AuditRecord{
		Action:             models.AuditBadgeAwarded,
		EntityType:         models.AuditEntityBadge,
		EntityID:           &award.ID,
		ActorParticipantID: &award.ParticipantID,
		Context: models.JSONMap{
			"badge_id":   badge.ID,
			"badge_code": badge.Code,
		},
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record badge award audit entry",
			zap.Int64("award_id", award.ID),
			zap.Error(err),
		)
	}
}

func (s *badgeService) requireParticipant(ctx context.Context, participantID int64) (*models.Participant, error) {
	participant, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, NewNotFoundError("participant not found", CodeParticipantNotFound)
		}
		return nil, NewInternalError("failed to load participant")
	}
	return participant, nil
}
