package repositories

import (
	"activityhub/internal/database"

	"go.uber.org/zap"
)

// Collection bundles all repositories for service wiring
type Collection struct {
	Signups       SignupRepository
	Activities    ActivityRepository
	Participants  ParticipantRepository
	Badges        BadgeRepository
	Notifications NotificationRepository
	Audit         AuditRepository
}

// NewCollection creates all postgres-backed repositories over one manager
func NewCollection(db *database.Manager, logger *zap.Logger) *Collection {
	return &Collection{
		Signups:       NewSignupRepository(db, logger),
		Activities:    NewActivityRepository(db, logger),
		Participants:  NewParticipantRepository(db, logger),
		Badges:        NewBadgeRepository(db, logger),
		Notifications: NewNotificationRepository(db, logger),
		Audit:         NewAuditRepository(db, logger),
	}
}
