// file: internal/services/collection.go
package services

import (
	"activityhub/internal/cache"
	"activityhub/internal/config"
	"activityhub/internal/repositories"

	"go.uber.org/zap"
)

// Collection bundles the service layer for wiring
type Collection struct {
	Signups       SignupService
	Badges        BadgeService
	BadgeRules    BadgeRuleService
	Notifications NotificationService
	Activities    ActivityService
	Scheduler     SchedulerService
	Audit         AuditService
}

// NewCollection wires the full service graph in dependency order
func NewCollection(
	repos *repositories.Collection,
	cacheStore cache.Cache,
	tx TxRunner,
	cfg *config.Config,
	logger *zap.Logger,
) *Collection {
	audit := NewAuditService(repos.Audit, logger)
	senders := NewSenderRegistry(cfg.Notification, logger)
	notifications := NewNotificationService(repos.Notifications, audit, senders, cfg.Notification, logger)
	badges := NewBadgeService(repos.Badges, repos.Participants, repos.Activities, audit, logger)
	badgeRules := NewBadgeRuleService(repos.Badges, repos.Signups, badges, audit, logger)
	activities := NewActivityService(repos.Activities, cacheStore, audit, logger)
	signups := NewSignupService(
		repos.Signups,
		repos.Activities,
		repos.Participants,
		notifications,
		badgeRules,
		badges,
		audit,
		tx,
		cfg.Badge,
		logger,
	)
	scheduler := NewSchedulerService(notifications, audit, cfg.Scheduler, logger)
	scheduler.RegisterDefaults()

	return &Collection{
		Signups:       signups,
		Badges:        badges,
		BadgeRules:    badgeRules,
		Notifications: notifications,
		Activities:    activities,
		Scheduler:     scheduler,
		Audit:         audit,
	}
}
