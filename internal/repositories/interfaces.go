// file: internal/repositories/interfaces.go
package repositories

import (
	"context"
	"time"

	"activityhub/internal/models"
)

// ===============================
// CORE REPOSITORY INTERFACES
// ===============================

// SignupFilter narrows signup list/count queries
type SignupFilter struct {
	ActivityID    *int64
	ParticipantID *int64
	Statuses      []models.SignupStatus
	CheckinStatus *models.CheckinStatus
	Limit         int
	Offset        int
}

// SignupRepository defines the contract for signup data operations
type SignupRepository interface {
	// Create inserts a new signup; a second active row for the same
	// (activity, participant) pair surfaces as ErrDuplicate.
	Create(ctx context.Context, signup *models.Signup) error
	GetByID(ctx context.Context, id int64) (*models.Signup, error)
	GetMany(ctx context.Context, ids []int64) ([]*models.Signup, error)
	Update(ctx context.Context, signup *models.Signup) error
	Delete(ctx context.Context, id int64) error

	List(ctx context.Context, filter SignupFilter) ([]*models.Signup, error)
	Count(ctx context.Context, filter SignupFilter) (int, error)

	// History counters consumed by the badge rule engine
	CountApprovedByParticipant(ctx context.Context, participantID int64, excludeSignupID *int64) (int, error)
	CountCheckedInByParticipant(ctx context.Context, participantID int64) (int, error)
	CountApprovedWithTags(ctx context.Context, participantID int64, tags []string) (int, error)

	ActivityStats(ctx context.Context, activityID int64) (*models.ActivityStats, error)
}

// ActivityRepository defines the contract for activity data operations
type ActivityRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Activity, error)
	SetCheckinToken(ctx context.Context, activityID int64, token string, expiresAt *time.Time) error
	ClearCheckinToken(ctx context.Context, activityID int64) error
}

// ParticipantRepository defines the contract for participant lookups
type ParticipantRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Participant, error)
}

// BadgeRepository defines the contract for badge, rule, and award data
type BadgeRepository interface {
	// Badges
	GetBadge(ctx context.Context, id int64) (*models.Badge, error)
	GetBadgeByCode(ctx context.Context, code string) (*models.Badge, error)
	ListBadges(ctx context.Context) ([]*models.Badge, error)

	// Rules
	GetRule(ctx context.Context, id int64) (*models.BadgeRule, error)
	ListRules(ctx context.Context, activeOnly bool) ([]*models.BadgeRule, error)
	CreateRule(ctx context.Context, rule *models.BadgeRule) error
	UpdateRule(ctx context.Context, rule *models.BadgeRule) error
	DeleteRule(ctx context.Context, id int64) error

	// Awards; CreateUserBadge surfaces the (participant, badge)
	// uniqueness conflict as ErrDuplicate.
	CreateUserBadge(ctx context.Context, award *models.UserBadge) error
	GetUserBadge(ctx context.Context, participantID, badgeID int64) (*models.UserBadge, error)
	ListUserBadges(ctx context.Context, participantID int64) ([]*models.UserBadge, error)
}

// NotificationFilter narrows notification list queries
type NotificationFilter struct {
	ParticipantID *int64
	Statuses      []models.NotificationStatus
	Limit         int
	Offset        int
}

// NotificationRepository defines the contract for notification log data
type NotificationRepository interface {
	Create(ctx context.Context, log *models.NotificationLog) error
	GetByID(ctx context.Context, id int64) (*models.NotificationLog, error)
	Update(ctx context.Context, log *models.NotificationLog) error
	List(ctx context.Context, filter NotificationFilter) ([]*models.NotificationLog, error)

	// ListDispatchable selects up to limit rows that are pending (or
	// failed below the retry cap) and due at now, oldest first.
	ListDispatchable(ctx context.Context, limit int, now time.Time, maxRetries int) ([]*models.NotificationLog, error)

	MarkAllRead(ctx context.Context, participantID int64) (int, error)
	DeleteOne(ctx context.Context, id, participantID int64) (bool, error)
	DeleteBatch(ctx context.Context, ids []int64, participantID int64) (int, error)
	DeleteAllForParticipant(ctx context.Context, participantID int64) (int, error)
}

// AuditFilter narrows audit log list queries
type AuditFilter struct {
	Action     *models.AuditAction
	EntityType *models.AuditEntity
	EntityID   *int64
	Limit      int
	Offset     int
}

// AuditRepository defines the contract for audit log data
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]*models.AuditLog, error)
}
