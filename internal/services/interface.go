// file: internal/services/interface.go
package services

import (
	"context"
	"time"

	"activityhub/internal/models"
)

// TxRunner is the unit-of-work boundary: fn's repository calls share one
// transaction and commit or roll back together. database.Manager
// implements it; tests substitute a pass-through.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ===============================
// SERVICE CONTRACTS
// ===============================

// SignupService owns the signup state machine and orchestrates its
// side effects (notifications, badge evaluation, audit).
type SignupService interface {
	Submit(ctx context.Context, req *SubmitSignupRequest) (*models.Signup, error)
	Get(ctx context.Context, signupID int64) (*models.Signup, error)
	List(ctx context.Context, req *ListSignupsRequest) ([]*models.Signup, error)
	Count(ctx context.Context, req *ListSignupsRequest) (int, error)
	Review(ctx context.Context, req *ReviewRequest) (*models.Signup, error)
	BulkReview(ctx context.Context, req *BulkReviewRequest) (*BulkReviewResult, error)
	Checkin(ctx context.Context, req *CheckinRequest) (*models.Signup, error)
	SendReminder(ctx context.Context, signupID int64, event models.NotificationEvent) (*models.Signup, error)
	ActivityStats(ctx context.Context, activityID int64) (*models.ActivityStats, error)
}

// BadgeService manages the badge catalogue and the award path
type BadgeService interface {
	ListBadges(ctx context.Context) ([]*models.Badge, error)
	ListParticipantBadges(ctx context.Context, participantID int64) ([]*models.UserBadge, error)
	Award(ctx context.Context, req *AwardBadgeRequest) (*models.UserBadge, error)
	AwardByBadgeID(ctx context.Context, req *AwardBadgeByIDRequest) (*models.UserBadge, error)
}

// BadgeRuleService evaluates configured rules against participant
// history and awards badges exactly once.
type BadgeRuleService interface {
	ListRules(ctx context.Context, includeInactive bool) ([]*models.BadgeRule, error)
	CreateRule(ctx context.Context, req *BadgeRuleRequest) (*models.BadgeRule, error)
	UpdateRule(ctx context.Context, ruleID int64, req *BadgeRuleRequest) (*models.BadgeRule, error)
	DeleteRule(ctx context.Context, ruleID int64) error

	// EvaluateRules runs every active rule against the event context and
	// awards eligible badges, swallowing duplicate-award outcomes.
	EvaluateRules(ctx context.Context, eval *RuleEvaluation) error

	// Preview computes eligibility without awarding
	Preview(ctx context.Context, ruleID int64, req *RulePreviewRequest) (*RulePreviewResult, error)
}

// NotificationService owns enqueue/dispatch/retry semantics for
// outbound notifications.
type NotificationService interface {
	Enqueue(ctx context.Context, req *EnqueueRequest) (*models.NotificationLog, error)
	DispatchPending(ctx context.Context, limit int) (int, error)
	List(ctx context.Context, participantID int64, params models.PaginationParams) ([]*models.NotificationLog, error)
	MarkAllRead(ctx context.Context, participantID int64) (int, error)
	Delete(ctx context.Context, notificationID, participantID int64) error
	DeleteBatch(ctx context.Context, ids []int64, participantID int64) (int, error)
	DeleteAll(ctx context.Context, participantID int64) (int, error)
}

// ActivityService exposes the activity surface the lifecycle depends
// on: lookups and check-in token management.
type ActivityService interface {
	Get(ctx context.Context, activityID int64) (*models.Activity, error)
	RotateCheckinToken(ctx context.Context, req *RotateTokenRequest) (*CheckinTokenResult, error)
	CloseCheckin(ctx context.Context, activityID int64, actorAdminID *int64) error
}

// SchedulerService registers named interval tasks and runs the due
// ones on external trigger.
type SchedulerService interface {
	Register(name string, interval time.Duration, fn TaskFunc)
	RegisterDefaults()
	DueTasks(now time.Time) []*ScheduledTask
	RunDue(ctx context.Context, now time.Time, maxTasks int) []*TaskRunReport
	ListTasks() []*ScheduledTask
}

// AuditService appends immutable audit entries; the core never reads
// them back.
type AuditService interface {
	Record(ctx context.Context, entry *AuditRecord) error
	List(ctx context.Context, req *ListAuditRequest) ([]*models.AuditLog, error)
}

// ===============================
// NOTIFICATION SENDERS
// ===============================

// NotificationContext carries everything a delivery strategy needs
type NotificationContext struct {
	Channel       models.NotificationChannel `json:"channel"`
	Event         models.NotificationEvent   `json:"event"`
	ParticipantID *int64                     `json:"participant_id,omitempty"`
	ActivityID    *int64                     `json:"activity_id,omitempty"`
	SignupID      *int64                     `json:"signup_id,omitempty"`
	Payload       models.JSONMap             `json:"payload,omitempty"`
}

// Sender delivers one notification; implementations are interchangeable
// and side-effect-only.
type Sender interface {
	Send(ctx context.Context, notification *NotificationContext) error
}

// SenderResolver maps a channel to its delivery strategy
type SenderResolver interface {
	Resolve(channel models.NotificationChannel) Sender
}
