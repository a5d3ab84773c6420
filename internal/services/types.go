// file: internal/services/types.go
package services

import (
	"context"
	"time"

	"activityhub/internal/models"
)

// ===============================
// SIGNUP REQUESTS
// ===============================

// SubmitSignupRequest creates a new pending signup
type SubmitSignupRequest struct {
	ActivityID    int64          `json:"activity_id" validate:"required"`
	ParticipantID int64          `json:"participant_id" validate:"required"`
	Answers       models.JSONMap `json:"answers,omitempty"`
	Extra         models.JSONMap `json:"extra,omitempty"`
}

// ListSignupsRequest filters signup listings
type ListSignupsRequest struct {
	ActivityID    *int64                  `json:"activity_id,omitempty"`
	ParticipantID *int64                  `json:"participant_id,omitempty"`
	Statuses      []models.SignupStatus   `json:"statuses,omitempty"`
	CheckinStatus *models.CheckinStatus   `json:"checkin_status,omitempty"`
	Pagination    models.PaginationParams `json:"pagination"`
}

// ReviewAction is the staff decision applied to a signup
type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewReject  ReviewAction = "reject"
)

// IsValid reports whether the action is a known value
func (a ReviewAction) IsValid() bool {
	return a == ReviewApprove || a == ReviewReject
}

// ReviewRequest applies a review decision to one signup
type ReviewRequest struct {
	SignupID     int64        `json:"signup_id" validate:"required"`
	ActorAdminID int64        `json:"actor_admin_id" validate:"required"`
	Action       ReviewAction `json:"action" validate:"required,oneof=approve reject"`
	Message      string       `json:"message,omitempty" validate:"max=255"`
}

// BulkReviewRequest applies one decision to many signups independently
type BulkReviewRequest struct {
	SignupIDs    []int64      `json:"signup_ids" validate:"required,min=1"`
	ActorAdminID int64        `json:"actor_admin_id" validate:"required"`
	Action       ReviewAction `json:"action" validate:"required,oneof=approve reject"`
	Remark       string       `json:"remark,omitempty" validate:"max=255"`
}

// BulkReviewOutcome is one item's result within a bulk review
type BulkReviewOutcome struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"` // "success", "skipped", "not_found", "error"
	NewStatus string `json:"new_status,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// BulkReviewResult aggregates per-item outcomes; a single item's failure
// never aborts the batch.
type BulkReviewResult struct {
	Success int                 `json:"success"`
	Failed  int                 `json:"failed"`
	Skipped int                 `json:"skipped"`
	Details []BulkReviewOutcome `json:"details"`
}

// CheckinRequest verifies attendance for one signup
type CheckinRequest struct {
	SignupID int64  `json:"signup_id" validate:"required"`
	Token    string `json:"token"`
	// Force bypasses token and re-checkin checks, never the
	// approved-status precondition.
	Force bool `json:"force,omitempty"`
}

// ===============================
// BADGE REQUESTS
// ===============================

// AwardBadgeRequest awards a badge by code
type AwardBadgeRequest struct {
	ParticipantID int64   `json:"participant_id" validate:"required"`
	BadgeCode     string  `json:"badge_code" validate:"required"`
	ActivityID    *int64  `json:"activity_id,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// AwardBadgeByIDRequest awards a badge by id
type AwardBadgeByIDRequest struct {
	ParticipantID int64   `json:"participant_id" validate:"required"`
	BadgeID       int64   `json:"badge_id" validate:"required"`
	ActivityID    *int64  `json:"activity_id,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// BadgeRuleRequest creates or updates a badge rule
type BadgeRuleRequest struct {
	Name             string               `json:"name" validate:"required,max=120"`
	RuleType         models.BadgeRuleType `json:"rule_type" validate:"required"`
	BadgeID          int64                `json:"badge_id" validate:"required"`
	Threshold        *int                 `json:"threshold,omitempty" validate:"omitempty,min=1"`
	ActivityTagScope []string             `json:"activity_tag_scope,omitempty"`
	Notes            *string              `json:"notes,omitempty" validate:"omitempty,max=255"`
	IsActive         *bool                `json:"is_active,omitempty"`
}

// RuleEvaluation is the event context the rule engine evaluates against
type RuleEvaluation struct {
	Event         string `json:"event"` // "signup_approved", "checkin", "manual"
	ParticipantID int64  `json:"participant_id"`
	ActivityID    *int64 `json:"activity_id,omitempty"`
	SignupID      *int64 `json:"signup_id,omitempty"`
}

// RulePreviewRequest asks whether a rule would award for a participant
type RulePreviewRequest struct {
	ParticipantID int64  `json:"participant_id" validate:"required"`
	ActivityID    *int64 `json:"activity_id,omitempty"`
}

// RulePreviewResult is the dry-run verdict for one rule
type RulePreviewResult struct {
	RuleID   int64  `json:"rule_id"`
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// ===============================
// NOTIFICATION REQUESTS
// ===============================

// EnqueueRequest records an outbound notification intent; a due request
// is delivered synchronously within the same call.
type EnqueueRequest struct {
	ParticipantID   *int64                     `json:"participant_id,omitempty"`
	ActivityID      *int64                     `json:"activity_id,omitempty"`
	SignupID        *int64                     `json:"signup_id,omitempty"`
	Channel         models.NotificationChannel `json:"channel" validate:"required"`
	Event           models.NotificationEvent   `json:"event" validate:"required"`
	Payload         models.JSONMap             `json:"payload,omitempty"`
	ScheduledSendAt *time.Time                 `json:"scheduled_send_at,omitempty"`
}

// ===============================
// ACTIVITY REQUESTS
// ===============================

// RotateTokenRequest issues a fresh check-in token for an activity
type RotateTokenRequest struct {
	ActivityID   int64         `json:"activity_id" validate:"required"`
	ActorAdminID *int64        `json:"actor_admin_id,omitempty"`
	TTL          time.Duration `json:"-"`
}

// CheckinTokenResult carries the newly issued token
type CheckinTokenResult struct {
	ActivityID int64      `json:"activity_id"`
	Token      string     `json:"token"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// ===============================
// SCHEDULER TYPES
// ===============================

// TaskFunc is one maintenance task's executable unit; it returns the
// number of affected items.
type TaskFunc func(ctx context.Context) (int, error)

// ScheduledTask is a registered interval task
type ScheduledTask struct {
	Name            string     `json:"name"`
	IntervalSeconds int        `json:"interval_seconds"`
	Enabled         bool       `json:"enabled"`
	LastRunAt       *time.Time `json:"last_run_at,omitempty"`
	NextRunAt       *time.Time `json:"next_run_at,omitempty"`

	fn TaskFunc
}

// TaskRunReport records one task execution's outcome
type TaskRunReport struct {
	Task          string     `json:"task"`
	Status        string     `json:"status"` // "success", "failed"
	AffectedCount *int       `json:"affected_count,omitempty"`
	Error         string     `json:"error,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    time.Time  `json:"finished_at"`
	NextRunAt     *time.Time `json:"next_run_at,omitempty"`
}

// ===============================
// AUDIT TYPES
// ===============================

// AuditRecord is one append-only audit entry
type AuditRecord struct {
	Action             models.AuditAction `json:"action"`
	EntityType         models.AuditEntity `json:"entity_type"`
	EntityID           *int64             `json:"entity_id,omitempty"`
	ActorAdminID       *int64             `json:"actor_admin_id,omitempty"`
	ActorParticipantID *int64             `json:"actor_participant_id,omitempty"`
	Description        *string            `json:"description,omitempty"`
	Context            models.JSONMap     `json:"context,omitempty"`
}

// ListAuditRequest filters audit log listings
type ListAuditRequest struct {
	Action     *models.AuditAction     `json:"action,omitempty"`
	EntityType *models.AuditEntity     `json:"entity_type,omitempty"`
	EntityID   *int64                  `json:"entity_id,omitempty"`
	Pagination models.PaginationParams `json:"pagination"`
}
