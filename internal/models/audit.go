package models

import "time"

// AuditAction names the operation an audit entry records
type AuditAction string

const (
	AuditActivityCreated        AuditAction = "activity_created"
	AuditActivityUpdated        AuditAction = "activity_updated"
	AuditCheckinTokenGenerated  AuditAction = "checkin_token_generated"
	AuditSignupReviewed         AuditAction = "signup_reviewed"
	AuditSignupBulkReviewed     AuditAction = "signup_bulk_reviewed"
	AuditSignupCheckedIn        AuditAction = "signup_checked_in"
	AuditNotificationSent       AuditAction = "notification_sent"
	AuditBadgeAwarded           AuditAction = "badge_awarded"
	AuditBadgeRuleChanged       AuditAction = "badge_rule_changed"
	AuditBadgeRuleTriggered     AuditAction = "badge_rule_triggered"
	AuditTaskRun                AuditAction = "task_run"
)

// AuditEntity names the entity type an audit entry is keyed by
type AuditEntity string

const (
	AuditEntityActivity     AuditEntity = "activity"
	AuditEntitySignup       AuditEntity = "signup"
	AuditEntityNotification AuditEntity = "notification"
	AuditEntityBadge        AuditEntity = "badge"
	AuditEntityBadgeRule    AuditEntity = "badge_rule"
	AuditEntityTask         AuditEntity = "task"
)

// AuditLog is an immutable audit entry. The core appends entries and
// never reads them back.
type AuditLog struct {
	ID                 int64       `json:"id" db:"id"`
	Action             AuditAction `json:"action" db:"action"`
	EntityType         AuditEntity `json:"entity_type" db:"entity_type"`
	EntityID           *int64      `json:"entity_id,omitempty" db:"entity_id"`
	ActorAdminID       *int64      `json:"actor_admin_id,omitempty" db:"actor_admin_id"`
	ActorParticipantID *int64      `json:"actor_participant_id,omitempty" db:"actor_participant_id"`
	Description        *string     `json:"description,omitempty" db:"description"`
	Context            JSONMap     `json:"context,omitempty" db:"context"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
}
