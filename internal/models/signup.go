package models

import "time"

// SignupStatus is the review lifecycle state of a signup
type SignupStatus string

const (
	SignupStatusPending    SignupStatus = "pending"
	SignupStatusApproved   SignupStatus = "approved"
	SignupStatusRejected   SignupStatus = "rejected"
	SignupStatusCancelled  SignupStatus = "cancelled"
	SignupStatusWaitlisted SignupStatus = "waitlisted"
)

// IsValid reports whether the status is a known value
func (s SignupStatus) IsValid() bool {
	switch s {
	case SignupStatusPending, SignupStatusApproved, SignupStatusRejected,
		SignupStatusCancelled, SignupStatusWaitlisted:
		return true
	}
	return false
}

// Reviewable reports whether a review action may still change the status.
// Anything else is a terminal outcome for the review state machine.
func (s SignupStatus) Reviewable() bool {
	return s == SignupStatusPending || s == SignupStatusWaitlisted
}

// CheckinStatus is the attendance state of a signup, advancing
// independently of the review status
type CheckinStatus string

const (
	CheckinStatusNotCheckedIn CheckinStatus = "not_checked_in"
	CheckinStatusCheckedIn    CheckinStatus = "checked_in"
	CheckinStatusNoShow       CheckinStatus = "no_show"
)

// IsValid reports whether the check-in status is a known value
func (s CheckinStatus) IsValid() bool {
	switch s {
	case CheckinStatusNotCheckedIn, CheckinStatusCheckedIn, CheckinStatusNoShow:
		return true
	}
	return false
}

// Signup is one participant's application to one activity.
// At most one active row exists per (activity, participant) pair; the
// uniqueness constraint in the database is authoritative.
type Signup struct {
	ID            int64         `json:"id" db:"id"`
	ActivityID    int64         `json:"activity_id" db:"activity_id"`
	ParticipantID int64         `json:"participant_id" db:"participant_id"`
	Status        SignupStatus  `json:"status" db:"status"`
	CheckinStatus CheckinStatus `json:"checkin_status" db:"checkin_status"`

	// ApprovalRemark and RejectionReason are mutually exclusive; the review
	// action that produced the current status sets one and clears the other.
	ApprovalRemark  *string `json:"approval_remark,omitempty" db:"approval_remark"`
	RejectionReason *string `json:"rejection_reason,omitempty" db:"rejection_reason"`

	ApprovedAt        *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CheckinTime       *time.Time `json:"checkin_time,omitempty" db:"checkin_time"`
	ReviewedByAdminID *int64     `json:"reviewed_by_admin_id,omitempty" db:"reviewed_by_admin_id"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`

	// FormSnapshot is the opaque submitted answer set, stored as-is
	FormSnapshot JSONMap `json:"form_snapshot,omitempty" db:"form_snapshot"`
	Extra        JSONMap `json:"extra,omitempty" db:"extra"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ActivityStats aggregates signup counters for one activity
type ActivityStats struct {
	ActivityID    int64                 `json:"activity_id"`
	TotalSignups  int                   `json:"total_signups"`
	StatusCounts  map[SignupStatus]int  `json:"status_counts"`
	CheckinCounts map[CheckinStatus]int `json:"checkin_counts"`
}
