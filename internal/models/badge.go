package models

import "time"

// Badge represents an awardable recognition that participants can earn
// by reaching certain milestones or completing specific actions.
type Badge struct {
	ID          int64     `json:"id" db:"id"`
	Code        string    `json:"code" db:"code" validate:"required,max=50"`
	Name        string    `json:"name" db:"name" validate:"required,max=120"`
	Description *string   `json:"description,omitempty" db:"description"`
	IconURL     *string   `json:"icon_url,omitempty" db:"icon_url"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// BadgeRuleType discriminates the closed set of rule evaluators.
// Adding a type means adding a variant here and an evaluator in the
// badge rule service's dispatch table.
type BadgeRuleType string

const (
	RuleFirstApproved         BadgeRuleType = "first_approved"
	RuleTotalApproved         BadgeRuleType = "total_approved"
	RuleTotalCheckedIn        BadgeRuleType = "total_checked_in"
	RuleActivityTagAttendance BadgeRuleType = "activity_tag_attendance"
)

// IsValid reports whether the rule type is a known variant
func (t BadgeRuleType) IsValid() bool {
	switch t {
	case RuleFirstApproved, RuleTotalApproved, RuleTotalCheckedIn, RuleActivityTagAttendance:
		return true
	}
	return false
}

// BadgeRule is a declarative predicate over a participant's history.
// Rules are owned by administrators and read-only to the engine at
// evaluation time.
type BadgeRule struct {
	ID       int64         `json:"id" db:"id"`
	Name     string        `json:"name" db:"name" validate:"required,max=120"`
	RuleType BadgeRuleType `json:"rule_type" db:"rule_type" validate:"required"`
	BadgeID  int64         `json:"badge_id" db:"badge_id" validate:"required"`

	// Threshold meaning depends on the rule type; nil means not set.
	Threshold *int `json:"threshold,omitempty" db:"threshold"`

	// ActivityTagScope is required for activity_tag_attendance rules;
	// a rule with an empty scope never awards.
	ActivityTagScope StringArray `json:"activity_tag_scope,omitempty" db:"activity_tag_scope"`

	Notes     *string   `json:"notes,omitempty" db:"notes"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ThresholdValue returns the threshold or zero when unset
func (r *BadgeRule) ThresholdValue() int {
	if r.Threshold == nil {
		return 0
	}
	return *r.Threshold
}

// UserBadge is the award record, unique per (participant, badge).
// Rows are created once and never mutated.
type UserBadge struct {
	ID            int64     `json:"id" db:"id"`
	ParticipantID int64     `json:"participant_id" db:"participant_id"`
	BadgeID       int64     `json:"badge_id" db:"badge_id"`
	ActivityID    *int64    `json:"activity_id,omitempty" db:"activity_id"`
	Notes         *string   `json:"notes,omitempty" db:"notes"`
	AwardedAt     time.Time `json:"awarded_at" db:"awarded_at"`

	// Joined fields (not in user_badges)
	BadgeCode *string `json:"badge_code,omitempty" db:"-"`
	BadgeName *string `json:"badge_name,omitempty" db:"-"`
}
