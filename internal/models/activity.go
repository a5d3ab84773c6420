package models

import "time"

// ActivityStatus is the publication state of an activity
type ActivityStatus string

const (
	ActivityStatusDraft     ActivityStatus = "draft"
	ActivityStatusScheduled ActivityStatus = "scheduled"
	ActivityStatusPublished ActivityStatus = "published"
	ActivityStatusClosed    ActivityStatus = "closed"
	ActivityStatusArchived  ActivityStatus = "archived"
)

// Activity is the event participants sign up for
type Activity struct {
	ID          int64          `json:"id" db:"id"`
	Title       string         `json:"title" db:"title" validate:"required,max=200"`
	Description *string        `json:"description,omitempty" db:"description"`
	Status      ActivityStatus `json:"status" db:"status"`
	Tags        StringArray    `json:"tags" db:"tags"`
	StartsAt    *time.Time     `json:"starts_at,omitempty" db:"starts_at"`
	EndsAt      *time.Time     `json:"ends_at,omitempty" db:"ends_at"`

	// CheckinToken is the time-limited secret presented at check-in.
	// A nil token means check-in is closed for the activity.
	CheckinToken          *string    `json:"-" db:"checkin_token"`
	CheckinTokenExpiresAt *time.Time `json:"checkin_token_expires_at,omitempty" db:"checkin_token_expires_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasCheckinToken reports whether the activity currently accepts check-ins
func (a *Activity) HasCheckinToken() bool {
	return a.CheckinToken != nil && *a.CheckinToken != ""
}

// Participant is a platform user who submits signups and earns badges
type Participant struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required,max=120"`
	AvatarURL *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
