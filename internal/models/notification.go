package models

import "time"

// NotificationChannel routes a notification to a delivery strategy
type NotificationChannel string

const (
	ChannelWechat NotificationChannel = "wechat"
	ChannelEmail  NotificationChannel = "email"
	ChannelSMS    NotificationChannel = "sms"
)

// IsValid reports whether the channel is a known value
func (c NotificationChannel) IsValid() bool {
	switch c {
	case ChannelWechat, ChannelEmail, ChannelSMS:
		return true
	}
	return false
}

// NotificationEvent identifies the lifecycle event a notification describes
type NotificationEvent string

const (
	EventSignupSubmitted NotificationEvent = "signup_submitted"
	EventSignupApproved  NotificationEvent = "signup_approved"
	EventSignupRejected  NotificationEvent = "signup_rejected"
	EventSignupReminder  NotificationEvent = "signup_reminder"
	EventCheckinReminder NotificationEvent = "checkin_reminder"
)

// IsValid reports whether the event is a known value
func (e NotificationEvent) IsValid() bool {
	switch e {
	case EventSignupSubmitted, EventSignupApproved, EventSignupRejected,
		EventSignupReminder, EventCheckinReminder:
		return true
	}
	return false
}

// NotificationStatus is the delivery state of a notification log
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSending NotificationStatus = "sending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
	NotificationRead    NotificationStatus = "read"
)

// NotificationLog is one outbound notification intent with its delivery
// state. Failed is not terminal; a failed row stays dispatchable until it
// reaches the configured retry cap.
type NotificationLog struct {
	ID            int64               `json:"id" db:"id"`
	ParticipantID *int64              `json:"participant_id,omitempty" db:"participant_id"`
	ActivityID    *int64              `json:"activity_id,omitempty" db:"activity_id"`
	SignupID      *int64              `json:"signup_id,omitempty" db:"signup_id"`
	Channel       NotificationChannel `json:"channel" db:"channel"`
	Event         NotificationEvent   `json:"event" db:"event"`
	Status        NotificationStatus  `json:"status" db:"status"`
	Payload       JSONMap             `json:"payload,omitempty" db:"payload"`
	ErrorMessage  *string             `json:"error_message,omitempty" db:"error_message"`

	// ScheduledSendAt nil means "as soon as possible"
	ScheduledSendAt *time.Time `json:"scheduled_send_at,omitempty" db:"scheduled_send_at"`
	SentAt          *time.Time `json:"sent_at,omitempty" db:"sent_at"`

	// RetryCount increments only on failed delivery attempts and is never reset
	RetryCount int `json:"retry_count" db:"retry_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DueAt reports whether the log is ready to send at the given instant
func (n *NotificationLog) DueAt(now time.Time) bool {
	return n.ScheduledSendAt == nil || !n.ScheduledSendAt.After(now)
}
