package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ===============================
// ERROR TYPES
// ===============================

// ServiceError represents a structured service error
type ServiceError struct {
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// GetStatusCode returns the HTTP status code for this error
func (e *ServiceError) GetStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err is a ServiceError carrying the given code
func HasCode(err error, code string) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code == code
	}
	return false
}

// ===============================
// ERROR CODES
// ===============================

// Machine-readable codes shared with API clients. The check-in and badge
// codes mirror the reason strings recorded in audit context.
const (
	CodeDuplicateSignup     = "duplicate_signup"
	CodeSignupNotFound      = "signup_not_found"
	CodeSignupNotApproved   = "signup_not_approved"
	CodeAlreadyCheckedIn    = "already_checked_in"
	CodeTokenUnavailable    = "checkin_token_not_available"
	CodeInvalidCheckinToken = "invalid_checkin_token"
	CodeCheckinTokenExpired = "checkin_token_expired"

	CodeBadgeNotFound       = "badge_not_found"
	CodeBadgeInactive       = "badge_inactive"
	CodeBadgeAlreadyAwarded = "badge_already_awarded"
	CodeRuleNotFound        = "badge_rule_not_found"

	CodeParticipantNotFound = "participant_not_found"
	CodeParticipantInactive = "participant_inactive"
	CodeActivityNotFound    = "activity_not_found"

	CodeSenderFailure = "sender_failure"
)

// ===============================
// ERROR CONSTRUCTORS
// ===============================

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *ServiceError {
	return &ServiceError{
		Type:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewBusinessError creates a business logic error
func NewBusinessError(message, code string) *ServiceError {
	return &ServiceError{
		Type:       "BUSINESS_ERROR",
		Message:    message,
		Code:       code,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message, code string) *ServiceError {
	return &ServiceError{
		Type:       "NOT_FOUND",
		Message:    message,
		Code:       code,
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError creates a conflict error
func NewConflictError(message, code string) *ServiceError {
	return &ServiceError{
		Type:       "CONFLICT",
		Message:    message,
		Code:       code,
		StatusCode: http.StatusConflict,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *ServiceError {
	return &ServiceError{
		Type:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// ===============================
// DOMAIN ERRORS
// ===============================

// NewDuplicateSignupError reports an active signup already exists for the pair
func NewDuplicateSignupError(activityID, participantID int64) *ServiceError {
	return &ServiceError{
		Type:       "CONFLICT",
		Message:    "an active signup already exists for this activity and participant",
		Code:       CodeDuplicateSignup,
		StatusCode: http.StatusConflict,
		Details: map[string]interface{}{
			"activity_id":    activityID,
			"participant_id": participantID,
		},
	}
}

// NewTokenError creates a check-in token error with the given code
func NewTokenError(code string) *ServiceError {
	messages := map[string]string{
		CodeTokenUnavailable:    "the activity has no active check-in token",
		CodeInvalidCheckinToken: "the presented check-in token does not match",
		CodeCheckinTokenExpired: "the check-in token has expired",
	}
	return &ServiceError{
		Type:       "TOKEN_ERROR",
		Message:    messages[code],
		Code:       code,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewBadgeAlreadyAwardedError reports the (participant, badge) pair already holds an award
func NewBadgeAlreadyAwardedError(participantID, badgeID int64) *ServiceError {
	return &ServiceError{
		Type:       "CONFLICT",
		Message:    "badge already awarded to participant",
		Code:       CodeBadgeAlreadyAwarded,
		StatusCode: http.StatusConflict,
		Details: map[string]interface{}{
			"participant_id": participantID,
			"badge_id":       badgeID,
		},
	}
}

// NewSenderFailureError wraps a delivery strategy failure
func NewSenderFailureError(channel string, cause error) *ServiceError {
	return &ServiceError{
		Type:       "SENDER_FAILURE",
		Message:    fmt.Sprintf("notification sender for channel %q failed", channel),
		Code:       CodeSenderFailure,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}
