// file: internal/services/signup_service.go
package services

import (
	"context"
	"time"

	"activityhub/internal/config"
	"activityhub/internal/models"
	"activityhub/internal/repositories"

	"go.uber.org/zap"
)

// signupService owns the signup state machine and orchestrates its side
// effects. The state transition is authoritative; notification and badge
// failures are logged and never roll back a committed transition.
type signupService struct {
	signups       repositories.SignupRepository
	activities    repositories.ActivityRepository
	participants  repositories.ParticipantRepository
	notifications NotificationService
	rules         BadgeRuleService
	awarder       BadgeService
	audit         AuditService
	tx            TxRunner
	badgeConfig   config.BadgeConfig
	logger        *zap.Logger
}

// NewSignupService creates a new signup service
func NewSignupService(
	signups repositories.SignupRepository,
	activities repositories.ActivityRepository,
	participants repositories.ParticipantRepository,
	notifications NotificationService,
	rules BadgeRuleService,
	awarder BadgeService,
	audit AuditService,
	tx TxRunner,
	badgeConfig config.BadgeConfig,
	logger *zap.Logger,
) SignupService {
	return &signupService{
		signups:       signups,
		activities:    activities,
		participants:  participants,
		notifications: notifications,
		rules:         rules,
		awarder:       awarder,
		audit:         audit,
		tx:            tx,
		badgeConfig:   badgeConfig,
		logger:        logger,
	}
}

// ===============================
// SUBMISSION
// ===============================

// Submit creates a pending signup. The partial uniqueness constraint on
// active rows is what actually prevents duplicates under concurrency.
func (s *signupService) Submit(ctx context.Context, req *SubmitSignupRequest) (*models.Signup, error) {
	participant, err := s.participants.GetByID(ctx, req.ParticipantID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, NewNotFoundError("participant not found", CodeParticipantNotFound)
		}
		return nil, NewInternalError("failed to load participant")
	}
	if !participant.IsActive {
		return nil, NewBusinessError("participant is not active", CodeParticipantInactive)
	}
	if _, err := s.activities.GetByID(ctx, req.ActivityID); err != nil {
		if repositories.IsNotFound(err) {
			return nil, NewNotFoundError("activity not found", CodeActivityNotFound)
		}
		return nil, NewInternalError("failed to load activity")
	}

	signup := &models.Signup{
		ActivityID:    req.ActivityID,
		ParticipantID: req.ParticipantID,
		Status:        models.SignupStatusPending,
		CheckinStatus: models.CheckinStatusNotCheckedIn,
		FormSnapshot:  req.Answers,
		Extra:         req.Extra,
	}
	if err := s.signups.Create(ctx, signup); err != nil {
		if repositories.IsDuplicate(err) {
			return nil, NewDuplicateSignupError(req.ActivityID, req.ParticipantID)
		}
		s.logger.Error("Failed to create signup",
			zap.Int64("activity_id", req.ActivityID),
			zap.Int64("participant_id", req.ParticipantID),
			zap.Error(err),
		)
		return nil, NewInternalError("failed to create signup")
	}

	s.logger.Info("Signup submitted",
		zap.Int64("signup_id", signup.ID),
		zap.Int64("activity_id", signup.ActivityID),
		zap.Int64("participant_id", signup.ParticipantID),
	)
	s.notify(ctx, signup, models.EventSignupSubmitted)
	return signup, nil
}

// ===============================
// REVIEW
// ===============================

// Review applies a staff decision. A signup outside the reviewable
// states is returned unchanged: re-reviewing is an idempotent no-op.
func (s *signupService) Review(ctx context.Context, req *ReviewRequest) (*models.Signup, error) {
	if !req.Action.IsValid() {
		return nil, NewValidationError("unknown review action", nil)
	}

	var reviewed *models.Signup
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		signup, err := s.requireSignup(ctx, req.SignupID)
		if err != nil {
			return err
		}
		reviewed, err = s.applyReview(ctx, signup, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reviewed, nil
}

// applyReview runs the transition and its ordered side effects inside
// the caller's transaction: state first, then notification, badge
// evaluation, and the audit entry.
func (s *signupService) applyReview(ctx context.Context, signup *models.Signup, req *ReviewRequest) (*models.Signup, error) {
	if !signup.Status.Reviewable() {
		s.logger.Debug("Review skipped on terminal signup",
			zap.Int64("signup_id", signup.ID),
			zap.String("status", string(signup.Status)),
		)
		s.recordReview(ctx, signup, req, signup.Status, false)
		return signup, nil
	}

	now := time.Now()
	previous := signup.Status
	signup.ReviewedByAdminID = &req.ActorAdminID
	signup.ReviewedAt = &now

	switch req.Action {
	case ReviewApprove:
		signup.Status = models.SignupStatusApproved
		signup.ApprovedAt = &now
		signup.RejectionReason = nil
		signup.ApprovalRemark = nil
		if req.Message != "" {
			message := req.Message
			signup.ApprovalRemark = &message
		}
	case ReviewReject:
		signup.Status = models.SignupStatusRejected
		signup.ApprovedAt = nil
		signup.ApprovalRemark = nil
		signup.RejectionReason = nil
		if req.Message != "" {
			message := req.Message
			signup.RejectionReason = &message
		}
	}

	if err := s.signups.Update(ctx, signup); err != nil {
		s.logger.Error("Failed to update signup on review",
			zap.Int64("signup_id", signup.ID),
			zap.Error(err),
		)
		return nil, NewInternalError("failed to update signup")
	}

	s.logger.Info("Signup reviewed",
		zap.Int64("signup_id", signup.ID),
		zap.String("action", string(req.Action)),
		zap.String("from", string(previous)),
		zap.String("to", string(signup.Status)),
	)

	if signup.Status == models.SignupStatusApproved {
		s.notify(ctx, signup, models.EventSignupApproved)
		s.evaluateBadges(ctx, signup, "signup_approved")
		s.awardApprovalFallbacks(ctx, signup)
	} else {
		s.notify(ctx, signup, models.EventSignupRejected)
	}

	s.recordReview(ctx, signup, req, previous, true)
	return signup, nil
}

// BulkReview applies one decision to many signups. Items are independent:
// each runs in its own transaction and one failure never aborts the batch.
func (s *signupService) BulkReview(ctx context.Context, req *BulkReviewRequest) (*BulkReviewResult, error) {
	if !req.Action.IsValid() {
		return nil, NewValidationError("unknown review action", nil)
	}

	result := &BulkReviewResult{Details: make([]BulkReviewOutcome, 0, len(req.SignupIDs))}
	for _, id := range req.SignupIDs {
		outcome := s.reviewOne(ctx, id, req)
		switch outcome.Status {
		case "success":
			result.Success++
		case "skipped":
			result.Skipped++
		default:
			result.Failed++
		}
		result.Details = append(result.Details, outcome)
	}

	entry := &AuditRecord{
		Action:       models.AuditSignupBulkReviewed,
		EntityType:   models.AuditEntitySignup,
		ActorAdminID: &req.ActorAdminID,
		Context: models.JSONMap{
			"action":  string(req.Action),
			"total":   len(req.SignupIDs),
			"success": result.Success,
			"failed":  result.Failed,
			"skipped": result.Skipped,
		},
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record bulk review audit entry", zap.Error(err))
	}
	return result, nil
}

func (s *signupService) reviewOne(ctx context.Context, signupID int64, req *BulkReviewRequest) BulkReviewOutcome {
	var skipped bool
	var newStatus models.SignupStatus

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		signup, err := s.requireSignup(ctx, signupID)
		if err != nil {
			return err
		}
		skipped = !signup.Status.Reviewable()
		reviewed, err := s.applyReview(ctx, signup, &ReviewRequest{
			SignupID:     signupID,
			ActorAdminID: req.ActorAdminID,
			Action:       req.Action,
			Message:      req.Remark,
		})
		if err != nil {
			return err
		}
		newStatus = reviewed.Status
		return nil
	})
	if err != nil {
		if HasCode(err, CodeSignupNotFound) {
			return BulkReviewOutcome{ID: signupID, Status: "not_found"}
		}
		return BulkReviewOutcome{ID: signupID, Status: "error", Reason: err.Error()}
	}
	if skipped {
		return BulkReviewOutcome{ID: signupID, Status: "skipped", NewStatus: string(newStatus), Reason: "current_status_" + string(newStatus)}
	}
	return BulkReviewOutcome{ID: signupID, Status: "success", NewStatus: string(newStatus)}
}

// ===============================
// CHECK-IN
// ===============================

// Checkin verifies attendance. Force bypasses the token match and the
// already-checked-in conflict (re-stamping checkin_time), but never
// waives the approved precondition or the configured-token requirement.
func (s *signupService) Checkin(ctx context.Context, req *CheckinRequest) (*models.Signup, error) {
	var checked *models.Signup
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		signup, err := s.requireSignup(ctx, req.SignupID)
		if err != nil {
			return err
		}
		if signup.Status != models.SignupStatusApproved {
			return NewBusinessError("only approved signups may check in", CodeSignupNotApproved)
		}
		if signup.CheckinStatus == models.CheckinStatusCheckedIn && !req.Force {
			return NewConflictError("signup is already checked in", CodeAlreadyCheckedIn)
		}

		if err := s.verifyToken(ctx, signup.ActivityID, req.Token, req.Force); err != nil {
			return err
		}

		now := time.Now()
		signup.CheckinStatus = models.CheckinStatusCheckedIn
		signup.CheckinTime = &now
		if err := s.signups.Update(ctx, signup); err != nil {
			s.logger.Error("Failed to update signup on check-in",
				zap.Int64("signup_id", signup.ID),
				zap.Error(err),
			)
			return NewInternalError("failed to update signup")
		}

		s.logger.Info("Signup checked in",
			zap.Int64("signup_id", signup.ID),
			zap.Int64("participant_id", signup.ParticipantID),
			zap.Bool("forced", req.Force),
		)
		s.notify(ctx, signup, models.EventCheckinReminder)
		s.evaluateBadges(ctx, signup, "checkin")
		s.awardCheckinFallbacks(ctx, signup)
		s.recordCheckin(ctx, signup, req)
		checked = signup
		return nil
	})
	if err != nil {
		return nil, err
	}
	return checked, nil
}

// verifyToken requires a configured token even on forced check-ins;
// force waives only the match and expiry checks.
func (s *signupService) verifyToken(ctx context.Context, activityID int64, token string, force bool) error {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return NewNotFoundError("activity not found", CodeActivityNotFound)
		}
		return NewInternalError("failed to load activity")
	}
	if !activity.HasCheckinToken() {
		return NewTokenError(CodeTokenUnavailable)
	}
	if force {
		return nil
	}
	if token == "" || token != *activity.CheckinToken {
		return NewTokenError(CodeInvalidCheckinToken)
	}
	if activity.CheckinTokenExpiresAt != nil && activity.CheckinTokenExpiresAt.Before(time.Now()) {
		return NewTokenError(CodeCheckinTokenExpired)
	}
	return nil
}

// ===============================
// REMINDERS AND QUERIES
// ===============================

// SendReminder enqueues a reminder notification for one signup
func (s *signupService) SendReminder(ctx context.Context, signupID int64, event models.NotificationEvent) (*models.Signup, error) {
	if event != models.EventSignupReminder && event != models.EventCheckinReminder {
		return nil, NewValidationError("unsupported reminder event", nil)
	}
	signup, err := s.requireSignup(ctx, signupID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, signup, event)
	return signup, nil
}

func (s *signupService) Get(ctx context.Context, signupID int64) (*models.Signup, error) {
	return s.requireSignup(ctx, signupID)
}

func (s *signupService) List(ctx context.Context, req *ListSignupsRequest) ([]*models.Signup, error) {
	filter := s.buildFilter(req)
	signups, err := s.signups.List(ctx, filter)
	if err != nil {
		return nil, NewInternalError("failed to list signups")
	}
	return signups, nil
}

func (s *signupService) Count(ctx context.Context, req *ListSignupsRequest) (int, error) {
	filter := s.buildFilter(req)
	count, err := s.signups.Count(ctx, filter)
	if err != nil {
		return 0, NewInternalError("failed to count signups")
	}
	return count, nil
}

func (s *signupService) ActivityStats(ctx context.Context, activityID int64) (*models.ActivityStats, error) {
	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		if repositories.IsNotFound(err) {
			return nil, NewNotFoundError("activity not found", CodeActivityNotFound)
		}
		return nil, NewInternalError("failed to load activity")
	}
	stats, err := s.signups.ActivityStats(ctx, activityID)
	if err != nil {
		return nil, NewInternalError("failed to compute activity stats")
	}
	return stats, nil
}

func (s *signupService) buildFilter(req *ListSignupsRequest) repositories.SignupFilter {
	req.Pagination.Normalize()
	return repositories.SignupFilter{
		ActivityID:    req.ActivityID,
		ParticipantID: req.ParticipantID,
		Statuses:      req.Statuses,
		CheckinStatus: req.CheckinStatus,
		Limit:         req.Pagination.Limit,
		Offset:        req.Pagination.Offset,
	}
}

// ===============================
// SIDE EFFECTS
// ===============================

// notify enqueues a lifecycle notification; a failure here is logged
// and never affects the signup transition.
func (s *signupService) notify(ctx context.Context, signup *models.Signup, event models.NotificationEvent) {
	_, err := s.notifications.Enqueue(ctx, &EnqueueRequest{
		ParticipantID: &signup.ParticipantID,
		ActivityID:    &signup.ActivityID,
		SignupID:      &signup.ID,
		Channel:       models.ChannelWechat,
		Event:         event,
		Payload: models.JSONMap{
			"signup_id": signup.ID,
			"status":    string(signup.Status),
		},
	})
	if err != nil {
		s.logger.Error("Failed to enqueue signup notification",
			zap.Int64("signup_id", signup.ID),
			zap.String("event", string(event)),
			zap.Error(err),
		)
	}
}

func (s *signupService) evaluateBadges(ctx context.Context, signup *models.Signup, event string) {
	if !s.badgeConfig.AutoRulesEnabled {
		return
	}
	err := s.rules.EvaluateRules(ctx, &RuleEvaluation{
		Event:         event,
		ParticipantID: signup.ParticipantID,
		ActivityID:    &signup.ActivityID,
		SignupID:      &signup.ID,
	})
	if err != nil {
		s.logger.Error("Badge rule evaluation failed after transition",
			zap.Int64("signup_id", signup.ID),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

// awardApprovalFallbacks is the legacy code-based award path for
// approvals. It coexists with the rule table; the uniqueness constraint
// keeps double awards impossible when both paths fire.
func (s *signupService) awardApprovalFallbacks(ctx context.Context, signup *models.Signup) {
	if !s.badgeConfig.AutoRulesEnabled {
		return
	}
	if code := s.badgeConfig.FirstAttendanceCode; code != "" {
		prior, err := s.signups.CountApprovedByParticipant(ctx, signup.ParticipantID, &signup.ID)
		if err != nil {
			s.logger.Error("Failed to count prior approvals",
				zap.Int64("signup_id", signup.ID),
				zap.Error(err),
			)
		} else if prior == 0 {
			s.awardByCode(ctx, signup, code)
		}
	}

	code := s.badgeConfig.RepeatAttendanceCode
	threshold := s.badgeConfig.RepeatAttendanceThreshold
	if code == "" || threshold <= 1 {
		return
	}
	total, err := s.signups.CountApprovedByParticipant(ctx, signup.ParticipantID, nil)
	if err != nil {
		s.logger.Error("Failed to count approvals",
			zap.Int64("signup_id", signup.ID),
			zap.Error(err),
		)
		return
	}
	if total >= threshold {
		s.awardByCode(ctx, signup, code)
	}
}

// awardCheckinFallbacks is the legacy code-based award path for check-ins
func (s *signupService) awardCheckinFallbacks(ctx context.Context, signup *models.Signup) {
	if !s.badgeConfig.AutoRulesEnabled {
		return
	}
	if code := s.badgeConfig.CheckinCode; code != "" {
		s.awardByCode(ctx, signup, code)
	}
}

func (s *signupService) awardByCode(ctx context.Context, signup *models.Signup, code string) {
	_, err := s.awarder.Award(ctx, &AwardBadgeRequest{
		ParticipantID: signup.ParticipantID,
		BadgeCode:     code,
		ActivityID:    &signup.ActivityID,
	})
	if err != nil {
		if HasCode(err, CodeBadgeAlreadyAwarded) || HasCode(err, CodeBadgeNotFound) {
			return
		}
		s.logger.Error("Fallback badge award failed",
			zap.Int64("signup_id", signup.ID),
			zap.String("badge_code", code),
			zap.Error(err),
		)
	}
}

// recordReview writes the per-review audit entry. Every outcome gets one;
// new_status only appears when the review changed the signup.
func (s *signupService) recordReview(ctx context.Context, signup *models.Signup, req *ReviewRequest, previous models.SignupStatus, changed bool) {
	auditCtx := models.JSONMap{
		"action":          string(req.Action),
		"previous_status": string(previous),
		"activity_id":     signup.ActivityID,
		"participant_id":  signup.ParticipantID,
	}
	if changed {
		auditCtx["new_status"] = string(signup.Status)
	}
	entry := &AuditRecord{
		Action:       models.AuditSignupReviewed,
		EntityType:   models.AuditEntitySignup,
		EntityID:     &signup.ID,
		ActorAdminID: &req.ActorAdminID,
		Context:      auditCtx,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record review audit entry",
			zap.Int64("signup_id", signup.ID),
			zap.Error(err),
		)
	}
}

func (s *signupService) recordCheckin(ctx context.Context, signup *models.Signup, req *CheckinRequest) {
	entry := &AuditRecord{
		Action:             models.AuditSignupCheckedIn,
		EntityType:         models.AuditEntitySignup,
		EntityID:           &signup.ID,
		ActorParticipantID: &signup.ParticipantID,
		Context: models.JSONMap{
			"forced":      req.Force,
			"activity_id": signup.ActivityID,
		},
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record check-in audit entry",
			zap.Int64("signup_id", signup.ID),
			zap.Error(err),
		)
	}
}

func (s *signupService) requireSignup(ctx context.Context, signupID int64) (*models.Signup, error) {
	signup, err := s.signups.GetByID(ctx, signupID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, NewNotFoundError("signup not found", CodeSignupNotFound)
		}
		return nil, NewInternalError("failed to load signup")
	}
	return signup, nil
}
