// file: internal/services/badge_rule_service.go
package services

import (
	"context"
	"fmt"

	"activityhub/internal/models"
	"activityhub/internal/repositories"

	"go.uber.org/zap"
)

// Preview reason codes explaining why a rule would not award
const (
	ReasonAlreadyHasApproval  = "already_has_approval"
	ReasonThresholdNotSet     = "threshold_not_set"
	ReasonTagScopeMissing     = "tag_scope_missing"
	ReasonActivityRequired    = "activity_required"
	ReasonRuleInactive        = "rule_inactive"
	ReasonUnsupportedRuleType = "unsupported_rule_type"
)

// ruleEvaluator decides eligibility for one rule type. Eligible false
// comes with a reason code; the same evaluators back both the live
// engine and preview.
type ruleEvaluator func(ctx context.Context, rule *models.BadgeRule, eval *RuleEvaluation) (bool, string, error)

// badgeRuleService is the declarative layer of badge automation: it
// matches configured rules against participant history and routes
// awards through BadgeService.
type badgeRuleService struct {
	badges     repositories.BadgeRepository
	signups    repositories.SignupRepository
	awarder    BadgeService
	audit      AuditService
	logger     *zap.Logger
	evaluators map[models.BadgeRuleType]ruleEvaluator
}

// NewBadgeRuleService creates a new badge rule service
func NewBadgeRuleService(
	badges repositories.BadgeRepository,
	signups repositories.SignupRepository,
	awarder BadgeService,
	audit AuditService,
	logger *zap.Logger,
) BadgeRuleService {
	s := &badgeRuleService{
		badges:  badges,
		signups: signups,
		awarder: awarder,
		audit:   audit,
		logger:  logger,
	}
	s.evaluators = map[models.BadgeRuleType]ruleEvaluator{
		models.RuleFirstApproved:         s.evalFirstApproved,
		models.RuleTotalApproved:         s.evalTotalApproved,
		models.RuleTotalCheckedIn:        s.evalTotalCheckedIn,
		models.RuleActivityTagAttendance: s.evalActivityTagAttendance,
	}
	return s
}

// ===============================
// RULE MANAGEMENT
// ===============================

func (s *badgeRuleService) ListRules(ctx context.Context, includeInactive bool) ([]*models.BadgeRule, error) {
	rules, err := s.badges.ListRules(ctx, !includeInactive)
	if err != nil {
		return nil, NewInternalError("failed to list badge rules")
	}
	return rules, nil
}

func (s *badgeRuleService) CreateRule(ctx context.Context, req *BadgeRuleRequest) (*models.BadgeRule, error) {
	if err := s.validateRuleRequest(ctx, req); err != nil {
		return nil, err
	}

	rule := &models.BadgeRule{
		Name:             req.Name,
		RuleType:         req.RuleType,
		BadgeID:          req.BadgeID,
		Threshold:        req.Threshold,
		ActivityTagScope: models.StringArray(req.ActivityTagScope),
		Notes:            req.Notes,
		IsActive:         true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := s.badges.CreateRule(ctx, rule); err != nil {
		return nil, NewInternalError("failed to create badge rule")
	}

	s.recordRuleChange(ctx, rule, "created")
	return rule, nil
}

func (s *badgeRuleService) UpdateRule(ctx context.Context, ruleID int64, req *BadgeRuleRequest) (*models.BadgeRule, error) {
	rule, err := s.requireRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if err := s.validateRuleRequest(ctx, req); err != nil {
		return nil, err
	}

	rule.Name = req.Name
	rule.RuleType = req.RuleType
	rule.BadgeID = req.BadgeID
	rule.Threshold = req.Threshold
	rule.ActivityTagScope = models.StringArray(req.ActivityTagScope)
	rule.Notes = req.Notes
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := s.badges.UpdateRule(ctx, rule); err != nil {
		return nil, NewInternalError("failed to update badge rule")
	}

	s.recordRuleChange(ctx, rule, "updated")
	return rule, nil
}

func (s *badgeRuleService) DeleteRule(ctx context.Context, ruleID int64) error {
	rule, err := s.requireRule(ctx, ruleID)
	if err != nil {
		return err
	}
	if err := s.badges.DeleteRule(ctx, ruleID); err != nil {
		return NewInternalError("failed to delete badge rule")
	}

	s.recordRuleChange(ctx, rule, "deleted")
	return nil
}

func (s *badgeRuleService) validateRuleRequest(ctx context.Context, req *BadgeRuleRequest) error {
	if !req.RuleType.IsValid() {
		return NewValidationError(fmt.Sprintf("unknown rule type %q", req.RuleType), nil)
	}
	if _, err := s.badges.GetBadge(ctx, req.BadgeID); err != nil {
		if repositories.IsNotFound(err) {
			return NewNotFoundError("badge not found", CodeBadgeNotFound)
		}
		return NewInternalError("failed to load badge")
	}
	return nil
}

// ===============================
// RULE EVALUATION
// ===============================

// EvaluateRules runs every active rule against the event context.
// Evaluation failures and duplicate awards are logged and skipped so
// one broken rule never blocks the rest, and a rule failure never
// propagates into the signup lifecycle.
func (s *badgeRuleService) EvaluateRules(ctx context.Context, eval *RuleEvaluation) error {
	rules, err := s.badges.ListRules(ctx, true)
	if err != nil {
		s.logger.Error("Failed to load active badge rules", zap.Error(err))
		return NewInternalError("failed to load badge rules")
	}

	for _, rule := range rules {
		eligible, reason, err := s.evaluate(ctx, rule, eval)
		if err != nil {
			s.logger.Error("Badge rule evaluation failed",
				zap.Int64("rule_id", rule.ID),
				zap.String("rule_type", string(rule.RuleType)),
				zap.Error(err),
			)
			continue
		}
		if !eligible {
			s.logger.Debug("Badge rule not eligible",
				zap.Int64("rule_id", rule.ID),
				zap.Int64("participant_id", eval.ParticipantID),
				zap.String("reason", reason),
			)
			continue
		}
		s.award(ctx, rule, eval)
	}
	return nil
}

// evaluate dispatches to the rule type's evaluator
func (s *badgeRuleService) evaluate(ctx context.Context, rule *models.BadgeRule, eval *RuleEvaluation) (bool, string, error) {
	if !rule.IsActive {
		return false, ReasonRuleInactive, nil
	}
	evaluator, ok := s.evaluators[rule.RuleType]
	if !ok {
		return false, ReasonUnsupportedRuleType, nil
	}
	return evaluator(ctx, rule, eval)
}

// award grants the rule's badge, tolerating the already-awarded outcome
func (s *badgeRuleService) award(ctx context.Context, rule *models.BadgeRule, eval *RuleEvaluation) {
	_, err := s.awarder.AwardByBadgeID(ctx, &AwardBadgeByIDRequest{
		ParticipantID: eval.ParticipantID,
		BadgeID:       rule.BadgeID,
		ActivityID:    eval.ActivityID,
		Notes:         &rule.Name,
	})
	if err != nil {
		if HasCode(err, CodeBadgeAlreadyAwarded) {
			return
		}
		s.logger.Error("Rule-driven badge award failed",
			zap.Int64("rule_id", rule.ID),
			zap.Int64("participant_id", eval.ParticipantID),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Badge rule triggered",
		zap.Int64("rule_id", rule.ID),
		zap.Int64("participant_id", eval.ParticipantID),
		zap.Int64("badge_id", rule.BadgeID),
	)
	entry := &AuditRecord{
		Action:             models.AuditBadgeRuleTriggered,
		EntityType:         models.AuditEntityBadgeRule,
		EntityID:           &rule.ID,
		ActorParticipantID: &eval.ParticipantID,
		Context: models.JSONMap{
			"rule_type": string(rule.RuleType),
			"badge_id":  rule.BadgeID,
			"event":     eval.Event,
		},
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record rule trigger audit entry",
			zap.Int64("rule_id", rule.ID),
			zap.Error(err),
		)
	}
}

// Preview runs one rule's evaluator without awarding
func (s *badgeRuleService) Preview(ctx context.Context, ruleID int64, req *RulePreviewRequest) (*RulePreviewResult, error) {
	rule, err := s.requireRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	eligible, reason, err := s.evaluate(ctx, rule, &RuleEvaluation{
		Event:         "preview",
		ParticipantID: req.ParticipantID,
		ActivityID:    req.ActivityID,
	})
	if err != nil {
		return nil, NewInternalError("failed to evaluate badge rule")
	}
	return &RulePreviewResult{
		RuleID:   rule.ID,
		Eligible: eligible,
		Reason:   reason,
	}, nil
}

func (s *badgeRuleService) requireRule(ctx context.Context, ruleID int64) (*models.BadgeRule, error) {
	rule, err := s.badges.GetRule(ctx, ruleID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, NewNotFoundError("badge rule not found", CodeRuleNotFound)
		}
		return nil, NewInternalError("failed to load badge rule")
	}
	return rule, nil
}

// ===============================
// EVALUATORS
// ===============================

// evalFirstApproved: eligible iff the participant has no other approved
// signup. The evaluation-time signup is excluded from the count so the
// approval being processed counts as the first.
func (s *badgeRuleService) evalFirstApproved(ctx context.Context, rule *models.BadgeRule, eval *RuleEvaluation) (bool, string, error) {
	prior, err := s.signups.CountApprovedByParticipant(ctx, eval.ParticipantID, eval.SignupID)
	if err != nil {
		return false, "", err
	}
	if prior > 0 {
		return false, ReasonAlreadyHasApproval, nil
	}
	return true, "", nil
}

func (s *badgeRuleService) evalTotalApproved(ctx context.Context, rule *models.BadgeRule, eval *RuleEvaluation) (bool, string, error) {
	threshold := rule.ThresholdValue()
	if threshold <= 0 {
		return false, ReasonThresholdNotSet, nil
	}
	total, err := s.signups.CountApprovedByParticipant(ctx, eval.ParticipantID, nil)
	if err != nil {
		return false, "", err
	}
	if total < threshold {
		return false, fmt.Sprintf("requires_%d", threshold), nil
	}
	return true, "", nil
}

func (s *badgeRuleService) evalTotalCheckedIn(ctx context.Context, rule *models.BadgeRule, eval *RuleEvaluation) (bool, string, error) {
	threshold := rule.ThresholdValue()
	if threshold <= 0 {
		return false, ReasonThresholdNotSet, nil
	}
	total, err := s.signups.CountCheckedInByParticipant(ctx, eval.ParticipantID)
	if err != nil {
		return false, "", err
	}
	if total < threshold {
		return false, fmt.Sprintf("requires_%d", threshold), nil
	}
	return true, "", nil
}

// evalActivityTagAttendance counts approved signups whose activity tags
// overlap the rule's scope. Threshold defaults to 1 when unset.
func (s *badgeRuleService) evalActivityTagAttendance(ctx context.Context, rule *models.BadgeRule, eval *RuleEvaluation) (bool, string, error) {
	if eval.ActivityID == nil {
		return false, ReasonActivityRequired, nil
	}
	if len(rule.ActivityTagScope) == 0 {
		return false, ReasonTagScopeMissing, nil
	}

	threshold := rule.ThresholdValue()
	if threshold <= 0 {
		threshold = 1
	}
	total, err := s.signups.CountApprovedWithTags(ctx, eval.ParticipantID, rule.ActivityTagScope)
	if err != nil {
		return false, "", err
	}
	if total < threshold {
		return false, fmt.Sprintf("requires_%d", threshold), nil
	}
	return true, "", nil
}

func (s *badgeRuleService) recordRuleChange(ctx context.Context, rule *models.BadgeRule, change string) {
	entry := &AuditRecord{
		Action:     models.AuditBadgeRuleChanged,
		EntityType: models.AuditEntityBadgeRule,
		EntityID:   &rule.ID,
		Context: models.JSONMap{
			"change":    change,
			"rule_type": string(rule.RuleType),
			"badge_id":  rule.BadgeID,
		},
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record rule change audit entry",
			zap.Int64("rule_id", rule.ID),
			zap.Error(err),
		)
	}
}
