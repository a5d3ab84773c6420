package services

import (
	"context"
	"testing"

	"activityhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func int64Ptr(v int64) *int64 { return &v }

func (env *testEnv) addRule(t *testing.T, req *BadgeRuleRequest) *models.BadgeRule {
	t.Helper()
	rule, err := env.rules.CreateRule(context.Background(), req)
	require.NoError(t, err)
	return rule
}

// checkin approves and checks in one fresh signup for the participant
func (env *testEnv) checkin(t *testing.T, activityID, participantID int64) {
	t.Helper()
	token := env.issueToken(activityID)
	signup := env.submit(t, activityID, participantID)
	env.approve(t, signup.ID)
	_, err := env.signups.Checkin(context.Background(), &CheckinRequest{
		SignupID: signup.ID,
		Token:    token,
	})
	require.NoError(t, err)
}

// ===============================
// RULE MANAGEMENT
// ===============================

func TestCreateRuleRequiresExistingBadge(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.rules.CreateRule(context.Background(), &BadgeRuleRequest{
		Name:     "orphan",
		RuleType: models.RuleFirstApproved,
		BadgeID:  99,
	})
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeBadgeNotFound))
}

func TestRuleLifecycleIsAudited(t *testing.T) {
	env := newTestEnv(t)
	env.addBadge(1, "starter")

	rule := env.addRule(t, &BadgeRuleRequest{
		Name:     "first approval",
		RuleType: models.RuleFirstApproved,
		BadgeID:  1,
	})
	assert.True(t, rule.IsActive, "rules default to active")

	updated, err := env.rules.UpdateRule(context.Background(), rule.ID, &BadgeRuleRequest{
		Name:     "first approval",
		RuleType: models.RuleFirstApproved,
		BadgeID:  1,
		IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	require.NoError(t, env.rules.DeleteRule(context.Background(), rule.ID))

	actions := env.auditRepo.actions()
	count := 0
	for _, action := range actions {
		if action == models.AuditBadgeRuleChanged {
			count++
		}
	}
	assert.Equal(t, 3, count, "created, updated and deleted each leave a trail")

	err = env.rules.DeleteRule(context.Background(), rule.ID)
	assert.True(t, HasCode(err, CodeRuleNotFound))
}

func TestListRulesFiltersInactive(t *testing.T) {
	env := newTestEnv(t)
	env.addBadge(1, "starter")
	env.addRule(t, &BadgeRuleRequest{
		Name:     "active",
		RuleType: models.RuleFirstApproved,
		BadgeID:  1,
	})
	env.addRule(t, &BadgeRuleRequest{
		Name:     "dormant",
		RuleType: models.RuleFirstApproved,
		BadgeID:  1,
		IsActive: boolPtr(false),
	})

	active, err := env.rules.ListRules(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := env.rules.ListRules(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// ===============================
// LIVE EVALUATION
// ===============================

func TestFirstApprovedRuleAwardsOnce(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addActivity(1)
	env.addActivity(2)
	env.addBadge(1, "starter")
	env.addRule(t, &BadgeRuleRequest{
		Name:     "first approval",
		RuleType: models.RuleFirstApproved,
		BadgeID:  1,
	})

	first := env.submit(t, 1, 10)
	env.approve(t, first.ID)

	awards, err := env.badgeRepo.ListUserBadges(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, awards, 1)
	assert.Equal(t, int64(1), awards[0].BadgeID)
	require.NotNil(t, awards[0].Notes)
	assert.Equal(t, "first approval", *awards[0].Notes)

	second := env.submit(t, 2, 10)
	env.approve(t, second.ID)

	awards, err = env.badgeRepo.ListUserBadges(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, awards, 1, "a prior approval disqualifies the rule")

	assert.Contains(t, env.auditRepo.actions(), models.AuditBadgeRuleTriggered)
}

func TestTotalCheckedInRuleAwardsAtThreshold(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addBadge(1, "regular")
	rule := env.addRule(t, &BadgeRuleRequest{
		Name:      "two checkins",
		RuleType:  models.RuleTotalCheckedIn,
		BadgeID:   1,
		Threshold: intPtr(2),
	})

	env.addActivity(1)
	env.checkin(t, 1, 10)
	_, err := env.badgeRepo.GetUserBadge(context.Background(), 10, rule.BadgeID)
	assert.Error(t, err, "one check-in is below the threshold")

	env.addActivity(2)
	env.checkin(t, 2, 10)
	award, err := env.badgeRepo.GetUserBadge(context.Background(), 10, rule.BadgeID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), award.BadgeID)
}

func TestActivityTagAttendanceRule(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addBadge(1, "workshop_fan")
	env.addRule(t, &BadgeRuleRequest{
		Name:             "workshop attendance",
		RuleType:         models.RuleActivityTagAttendance,
		BadgeID:          1,
		Threshold:        intPtr(2),
		ActivityTagScope: []string{"workshop"},
	})

	env.addActivity(1, "workshop")
	env.addActivity(2, "social")
	env.addActivity(3, "workshop", "evening")

	first := env.submit(t, 1, 10)
	env.approve(t, first.ID)
	offTopic := env.submit(t, 2, 10)
	env.approve(t, offTopic.ID)

	awards, err := env.badgeRepo.ListUserBadges(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, awards, "only one of two approvals matches the tag scope")

	second := env.submit(t, 3, 10)
	env.approve(t, second.ID)

	awards, err = env.badgeRepo.ListUserBadges(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, awards, 1)
	assert.Equal(t, int64(1), awards[0].BadgeID)
}

func TestDuplicateRuleAwardIsSwallowed(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addBadge(1, "regular")
	env.addRule(t, &BadgeRuleRequest{
		Name:      "one checkin",
		RuleType:  models.RuleTotalCheckedIn,
		BadgeID:   1,
		Threshold: intPtr(1),
	})

	env.addActivity(1)
	env.checkin(t, 1, 10)
	env.addActivity(2)
	env.checkin(t, 2, 10) // rule matches again

	awards, err := env.badgeRepo.ListUserBadges(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, awards, 1, "the second trigger hits the uniqueness constraint and is dropped")
}

// ===============================
// PREVIEW
// ===============================

func TestPreviewFirstApproved(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addActivity(1)
	env.addBadge(1, "starter")
	rule := env.addRule(t, &BadgeRuleRequest{
		Name:     "first approval",
		RuleType: models.RuleFirstApproved,
		BadgeID:  1,
	})

	// No approvals yet: the next one would be the first
	result, err := env.rules.Preview(context.Background(), rule.ID, &RulePreviewRequest{ParticipantID: 10})
	require.NoError(t, err)
	assert.True(t, result.Eligible)

	signup := env.submit(t, 1, 10)
	env.approve(t, signup.ID)

	result, err = env.rules.Preview(context.Background(), rule.ID, &RulePreviewRequest{ParticipantID: 10})
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.Equal(t, ReasonAlreadyHasApproval, result.Reason)
}

func TestPreviewReasonCodes(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addBadge(1, "starter")

	noThreshold := env.addRule(t, &BadgeRuleRequest{
		Name:     "no threshold",
		RuleType: models.RuleTotalApproved,
		BadgeID:  1,
	})
	result, err := env.rules.Preview(context.Background(), noThreshold.ID, &RulePreviewRequest{ParticipantID: 10})
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.Equal(t, ReasonThresholdNotSet, result.Reason)

	noScope := env.addRule(t, &BadgeRuleRequest{
		Name:      "no scope",
		RuleType:  models.RuleActivityTagAttendance,
		BadgeID:   1,
		Threshold: intPtr(1),
	})
	// Tag rules need an activity before anything else
	result, err = env.rules.Preview(context.Background(), noScope.ID, &RulePreviewRequest{ParticipantID: 10})
	require.NoError(t, err)
	assert.Equal(t, ReasonActivityRequired, result.Reason)

	result, err = env.rules.Preview(context.Background(), noScope.ID, &RulePreviewRequest{ParticipantID: 10, ActivityID: int64Ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, ReasonTagScopeMissing, result.Reason)

	dormant := env.addRule(t, &BadgeRuleRequest{
		Name:      "dormant",
		RuleType:  models.RuleTotalApproved,
		BadgeID:   1,
		Threshold: intPtr(1),
		IsActive:  boolPtr(false),
	})
	result, err = env.rules.Preview(context.Background(), dormant.ID, &RulePreviewRequest{ParticipantID: 10})
	require.NoError(t, err)
	assert.Equal(t, ReasonRuleInactive, result.Reason)

	thresholded := env.addRule(t, &BadgeRuleRequest{
		Name:      "three approvals",
		RuleType:  models.RuleTotalApproved,
		BadgeID:   1,
		Threshold: intPtr(3),
	})
	result, err = env.rules.Preview(context.Background(), thresholded.ID, &RulePreviewRequest{ParticipantID: 10})
	require.NoError(t, err)
	assert.Equal(t, "requires_3", result.Reason)
}

func TestEvaluateRequiresActivityForTagRules(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addBadge(1, "workshop_fan")
	rule := env.addRule(t, &BadgeRuleRequest{
		Name:             "workshop attendance",
		RuleType:         models.RuleActivityTagAttendance,
		BadgeID:          1,
		ActivityTagScope: []string{"workshop"},
	})

	engine, ok := env.rules.(*badgeRuleService)
	require.True(t, ok)

	eligible, reason, err := engine.evaluate(context.Background(), rule, &RuleEvaluation{
		Event:         "checkin",
		ParticipantID: 10,
		SignupID:      int64Ptr(5),
	})
	require.NoError(t, err)
	assert.False(t, eligible)
	assert.Equal(t, ReasonActivityRequired, reason)
}
