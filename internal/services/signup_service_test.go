package services

import (
	"context"
	"testing"
	"time"

	"activityhub/internal/cache"
	"activityhub/internal/config"
	"activityhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEnv wires the real service graph over in-memory fakes
type testEnv struct {
	activities    *fakeActivityRepo
	participants  *fakeParticipantRepo
	signupRepo    *fakeSignupRepo
	badgeRepo     *fakeBadgeRepo
	notifRepo     *fakeNotificationRepo
	auditRepo     *fakeAuditRepo
	senders       *SenderRegistry
	notifications NotificationService
	badges        BadgeService
	rules         BadgeRuleService
	signups       SignupService
	activitySvc   ActivityService
	audit         AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	notifConfig := config.NotificationConfig{
		WechatSender:      "mock",
		EmailSender:       "mock",
		SMSSender:         "mock",
		DispatchBatchSize: 100,
		MaxRetries:        5,
	}
	badgeConfig := config.BadgeConfig{
		AutoRulesEnabled:          true,
		FirstAttendanceCode:       "first_attendance",
		CheckinCode:               "checkin_complete",
		RepeatAttendanceCode:      "repeat_attendance",
		RepeatAttendanceThreshold: 3,
	}

	env := &testEnv{
		activities:   newFakeActivityRepo(),
		participants: newFakeParticipantRepo(),
		badgeRepo:    newFakeBadgeRepo(),
		notifRepo:    newFakeNotificationRepo(),
		auditRepo:    &fakeAuditRepo{},
	}
	env.signupRepo = newFakeSignupRepo(env.activities)

	env.audit = NewAuditService(env.auditRepo, logger)
	env.senders = NewSenderRegistry(notifConfig, logger)
	env.notifications = NewNotificationService(env.notifRepo, env.audit, env.senders, notifConfig, logger)
	env.badges = NewBadgeService(env.badgeRepo, env.participants, env.activities, env.audit, logger)
	env.rules = NewBadgeRuleService(env.badgeRepo, env.signupRepo, env.badges, env.audit, logger)
	env.activitySvc = NewActivityService(env.activities, cache.NewMemoryCache(cache.DefaultConfig(), logger), env.audit, logger)
	env.signups = NewSignupService(
		env.signupRepo,
		env.activities,
		env.participants,
		env.notifications,
		env.rules,
		env.badges,
		env.audit,
		passTx{},
		badgeConfig,
		logger,
	)
	return env
}

func (env *testEnv) addParticipant(id int64) {
	env.participants.participants[id] = &models.Participant{
		ID:       id,
		Name:     "Participant",
		IsActive: true,
	}
}

func (env *testEnv) addActivity(id int64, tags ...string) *models.Activity {
	activity := &models.Activity{
		ID:     id,
		Title:  "Activity",
		Status: models.ActivityStatusPublished,
		Tags:   models.StringArray(tags),
	}
	env.activities.activities[id] = activity
	return activity
}

func (env *testEnv) issueToken(activityID int64) string {
	token := "checkin-token"
	expires := time.Now().Add(time.Hour)
	activity := env.activities.activities[activityID]
	activity.CheckinToken = &token
	activity.CheckinTokenExpiresAt = &expires
	return token
}

func (env *testEnv) addBadge(id int64, code string) *models.Badge {
	badge := &models.Badge{
		ID:       id,
		Code:     code,
		Name:     code,
		IsActive: true,
	}
	env.badgeRepo.badges[id] = badge
	return badge
}

func (env *testEnv) submit(t *testing.T, activityID, participantID int64) *models.Signup {
	t.Helper()
	signup, err := env.signups.Submit(context.Background(), &SubmitSignupRequest{
		ActivityID:    activityID,
		ParticipantID: participantID,
	})
	require.NoError(t, err)
	return signup
}

func (env *testEnv) approve(t *testing.T, signupID int64) *models.Signup {
	t.Helper()
	signup, err := env.signups.Review(context.Background(), &ReviewRequest{
		SignupID:     signupID,
		ActorAdminID: 1,
		Action:       ReviewApprove,
	})
	require.NoError(t, err)
	return signup
}

// ===============================
// SUBMISSION
// ===============================

func TestSubmitSignup(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addActivity(1)

	signup := env.submit(t, 1, 10)
	assert.Equal(t, models.SignupStatusPending, signup.Status)
	assert.Equal(t, models.CheckinStatusNotCheckedIn, signup.CheckinStatus)

	// The submission notification is enqueued and delivered immediately
	logs, err := env.notifRepo.List(context.Background(), notificationFilterFor(10))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.EventSignupSubmitted, logs[0].Event)
	assert.Equal(t, models.NotificationSent, logs[0].Status)
}

func TestSubmitSignupDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addActivity(1)

	env.submit(t, 1, 10)
	_, err := env.signups.Submit(context.Background(), &SubmitSignupRequest{
		ActivityID:    1,
		ParticipantID: 10,
	})
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeDuplicateSignup))
}

func TestSubmitSignupInactiveParticipant(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.participants.participants[10].IsActive = false
	env.addActivity(1)

	_, err := env.signups.Submit(context.Background(), &SubmitSignupRequest{
		ActivityID:    1,
		ParticipantID: 10,
	})
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeParticipantInactive))
}

// ===============================
// REVIEW
// ===============================

func TestReviewApprove(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addActivity(1)
	signup := env.submit(t, 1, 10)

	reviewed, err := env.signups.Review(context.Background(), &ReviewRequest{
		SignupID:     signup.ID,
		ActorAdminID: 7,
		Action:       ReviewApprove,
		Message:      "welcome",
	})
	require.NoError(t, err)

	assert.Equal(t, models.SignupStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ApprovalRemark)
	assert.Equal(t, "welcome", *reviewed.ApprovalRemark)
	assert.Nil(t, reviewed.RejectionReason)
	assert.NotNil(t, reviewed.ApprovedAt)
	require.NotNil(t, reviewed.ReviewedByAdminID)
	assert.Equal(t, int64(7), *reviewed.ReviewedByAdminID)

	assert.Contains(t, env.auditRepo.actions(), models.AuditSignupReviewed)
}

func TestReviewReject(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addActivity(1)
	signup := env.submit(t, 1, 10)

	reviewed, err := env.signups.Review(context.Background(), &ReviewRequest{
		SignupID:     signup.ID,
		ActorAdminID: 7,
		Action:       ReviewReject,
		Message:      "full",
	})
	require.NoError(t, err)

	assert.Equal(t, models.SignupStatusRejected, reviewed.Status)
	require.NotNil(t, reviewed.RejectionReason)
	assert.Equal(t, "full", *reviewed.RejectionReason)
	assert.Nil(t, reviewed.ApprovalRemark)
	assert.Nil(t, reviewed.ApprovedAt)
}

func TestReviewTerminalStateIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addActivity(1)
	signup := env.submit(t, 1, 10)
	env.approve(t, signup.ID)

	// A second review, even with the opposite decision, changes nothing
	again, err := env.signups.Review(context.Background(), &ReviewRequest{
		SignupID:     signup.ID,
		ActorAdminID: 9,
		Action:       ReviewReject,
		Message:      "too late",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SignupStatusApproved, again.Status)
	assert.Nil(t, again.RejectionReason)

	stored, err := env.signupRepo.GetByID(context.Background(), signup.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SignupStatusApproved, stored.Status)

	// Both the approval and the no-op leave an audit trail
	reviews := 0
	for _, action := range env.auditRepo.actions() {
		if action == models.AuditSignupReviewed {
			reviews++
		}
	}
	assert.Equal(t, 2, reviews)
}

func TestBulkReviewMixedOutcomes(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addParticipant(11)
	env.addActivity(1)

	first := env.submit(t, 1, 10)
	second := env.submit(t, 1, 11)
	env.approve(t, second.ID) // terminal before the bulk run

	result, err := env.signups.BulkReview(context.Background(), &BulkReviewRequest{
		SignupIDs:    []int64{first.ID, second.ID, 999},
		ActorAdminID: 7,
		Action:       ReviewApprove,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Details, 3)
	assert.Equal(t, "success", result.Details[0].Status)
	assert.Equal(t, "skipped", result.Details[1].Status)
	assert.Equal(t, "current_status_approved", result.Details[1].Reason)
	assert.Equal(t, "not_found", result.Details[2].Status)

	assert.Contains(t, env.auditRepo.actions(), models.AuditSignupBulkReviewed)
}

// ===============================
// CHECK-IN
// ===============================

func TestCheckinRequiresApproval(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addActivity(1)
	signup := env.submit(t, 1, 10)

	_, err := env.signups.Checkin(context.Background(), &CheckinRequest{
		SignupID: signup.ID,
		Token:    "anything",
	})
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeSignupNotApproved))

	// Force does not waive the approval precondition
	_, err = env.signups.Checkin(context.Background(), &CheckinRequest{
		SignupID: signup.ID,
		Force:    true,
	})
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeSignupNotApproved))
}

func TestCheckinTokenValidation(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	activity := env.addActivity(1)
	signup := env.submit(t, 1, 10)
	env.approve(t, signup.ID)

	// No token issued yet
	_, err := env.signups.Checkin(context.Background(), &CheckinRequest{
		SignupID: signup.ID,
		Token:    "whatever",
	})
	assert.True(t, HasCode(err, CodeTokenUnavailable))

	token := "secret-token"
	future := time.Now().Add(time.Hour)
	activity.CheckinToken = &token
	activity.CheckinTokenExpiresAt = &future

	// Wrong token
	_, err = env.signups.Checkin(context.Background(), &CheckinRequest{
		SignupID: signup.ID,
		Token:    "wrong",
	})
	assert.True(t, HasCode(err, CodeInvalidCheckinToken))

	// Expired token
	past := time.Now().Add(-time.Minute)
	activity.CheckinTokenExpiresAt = &past
	_, err = env.signups.Checkin(context.Background(), &CheckinRequest{
		SignupID: signup.ID,
		Token:    token,
	})
	assert.True(t, HasCode(err, CodeCheckinTokenExpired))

	// Valid token
	activity.CheckinTokenExpiresAt = &future
	checked, err := env.signups.Checkin(context.Background(), &CheckinRequest{
		SignupID: signup.ID,
		Token:    token,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CheckinStatusCheckedIn, checked.CheckinStatus)
	assert.NotNil(t, checked.CheckinTime)

	// Re-checkin conflicts without force
	_, err = env.signups.Checkin(context.Background(), &CheckinRequest{
		SignupID: signup.ID,
		Token:    token,
	})
	assert.True(t, HasCode(err, CodeAlreadyCheckedIn))

	// Force re-checks in and stamps a fresh checkin_time
	firstTime := *checked.CheckinTime
	again, err := env.signups.Checkin(context.Background(), &CheckinRequest{
		SignupID: signup.ID,
		Force:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CheckinStatusCheckedIn, again.CheckinStatus)
	require.NotNil(t, again.CheckinTime)
	assert.True(t, again.CheckinTime.After(firstTime))
}

func TestCheckinForceBypassesTokenMatch(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addActivity(1)
	env.issueToken(1)
	signup := env.submit(t, 1, 10)
	env.approve(t, signup.ID)

	// Wrong token, but force skips the match check
	checked, err := env.signups.Checkin(context.Background(), &CheckinRequest{
		SignupID: signup.ID,
		Token:    "wrong",
		Force:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CheckinStatusCheckedIn, checked.CheckinStatus)

	assert.Contains(t, env.auditRepo.actions(), models.AuditSignupCheckedIn)

	// Check-in pushes a reminder notification after the state change
	logs, err := env.notifRepo.List(context.Background(), notificationFilterFor(10))
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	last := logs[len(logs)-1]
	assert.Equal(t, models.EventCheckinReminder, last.Event)
	assert.Equal(t, models.NotificationSent, last.Status)
}

func TestCheckinForceRequiresIssuedToken(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addActivity(1) // no token issued
	signup := env.submit(t, 1, 10)
	env.approve(t, signup.ID)

	_, err := env.signups.Checkin(context.Background(), &CheckinRequest{
		SignupID: signup.ID,
		Force:    true,
	})
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeTokenUnavailable))
}

// ===============================
// LEGACY BADGE FALLBACKS
// ===============================

func TestFirstAttendanceBadgeOnApproval(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addActivity(1)
	env.addActivity(2)
	badge := env.addBadge(1, "first_attendance")

	first := env.submit(t, 1, 10)
	env.approve(t, first.ID)

	awards, err := env.badgeRepo.ListUserBadges(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, awards, 1)
	assert.Equal(t, badge.ID, awards[0].BadgeID)

	// A second approval does not award again
	second := env.submit(t, 2, 10)
	env.approve(t, second.ID)
	awards, err = env.badgeRepo.ListUserBadges(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, awards, 1)
}

func TestRepeatAttendanceBadgeAtThreshold(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	repeat := env.addBadge(2, "repeat_attendance")

	for i := int64(1); i <= 3; i++ {
		env.addActivity(i)
		signup := env.submit(t, i, 10)
		env.approve(t, signup.ID)

		award, err := env.badgeRepo.GetUserBadge(context.Background(), 10, repeat.ID)
		if i < 3 {
			assert.Error(t, err, "no award before the approval threshold")
		} else {
			require.NoError(t, err)
			assert.Equal(t, repeat.ID, award.BadgeID)
		}
	}
}

func TestCheckinBadgeOnCheckin(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addActivity(1)
	token := env.issueToken(1)
	badge := env.addBadge(3, "checkin_complete")

	signup := env.submit(t, 1, 10)
	env.approve(t, signup.ID)
	_, err := env.signups.Checkin(context.Background(), &CheckinRequest{
		SignupID: signup.ID,
		Token:    token,
	})
	require.NoError(t, err)

	award, err := env.badgeRepo.GetUserBadge(context.Background(), 10, badge.ID)
	require.NoError(t, err)
	assert.Equal(t, badge.ID, award.BadgeID)
}

func TestAutoAwardDisabledSkipsFallbacks(t *testing.T) {
	env := newTestEnv(t)
	env.signups = NewSignupService(
		env.signupRepo,
		env.activities,
		env.participants,
		env.notifications,
		env.rules,
		env.badges,
		env.audit,
		passTx{},
		config.BadgeConfig{
			AutoRulesEnabled:          false,
			FirstAttendanceCode:       "first_attendance",
			CheckinCode:               "checkin_complete",
			RepeatAttendanceCode:      "repeat_attendance",
			RepeatAttendanceThreshold: 3,
		},
		zap.NewNop(),
	)
	env.addParticipant(10)
	env.addActivity(1)
	token := env.issueToken(1)
	env.addBadge(1, "first_attendance")
	env.addBadge(2, "checkin_complete")

	signup := env.submit(t, 1, 10)
	env.approve(t, signup.ID)
	_, err := env.signups.Checkin(context.Background(), &CheckinRequest{
		SignupID: signup.ID,
		Token:    token,
	})
	require.NoError(t, err)

	awards, err := env.badgeRepo.ListUserBadges(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, awards, "the flag disables the fixed-code awards too")
}

// ===============================
// QUERIES
// ===============================

func TestActivityStats(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addParticipant(11)
	env.addParticipant(12)
	env.addActivity(1)

	a := env.submit(t, 1, 10)
	b := env.submit(t, 1, 11)
	env.submit(t, 1, 12)
	env.approve(t, a.ID)
	env.approve(t, b.ID)
	env.issueToken(1)
	_, err := env.signups.Checkin(context.Background(), &CheckinRequest{SignupID: a.ID, Force: true})
	require.NoError(t, err)

	stats, err := env.signups.ActivityStats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalSignups)
	assert.Equal(t, 2, stats.StatusCounts[models.SignupStatusApproved])
	assert.Equal(t, 1, stats.StatusCounts[models.SignupStatusPending])
	assert.Equal(t, 1, stats.CheckinCounts[models.CheckinStatusCheckedIn])
}

func TestSendReminder(t *testing.T) {
	env := newTestEnv(t)
	env.addParticipant(10)
	env.addActivity(1)
	signup := env.submit(t, 1, 10)

	_, err := env.signups.SendReminder(context.Background(), signup.ID, models.EventCheckinReminder)
	require.NoError(t, err)

	logs, err := env.notifRepo.List(context.Background(), notificationFilterFor(10))
	require.NoError(t, err)
	require.Len(t, logs, 2) // submission + reminder
	assert.Equal(t, models.EventCheckinReminder, logs[1].Event)

	_, err = env.signups.SendReminder(context.Background(), signup.ID, models.EventSignupApproved)
	assert.Error(t, err, "lifecycle events are not reminders")
}
