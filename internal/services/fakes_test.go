package services

import (
	"context"
	"sort"
	"time"

	"activityhub/internal/models"
	"activityhub/internal/repositories"
)

// ===============================
// IN-MEMORY REPOSITORY FAKES
// ===============================

// passTx is a pass-through unit of work for tests
type passTx struct{}

func (passTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeActivityRepo struct {
	activities map[int64]*models.Activity
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{activities: make(map[int64]*models.Activity)}
}

func (r *fakeActivityRepo) GetByID(ctx context.Context, id int64) (*models.Activity, error) {
	activity, ok := r.activities[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *activity
	return &copied, nil
}

func (r *fakeActivityRepo) SetCheckinToken(ctx context.Context, activityID int64, token string, expiresAt *time.Time) error {
	activity, ok := r.activities[activityID]
	if !ok {
		return repositories.ErrNotFound
	}
	activity.CheckinToken = &token
	activity.CheckinTokenExpiresAt = expiresAt
	return nil
}

func (r *fakeActivityRepo) ClearCheckinToken(ctx context.Context, activityID int64) error {
	activity, ok := r.activities[activityID]
	if !ok {
		return repositories.ErrNotFound
	}
	activity.CheckinToken = nil
	activity.CheckinTokenExpiresAt = nil
	return nil
}

type fakeParticipantRepo struct {
	participants map[int64]*models.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[int64]*models.Participant)}
}

func (r *fakeParticipantRepo) GetByID(ctx context.Context, id int64) (*models.Participant, error) {
	participant, ok := r.participants[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *participant
	return &copied, nil
}

// fakeSignupRepo mirrors the partial uniqueness constraint and history
// counters of the real postgres repository.
type fakeSignupRepo struct {
	signups    map[int64]*models.Signup
	activities *fakeActivityRepo
	nextID     int64
}

func newFakeSignupRepo(activities *fakeActivityRepo) *fakeSignupRepo {
	return &fakeSignupRepo{
		signups:    make(map[int64]*models.Signup),
		activities: activities,
		nextID:     1,
	}
}

func (r *fakeSignupRepo) Create(ctx context.Context, signup *models.Signup) error {
	for _, existing := range r.signups {
		if existing.ActivityID == signup.ActivityID &&
			existing.ParticipantID == signup.ParticipantID &&
			existing.Status != models.SignupStatusCancelled {
			return repositories.ErrDuplicate
		}
	}
	signup.ID = r.nextID
	r.nextID++
	signup.CreatedAt = time.Now()
	signup.UpdatedAt = signup.CreatedAt
	copied := *signup
	r.signups[signup.ID] = &copied
	return nil
}

func (r *fakeSignupRepo) GetByID(ctx context.Context, id int64) (*models.Signup, error) {
	signup, ok := r.signups[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *signup
	return &copied, nil
}

func (r *fakeSignupRepo) GetMany(ctx context.Context, ids []int64) ([]*models.Signup, error) {
	var result []*models.Signup
	for _, id := range ids {
		if signup, ok := r.signups[id]; ok {
			copied := *signup
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeSignupRepo) Update(ctx context.Context, signup *models.Signup) error {
	if _, ok := r.signups[signup.ID]; !ok {
		return repositories.ErrNotFound
	}
	signup.UpdatedAt = time.Now()
	copied := *signup
	r.signups[signup.ID] = &copied
	return nil
}

func (r *fakeSignupRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.signups[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.signups, id)
	return nil
}

func (r *fakeSignupRepo) matches(signup *models.Signup, filter repositories.SignupFilter) bool {
	if filter.ActivityID != nil && signup.ActivityID != *filter.ActivityID {
		return false
	}
	if filter.ParticipantID != nil && signup.ParticipantID != *filter.ParticipantID {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if signup.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.CheckinStatus != nil && signup.CheckinStatus != *filter.CheckinStatus {
		return false
	}
	return true
}

func (r *fakeSignupRepo) List(ctx context.Context, filter repositories.SignupFilter) ([]*models.Signup, error) {
	var result []*models.Signup
	for _, signup := range r.signups {
		if r.matches(signup, filter) {
			copied := *signup
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeSignupRepo) Count(ctx context.Context, filter repositories.SignupFilter) (int, error) {
	count := 0
	for _, signup := range r.signups {
		if r.matches(signup, filter) {
			count++
		}
	}
	return count, nil
}

func (r *fakeSignupRepo) CountApprovedByParticipant(ctx context.Context, participantID int64, excludeSignupID *int64) (int, error) {
	count := 0
	for _, signup := range r.signups {
		if signup.ParticipantID != participantID || signup.Status != models.SignupStatusApproved {
			continue
		}
		if excludeSignupID != nil && signup.ID == *excludeSignupID {
			continue
		}
		count++
	}
	return count, nil
}

func (r *fakeSignupRepo) CountCheckedInByParticipant(ctx context.Context, participantID int64) (int, error) {
	count := 0
	for _, signup := range r.signups {
		if signup.ParticipantID == participantID && signup.CheckinStatus == models.CheckinStatusCheckedIn {
			count++
		}
	}
	return count, nil
}

func (r *fakeSignupRepo) CountApprovedWithTags(ctx context.Context, participantID int64, tags []string) (int, error) {
	count := 0
	for _, signup := range r.signups {
		if signup.ParticipantID != participantID || signup.Status != models.SignupStatusApproved {
			continue
		}
		activity, ok := r.activities.activities[signup.ActivityID]
		if !ok {
			continue
		}
		for _, tag := range tags {
			if activity.Tags.Contains(tag) {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *fakeSignupRepo) ActivityStats(ctx context.Context, activityID int64) (*models.ActivityStats, error) {
	stats := &models.ActivityStats{
		ActivityID:    activityID,
		StatusCounts:  make(map[models.SignupStatus]int),
		CheckinCounts: make(map[models.CheckinStatus]int),
	}
	for _, signup := range r.signups {
		if signup.ActivityID != activityID {
			continue
		}
		stats.TotalSignups++
		stats.StatusCounts[signup.Status]++
		stats.CheckinCounts[signup.CheckinStatus]++
	}
	return stats, nil
}

// fakeBadgeRepo enforces the (participant, badge) uniqueness constraint
type fakeBadgeRepo struct {
	badges      map[int64]*models.Badge
	rules       map[int64]*models.BadgeRule
	awards      []*models.UserBadge
	nextRuleID  int64
	nextAwardID int64
}

func newFakeBadgeRepo() *fakeBadgeRepo {
	return &fakeBadgeRepo{
		badges:      make(map[int64]*models.Badge),
		rules:       make(map[int64]*models.BadgeRule),
		nextRuleID:  1,
		nextAwardID: 1,
	}
}

func (r *fakeBadgeRepo) GetBadge(ctx context.Context, id int64) (*models.Badge, error) {
	badge, ok := r.badges[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *badge
	return &copied, nil
}

func (r *fakeBadgeRepo) GetBadgeByCode(ctx context.Context, code string) (*models.Badge, error) {
	for _, badge := range r.badges {
		if badge.Code == code {
			copied := *badge
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeBadgeRepo) ListBadges(ctx context.Context) ([]*models.Badge, error) {
	var result []*models.Badge
	for _, badge := range r.badges {
		copied := *badge
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeBadgeRepo) GetRule(ctx context.Context, id int64) (*models.BadgeRule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *rule
	return &copied, nil
}

func (r *fakeBadgeRepo) ListRules(ctx context.Context, activeOnly bool) ([]*models.BadgeRule, error) {
	var result []*models.BadgeRule
	for _, rule := range r.rules {
		if activeOnly && !rule.IsActive {
			continue
		}
		copied := *rule
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeBadgeRepo) CreateRule(ctx context.Context, rule *models.BadgeRule) error {
	rule.ID = r.nextRuleID
	r.nextRuleID++
	copied := *rule
	r.rules[rule.ID] = &copied
	return nil
}

func (r *fakeBadgeRepo) UpdateRule(ctx context.Context, rule *models.BadgeRule) error {
	if _, ok := r.rules[rule.ID]; !ok {
		return repositories.ErrNotFound
	}
	copied := *rule
	r.rules[rule.ID] = &copied
	return nil
}

func (r *fakeBadgeRepo) DeleteRule(ctx context.Context, id int64) error {
	if _, ok := r.rules[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.rules, id)
	return nil
}

func (r *fakeBadgeRepo) CreateUserBadge(ctx context.Context, award *models.UserBadge) error {
	for _, existing := range r.awards {
		if existing.ParticipantID == award.ParticipantID && existing.BadgeID == award.BadgeID {
			return repositories.ErrDuplicate
		}
	}
	award.ID = r.nextAwardID
	r.nextAwardID++
	award.AwardedAt = time.Now()
	copied := *award
	r.awards = append(r.awards, &copied)
	return nil
}

func (r *fakeBadgeRepo) GetUserBadge(ctx context.Context, participantID, badgeID int64) (*models.UserBadge, error) {
	for _, award := range r.awards {
		if award.ParticipantID == participantID && award.BadgeID == badgeID {
			copied := *award
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeBadgeRepo) ListUserBadges(ctx context.Context, participantID int64) ([]*models.UserBadge, error) {
	var result []*models.UserBadge
	for _, award := range r.awards {
		if award.ParticipantID == participantID {
			copied := *award
			if badge, ok := r.badges[award.BadgeID]; ok {
				copied.BadgeCode = &badge.Code
				copied.BadgeName = &badge.Name
			}
			result = append(result, &copied)
		}
	}
	return result, nil
}

// fakeNotificationRepo mirrors the dispatch selection semantics
type fakeNotificationRepo struct {
	logs   map[int64]*models.NotificationLog
	nextID int64
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{
		logs:   make(map[int64]*models.NotificationLog),
		nextID: 1,
	}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, log *models.NotificationLog) error {
	log.ID = r.nextID
	r.nextID++
	log.CreatedAt = time.Now()
	log.UpdatedAt = log.CreatedAt
	copied := *log
	r.logs[log.ID] = &copied
	return nil
}

func (r *fakeNotificationRepo) GetByID(ctx context.Context, id int64) (*models.NotificationLog, error) {
	log, ok := r.logs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *log
	return &copied, nil
}

func (r *fakeNotificationRepo) Update(ctx context.Context, log *models.NotificationLog) error {
	if _, ok := r.logs[log.ID]; !ok {
		return repositories.ErrNotFound
	}
	log.UpdatedAt = time.Now()
	copied := *log
	r.logs[log.ID] = &copied
	return nil
}

func (r *fakeNotificationRepo) List(ctx context.Context, filter repositories.NotificationFilter) ([]*models.NotificationLog, error) {
	var result []*models.NotificationLog
	for _, log := range r.logs {
		if filter.ParticipantID != nil {
			if log.ParticipantID == nil || *log.ParticipantID != *filter.ParticipantID {
				continue
			}
		}
		if len(filter.Statuses) > 0 {
			found := false
			for _, status := range filter.Statuses {
				if log.Status == status {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		copied := *log
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeNotificationRepo) ListDispatchable(ctx context.Context, limit int, now time.Time, maxRetries int) ([]*models.NotificationLog, error) {
	var result []*models.NotificationLog
	for _, log := range r.logs {
		dispatchable := log.Status == models.NotificationPending ||
			(log.Status == models.NotificationFailed && log.RetryCount < maxRetries)
		if !dispatchable || !log.DueAt(now) {
			continue
		}
		copied := *log
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, participantID int64) (int, error) {
	count := 0
	for _, log := range r.logs {
		if log.ParticipantID != nil && *log.ParticipantID == participantID && log.Status == models.NotificationSent {
			log.Status = models.NotificationRead
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) DeleteOne(ctx context.Context, id, participantID int64) (bool, error) {
	log, ok := r.logs[id]
	if !ok || log.ParticipantID == nil || *log.ParticipantID != participantID {
		return false, nil
	}
	delete(r.logs, id)
	return true, nil
}

func (r *fakeNotificationRepo) DeleteBatch(ctx context.Context, ids []int64, participantID int64) (int, error) {
	count := 0
	for _, id := range ids {
		if deleted, _ := r.DeleteOne(ctx, id, participantID); deleted {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) DeleteAllForParticipant(ctx context.Context, participantID int64) (int, error) {
	count := 0
	for id, log := range r.logs {
		if log.ParticipantID != nil && *log.ParticipantID == participantID {
			delete(r.logs, id)
			count++
		}
	}
	return count, nil
}

// fakeAuditRepo records entries for assertions
type fakeAuditRepo struct {
	entries []*models.AuditLog
}

func (r *fakeAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	entry.ID = int64(len(r.entries) + 1)
	entry.CreatedAt = time.Now()
	copied := *entry
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, filter repositories.AuditFilter) ([]*models.AuditLog, error) {
	var result []*models.AuditLog
	for _, entry := range r.entries {
		if filter.Action != nil && entry.Action != *filter.Action {
			continue
		}
		if filter.EntityType != nil && entry.EntityType != *filter.EntityType {
			continue
		}
		if filter.EntityID != nil && (entry.EntityID == nil || *entry.EntityID != *filter.EntityID) {
			continue
		}
		copied := *entry
		result = append(result, &copied)
	}
	return result, nil
}

func (r *fakeAuditRepo) actions() []models.AuditAction {
	var actions []models.AuditAction
	for _, entry := range r.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

// failingSender fails a configurable number of times before succeeding
type failingSender struct {
	failures int
	calls    int
}

func (s *failingSender) Send(ctx context.Context, notification *NotificationContext) error {
	s.calls++
	if s.calls <= s.failures {
		return NewSenderFailureError(string(notification.Channel), nil)
	}
	return nil
}

// recordingSender captures every delivered notification
type recordingSender struct {
	sent []*NotificationContext
}

func (s *recordingSender) Send(ctx context.Context, notification *NotificationContext) error {
	s.sent = append(s.sent, notification)
	return nil
}

func notificationFilterFor(participantID int64) repositories.NotificationFilter {
	return repositories.NotificationFilter{ParticipantID: &participantID}
}
