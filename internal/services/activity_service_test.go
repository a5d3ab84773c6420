package services

import (
	"context"
	"testing"
	"time"

	"activityhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetActivityServesFromCache(t *testing.T) {
	env := newTestEnv(t)
	env.addActivity(1)

	loaded, err := env.activitySvc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.ID)

	// A direct repo change is invisible until the cache entry expires
	env.activities.activities[1].Title = "Renamed"
	cached, err := env.activitySvc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Activity", cached.Title)

	_, err = env.activitySvc.Get(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeActivityNotFound))
}

func TestRotateCheckinToken(t *testing.T) {
	env := newTestEnv(t)
	env.addActivity(1)
	adminID := int64(7)

	result, err := env.activitySvc.RotateCheckinToken(context.Background(), &RotateTokenRequest{
		ActivityID:   1,
		ActorAdminID: &adminID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	require.NotNil(t, result.ExpiresAt)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	stored, err := env.activities.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, stored.CheckinToken)
	assert.Equal(t, result.Token, *stored.CheckinToken)

	// Each rotation replaces the secret
	second, err := env.activitySvc.RotateCheckinToken(context.Background(), &RotateTokenRequest{ActivityID: 1})
	require.NoError(t, err)
	assert.NotEqual(t, result.Token, second.Token)

	assert.Contains(t, env.auditRepo.actions(), models.AuditCheckinTokenGenerated)
}

func TestRotateTokenInvalidatesCache(t *testing.T) {
	env := newTestEnv(t)
	env.addActivity(1)

	_, err := env.activitySvc.Get(context.Background(), 1)
	require.NoError(t, err)

	_, err = env.activitySvc.RotateCheckinToken(context.Background(), &RotateTokenRequest{ActivityID: 1})
	require.NoError(t, err)

	fresh, err := env.activitySvc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, fresh.HasCheckinToken(), "the post-rotation read reflects the new token")
}

func TestCloseCheckin(t *testing.T) {
	env := newTestEnv(t)
	env.addActivity(1)

	_, err := env.activitySvc.RotateCheckinToken(context.Background(), &RotateTokenRequest{ActivityID: 1})
	require.NoError(t, err)

	require.NoError(t, env.activitySvc.CloseCheckin(context.Background(), 1, nil))

	stored, err := env.activities.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, stored.HasCheckinToken())

	err = env.activitySvc.CloseCheckin(context.Background(), 404, nil)
	assert.True(t, HasCode(err, CodeActivityNotFound))
}
