package repositories

import (
	"context"
	"time"

	"activityhub/internal/database"
	"activityhub/internal/models"

	"go.uber.org/zap"
)

type activityRepository struct {
	*BaseRepository
}

// NewActivityRepository creates a postgres-backed activity repository
func NewActivityRepository(db *database.Manager, logger *zap.Logger) ActivityRepository {
	return &activityRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func (r *activityRepository) GetByID(ctx context.Context, id int64) (*models.Activity, error) {
	query := `
		SELECT id, title, description, status, tags, starts_at, ends_at,
		       checkin_token, checkin_token_expires_at, created_at, updated_at
		FROM activities
		WHERE id = $1`

	var a models.Activity
	err := r.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Title, &a.Description, &a.Status, &a.Tags,
		&a.StartsAt, &a.EndsAt, &a.CheckinToken, &a.CheckinTokenExpiresAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

func (r *activityRepository) SetCheckinToken(ctx context.Context, activityID int64, token string, expiresAt *time.Time) error {
	result, err := r.ExecContext(ctx,
		`UPDATE activities SET checkin_token = $2, checkin_token_expires_at = $3, updated_at = NOW() WHERE id = $1`,
		activityID, token, expiresAt,
	)
	if err != nil {
		return translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *activityRepository) ClearCheckinToken(ctx context.Context, activityID int64) error {
	result, err := r.ExecContext(ctx,
		`UPDATE activities SET checkin_token = NULL, checkin_token_expires_at = NULL, updated_at = NOW() WHERE id = $1`,
		activityID,
	)
	if err != nil {
		return translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type participantRepository struct {
	*BaseRepository
}

// NewParticipantRepository creates a postgres-backed participant repository
func NewParticipantRepository(db *database.Manager, logger *zap.Logger) ParticipantRepository {
	return &participantRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func (r *participantRepository) GetByID(ctx context.Context, id int64) (*models.Participant, error) {
	query := `
		SELECT id, name, avatar_url, is_active, created_at, updated_at
		FROM participants
		WHERE id = $1`

	var p models.Participant
	err := r.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.AvatarURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}
