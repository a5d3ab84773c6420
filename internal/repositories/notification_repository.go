package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"activityhub/internal/database"
	"activityhub/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type notificationRepository struct {
	*BaseRepository
}

// NewNotificationRepository creates a postgres-backed notification repository
func NewNotificationRepository(db *database.Manager, logger *zap.Logger) NotificationRepository {
	return &notificationRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const notificationColumns = `
	id, participant_id, activity_id, signup_id, channel, event, status,
	payload, error_message, scheduled_send_at, sent_at, retry_count,
	created_at, updated_at`

func scanNotification(row rowScanner) (*models.NotificationLog, error) {
	var n models.NotificationLog
	err := row.Scan(
		&n.ID, &n.ParticipantID, &n.ActivityID, &n.SignupID,
		&n.Channel, &n.Event, &n.Status, &n.Payload, &n.ErrorMessage,
		&n.ScheduledSendAt, &n.SentAt, &n.RetryCount,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &n, nil
}

func (r *notificationRepository) Create(ctx context.Context, log *models.NotificationLog) error {
	query := `
		INSERT INTO notification_logs (
			participant_id, activity_id, signup_id, channel, event,
			status, payload, scheduled_send_at, retry_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		log.ParticipantID, log.ActivityID, log.SignupID, log.Channel, log.Event,
		log.Status, log.Payload, log.ScheduledSendAt, log.RetryCount,
	).Scan(&log.ID, &log.CreatedAt, &log.UpdatedAt)
	return translateError(err)
}

func (r *notificationRepository) GetByID(ctx context.Context, id int64) (*models.NotificationLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM notification_logs WHERE id = $1`, notificationColumns)
	return scanNotification(r.QueryRowContext(ctx, query, id))
}

func (r *notificationRepository) Update(ctx context.Context, log *models.NotificationLog) error {
	query := `
		UPDATE notification_logs SET
			status = $2,
			error_message = $3,
			sent_at = $4,
			retry_count = $5,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.QueryRowContext(ctx, query,
		log.ID, log.Status, log.ErrorMessage, log.SentAt, log.RetryCount,
	).Scan(&log.UpdatedAt)
	return translateError(err)
}

func (r *notificationRepository) List(ctx context.Context, filter NotificationFilter) ([]*models.NotificationLog, error) {
	var conditions []string
	var args []interface{}

	if filter.ParticipantID != nil {
		args = append(args, *filter.ParticipantID)
		conditions = append(conditions, fmt.Sprintf("participant_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM notification_logs`, notificationColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return collectNotifications(rows)
}

// ListDispatchable selects pending rows plus failed rows still under the
// retry cap, due at now, oldest first. This is the only re-entry point
// for deferred or failed notifications.
func (r *notificationRepository) ListDispatchable(ctx context.Context, limit int, now time.Time, maxRetries int) ([]*models.NotificationLog, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM notification_logs
		WHERE (status = $1 OR (status = $2 AND retry_count < $3))
		  AND (scheduled_send_at IS NULL OR scheduled_send_at <= $4)
		ORDER BY created_at ASC, id ASC
		LIMIT $5`, notificationColumns)

	rows, err := r.QueryContext(ctx, query,
		models.NotificationPending, models.NotificationFailed, maxRetries, now, limit,
	)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return collectNotifications(rows)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, participantID int64) (int, error) {
	result, err := r.ExecContext(ctx,
		`UPDATE notification_logs SET status = $2, updated_at = NOW() WHERE participant_id = $1 AND status = $3`,
		participantID, models.NotificationRead, models.NotificationSent,
	)
	if err != nil {
		return 0, translateError(err)
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

func (r *notificationRepository) DeleteOne(ctx context.Context, id, participantID int64) (bool, error) {
	result, err := r.ExecContext(ctx,
		`DELETE FROM notification_logs WHERE id = $1 AND participant_id = $2`,
		id, participantID,
	)
	if err != nil {
		return false, translateError(err)
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

func (r *notificationRepository) DeleteBatch(ctx context.Context, ids []int64, participantID int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.ExecContext(ctx,
		`DELETE FROM notification_logs WHERE id = ANY($1) AND participant_id = $2`,
		pq.Array(ids), participantID,
	)
	if err != nil {
		return 0, translateError(err)
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

func (r *notificationRepository) DeleteAllForParticipant(ctx context.Context, participantID int64) (int, error) {
	result, err := r.ExecContext(ctx,
		`DELETE FROM notification_logs WHERE participant_id = $1`,
		participantID,
	)
	if err != nil {
		return 0, translateError(err)
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

func collectNotifications(rows interface {
	Next() bool
	Err() error
	Scan(dest ...interface{}) error
}) ([]*models.NotificationLog, error) {
	var logs []*models.NotificationLog
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, n)
	}
	return logs, rows.Err()
}
