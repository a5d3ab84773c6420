package repositories

import (
	"context"
	"fmt"
	"strings"

	"activityhub/internal/database"
	"activityhub/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type signupRepository struct {
	*BaseRepository
}

// NewSignupRepository creates a postgres-backed signup repository
func NewSignupRepository(db *database.Manager, logger *zap.Logger) SignupRepository {
	return &signupRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const signupColumns = `
	id, activity_id, participant_id, status, checkin_status,
	approval_remark, rejection_reason, approved_at, cancelled_at,
	checkin_time, reviewed_by_admin_id, reviewed_at,
	form_snapshot, extra, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSignup(row rowScanner) (*models.Signup, error) {
	var s models.Signup
	err := row.Scan(
		&s.ID, &s.ActivityID, &s.ParticipantID, &s.Status, &s.CheckinStatus,
		&s.ApprovalRemark, &s.RejectionReason, &s.ApprovedAt, &s.CancelledAt,
		&s.CheckinTime, &s.ReviewedByAdminID, &s.ReviewedAt,
		&s.FormSnapshot, &s.Extra, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &s, nil
}

func (r *signupRepository) Create(ctx context.Context, signup *models.Signup) error {
	query := `
		INSERT INTO signups (
			activity_id, participant_id, status, checkin_status,
			form_snapshot, extra
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		signup.ActivityID,
		signup.ParticipantID,
		signup.Status,
		signup.CheckinStatus,
		signup.FormSnapshot,
		signup.Extra,
	).Scan(&signup.ID, &signup.CreatedAt, &signup.UpdatedAt)
	return translateError(err)
}

func (r *signupRepository) GetByID(ctx context.Context, id int64) (*models.Signup, error) {
	query := fmt.Sprintf(`SELECT %s FROM signups WHERE id = $1`, signupColumns)
	return scanSignup(r.QueryRowContext(ctx, query, id))
}

func (r *signupRepository) GetMany(ctx context.Context, ids []int64) ([]*models.Signup, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM signups WHERE id = ANY($1) ORDER BY id`, signupColumns)
	rows, err := r.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return collectSignups(rows)
}

func (r *signupRepository) Update(ctx context.Context, signup *models.Signup) error {
	query := `
		UPDATE signups SET
			status = $2,
			checkin_status = $3,
			approval_remark = $4,
			rejection_reason = $5,
			approved_at = $6,
			cancelled_at = $7,
			checkin_time = $8,
			reviewed_by_admin_id = $9,
			reviewed_at = $10,
			extra = $11,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.QueryRowContext(ctx, query,
		signup.ID,
		signup.Status,
		signup.CheckinStatus,
		signup.ApprovalRemark,
		signup.RejectionReason,
		signup.ApprovedAt,
		signup.CancelledAt,
		signup.CheckinTime,
		signup.ReviewedByAdminID,
		signup.ReviewedAt,
		signup.Extra,
	).Scan(&signup.UpdatedAt)
	return translateError(err)
}

func (r *signupRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.ExecContext(ctx, `DELETE FROM signups WHERE id = $1`, id)
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

// buildSignupFilter renders the WHERE clause for list/count queries
func buildSignupFilter(filter SignupFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.ActivityID != nil {
		args = append(args, *filter.ActivityID)
		conditions = append(conditions, fmt.Sprintf("activity_id = $%d", len(args)))
	}
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
	if filter.CheckinStatus != nil {
		args = append(args, *filter.CheckinStatus)
		conditions = append(conditions, fmt.Sprintf("checkin_status = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *signupRepository) List(ctx context.Context, filter SignupFilter) ([]*models.Signup, error) {
	where, args := buildSignupFilter(filter)
	query := fmt.Sprintf(`SELECT %s FROM signups%s ORDER BY created_at DESC, id DESC`, signupColumns, where)

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
	return collectSignups(rows)
}

func (r *signupRepository) Count(ctx context.Context, filter SignupFilter) (int, error) {
	where, args := buildSignupFilter(filter)
	query := "SELECT COUNT(*) FROM signups" + where

	var count int
	if err := r.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

func (r *signupRepository) CountApprovedByParticipant(ctx context.Context, participantID int64, excludeSignupID *int64) (int, error) {
	query := `SELECT COUNT(*) FROM signups WHERE participant_id = $1 AND status = $2`
	args := []interface{}{participantID, models.SignupStatusApproved}
	if excludeSignupID != nil {
		args = append(args, *excludeSignupID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}

	var count int
	if err := r.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

func (r *signupRepository) CountCheckedInByParticipant(ctx context.Context, participantID int64) (int, error) {
	query := `SELECT COUNT(*) FROM signups WHERE participant_id = $1 AND checkin_status = $2`

	var count int
	if err := r.QueryRowContext(ctx, query, participantID, models.CheckinStatusCheckedIn).Scan(&count); err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

func (r *signupRepository) CountApprovedWithTags(ctx context.Context, participantID int64, tags []string) (int, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	query := `
		SELECT COUNT(*)
		FROM signups s
		JOIN activities a ON a.id = s.activity_id
		WHERE s.participant_id = $1
		  AND s.status = $2
		  AND a.tags && $3`

	var count int
	err := r.QueryRowContext(ctx, query, participantID, models.SignupStatusApproved, pq.Array(tags)).Scan(&count)
	if err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

func (r *signupRepository) ActivityStats(ctx context.Context, activityID int64) (*models.ActivityStats, error) {
	stats := &models.ActivityStats{
		ActivityID:    activityID,
		StatusCounts:  make(map[models.SignupStatus]int),
		CheckinCounts: make(map[models.CheckinStatus]int),
	}

	rows, err := r.QueryContext(ctx,
		`SELECT status, checkin_status, COUNT(*) FROM signups WHERE activity_id = $1 GROUP BY status, checkin_status`,
		activityID,
	)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.SignupStatus
		var checkin models.CheckinStatus
		var count int
		if err := rows.Scan(&status, &checkin, &count); err != nil {
			return nil, err
		}
		stats.StatusCounts[status] += count
		stats.CheckinCounts[checkin] += count
		stats.TotalSignups += count
	}
	return stats, rows.Err()
}

func collectSignups(rows interface {
	Next() bool
	Err() error
	Scan(dest ...interface{}) error
}) ([]*models.Signup, error) {
	var signups []*models.Signup
	for rows.Next() {
		s, err := scanSignup(rows)
		if err != nil {
			return nil, err
		}
		signups = append(signups, s)
	}
	return signups, rows.Err()
}
