package repositories

import (
	"context"

	"activityhub/internal/database"
	"activityhub/internal/models"

	"go.uber.org/zap"
)

type badgeRepository struct {
	*BaseRepository
}

// NewBadgeRepository creates a postgres-backed badge repository covering
// badges, badge rules, and award records.
func NewBadgeRepository(db *database.Manager, logger *zap.Logger) BadgeRepository {
	return &badgeRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// ===============================
// BADGES
// ===============================

const badgeColumns = `id, code, name, description, icon_url, is_active, created_at, updated_at`

func scanBadge(row rowScanner) (*models.Badge, error) {
	var b models.Badge
	err := row.Scan(
		&b.ID, &b.Code, &b.Name, &b.Description, &b.IconURL,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &b, nil
}

func (r *badgeRepository) GetBadge(ctx context.Context, id int64) (*models.Badge, error) {
	return scanBadge(r.QueryRowContext(ctx,
		`SELECT `+badgeColumns+` FROM badges WHERE id = $1`, id))
}

func (r *badgeRepository) GetBadgeByCode(ctx context.Context, code string) (*models.Badge, error) {
	return scanBadge(r.QueryRowContext(ctx,
		`SELECT `+badgeColumns+` FROM badges WHERE code = $1`, code))
}

func (r *badgeRepository) ListBadges(ctx context.Context) ([]*models.Badge, error) {
	rows, err := r.QueryContext(ctx, `SELECT `+badgeColumns+` FROM badges ORDER BY id`)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var badges []*models.Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// ===============================
// BADGE RULES
// ===============================

const ruleColumns = `id, name, rule_type, badge_id, threshold, activity_tag_scope, notes, is_active, created_at, updated_at`

func scanRule(row rowScanner) (*models.BadgeRule, error) {
	var rule models.BadgeRule
	err := row.Scan(
		&rule.ID, &rule.Name, &rule.RuleType, &rule.BadgeID, &rule.Threshold,
		&rule.ActivityTagScope, &rule.Notes, &rule.IsActive,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &rule, nil
}

func (r *badgeRepository) GetRule(ctx context.Context, id int64) (*models.BadgeRule, error) {
	return scanRule(r.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM badge_rules WHERE id = $1`, id))
}

func (r *badgeRepository) ListRules(ctx context.Context, activeOnly bool) ([]*models.BadgeRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM badge_rules`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY id`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var rules []*models.BadgeRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *badgeRepository) CreateRule(ctx context.Context, rule *models.BadgeRule) error {
	query := `
		INSERT INTO badge_rules (name, rule_type, badge_id, threshold, activity_tag_scope, notes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		rule.Name, rule.RuleType, rule.BadgeID, rule.Threshold,
		rule.ActivityTagScope, rule.Notes, rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	return translateError(err)
}

func (r *badgeRepository) UpdateRule(ctx context.Context, rule *models.BadgeRule) error {
	query := `
		UPDATE badge_rules SET
			name = $2, rule_type = $3, badge_id = $4, threshold = $5,
			activity_tag_scope = $6, notes = $7, is_active = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.QueryRowContext(ctx, query,
		rule.ID, rule.Name, rule.RuleType, rule.BadgeID, rule.Threshold,
		rule.ActivityTagScope, rule.Notes, rule.IsActive,
	).Scan(&rule.UpdatedAt)
	return translateError(err)
}

func (r *badgeRepository) DeleteRule(ctx context.Context, id int64) error {
	result, err := r.ExecContext(ctx, `DELETE FROM badge_rules WHERE id = $1`, id)
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

// ===============================
// AWARDS
// ===============================

func (r *badgeRepository) CreateUserBadge(ctx context.Context, award *models.UserBadge) error {
	query := `
		INSERT INTO user_badges (participant_id, badge_id, activity_id, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, awarded_at`

	err := r.QueryRowContext(ctx, query,
		award.ParticipantID, award.BadgeID, award.ActivityID, award.Notes,
	).Scan(&award.ID, &award.AwardedAt)
	return translateError(err)
}

func (r *badgeRepository) GetUserBadge(ctx context.Context, participantID, badgeID int64) (*models.UserBadge, error) {
	query := `
		SELECT id, participant_id, badge_id, activity_id, notes, awarded_at
		FROM user_badges
		WHERE participant_id = $1 AND badge_id = $2`

	var ub models.UserBadge
	err := r.QueryRowContext(ctx, query, participantID, badgeID).Scan(
		&ub.ID, &ub.ParticipantID, &ub.BadgeID, &ub.ActivityID, &ub.Notes, &ub.AwardedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &ub, nil
}

func (r *badgeRepository) ListUserBadges(ctx context.Context, participantID int64) ([]*models.UserBadge, error) {
	query := `
		SELECT ub.id, ub.participant_id, ub.badge_id, ub.activity_id, ub.notes, ub.awarded_at,
		       b.code, b.name
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.participant_id = $1
		ORDER BY ub.awarded_at DESC, ub.id DESC`

	rows, err := r.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var awards []*models.UserBadge
	for rows.Next() {
		var ub models.UserBadge
		if err := rows.Scan(
			&ub.ID, &ub.ParticipantID, &ub.BadgeID, &ub.ActivityID, &ub.Notes, &ub.AwardedAt,
			&ub.BadgeCode, &ub.BadgeName,
		); err != nil {
			return nil, err
		}
		awards = append(awards, &ub)
	}
	return awards, rows.Err()
}
