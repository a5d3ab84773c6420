package repositories

import (
	"context"
	"fmt"
	"strings"

	"activityhub/internal/database"
	"activityhub/internal/models"

	"go.uber.org/zap"
)

type auditRepository struct {
	*BaseRepository
}

// NewAuditRepository creates a postgres-backed audit log repository
func NewAuditRepository(db *database.Manager, logger *zap.Logger) AuditRepository {
	return &auditRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			action, entity_type, entity_id, actor_admin_id,
			actor_participant_id, description, context
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.QueryRowContext(ctx, query,
		entry.Action, entry.EntityType, entry.EntityID, entry.ActorAdminID,
		entry.ActorParticipantID, entry.Description, entry.Context,
	).Scan(&entry.ID, &entry.CreatedAt)
	return translateError(err)
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]*models.AuditLog, error) {
	var conditions []string
	var args []interface{}

	if filter.Action != nil {
		args = append(args, *filter.Action)
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}
	if filter.EntityType != nil {
		args = append(args, *filter.EntityType)
		conditions = append(conditions, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	if filter.EntityID != nil {
		args = append(args, *filter.EntityID)
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", len(args)))
	}

	query := `
		SELECT id, action, entity_type, entity_id, actor_admin_id,
		       actor_participant_id, description, context, created_at
		FROM audit_logs`
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

	var logs []*models.AuditLog
	for rows.Next() {
		var entry models.AuditLog
		if err := rows.Scan(
			&entry.ID, &entry.Action, &entry.EntityType, &entry.EntityID,
			&entry.ActorAdminID, &entry.ActorParticipantID,
			&entry.Description, &entry.Context, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, &entry)
	}
	return logs, rows.Err()
}
