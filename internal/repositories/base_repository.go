package repositories

import (
	"context"
	"database/sql"
	"errors"

	"activityhub/internal/database"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrDuplicate is returned when an insert hits a uniqueness constraint.
// Per the concurrency model, the constraint is the source of truth for
// "already exists" conditions; callers convert this into their domain
// conflict rather than treating it as a hard failure.
var ErrDuplicate = errors.New("duplicate row")

// ErrNotFound is returned when a point lookup matches no row
var ErrNotFound = errors.New("row not found")

// BaseRepository provides common database operations shared by the
// concrete repositories.
type BaseRepository struct {
	db     *database.Manager
	logger *zap.Logger
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *database.Manager, logger *zap.Logger) *BaseRepository {
	return &BaseRepository{
		db:     db,
		logger: logger,
	}
}

// ExecContext executes a statement through the manager
func (r *BaseRepository) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return r.db.ExecContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows
func (r *BaseRepository) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a query that returns a single row
func (r *BaseRepository) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return r.db.QueryRowContext(ctx, query, args...)
}

// translateError maps driver-level errors to repository sentinels
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrDuplicate
	}
	return err
}

// IsDuplicate reports whether err is a uniqueness conflict
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsNotFound reports whether err is a missing-row lookup
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
