package database

import (
	"context"
	"database/sql"
	"fmt"
)

// executorIface is the subset of *sql.DB / *sql.Tx the manager needs
type executorIface interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type txKey struct{}

// executor resolves the active executor: the transaction carried by the
// context when inside a unit of work, the pool otherwise.
func (m *Manager) executor(ctx context.Context) executorIface {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// WithinTx runs fn inside one transaction. All repository calls made with
// the derived context share that transaction; fn returning an error rolls
// everything back. A nested call joins the outer transaction rather than
// opening a second one.
func (m *Manager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
