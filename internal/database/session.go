package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the persistence-session handle stores run their statements on.
// *pgxpool.Pool, *pgx.Conn and pgx.Tx all satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner is the part of *pgxpool.Pool the session manager needs.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SessionManager hands out one transaction per unit of work.
type SessionManager struct {
	pool TxBeginner
}

func NewSessionManager(pool TxBeginner) *SessionManager {
	return &SessionManager{pool: pool}
}

// WithSession begins a transaction, runs fn with it, and commits when fn
// returns nil. Any error or panic rolls the transaction back; panics are
// re-raised after the rollback.
func (m *SessionManager) WithSession(ctx context.Context, fn func(ctx context.Context, db DBTX) error) (err error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin session: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			return
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			err = fmt.Errorf("failed to commit session: %w", cerr)
		}
	}()

	return fn(ctx, tx)
}

// NopSessions runs fn without a transaction. It backs the in-memory storage
// mode, where stores ignore the handle.
type NopSessions struct{}

func (NopSessions) WithSession(ctx context.Context, fn func(ctx context.Context, db DBTX) error) error {
	return fn(ctx, nil)
}
