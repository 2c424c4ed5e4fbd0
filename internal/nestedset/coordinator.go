package nestedset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqltree/internal/adapter"
	"github.com/leapstack-labs/sqltree/pkg/core"
)

// Coordinator scopes units of work to a single database transaction.
type Coordinator struct {
	db      *sql.DB
	dialect *adapter.Dialect
	logger  *slog.Logger
}

// NewCoordinator creates a coordinator for db. A nil logger discards output.
func NewCoordinator(db *sql.DB, dialect *adapter.Dialect, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{db: db, dialect: dialect, logger: logger}
}

// Update runs fn inside a write transaction and commits when it returns nil.
//
// Any error from fn rolls the transaction back. A *core.NotFoundError is
// returned as is, since nothing was changed; every other failure, including
// a rejected commit, comes back as a *core.TransactionError. A panic in fn
// rolls back before it propagates.
func (c *Coordinator) Update(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	opts := c.dialect.WriteTx
	tx, err := c.db.BeginTx(ctx, &opts)
	if err != nil {
		return &core.TransactionError{Op: op, Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			c.logger.Error("rollback failed", slog.String("op", op), slog.String("error", rbErr.Error()))
		}

		var notFound *core.NotFoundError
		if errors.As(err, &notFound) && rbErr == nil {
			return err
		}

		c.logger.Debug("transaction rolled back", slog.String("op", op), slog.String("error", err.Error()))
		return &core.TransactionError{Op: op, Err: err, RollbackErr: rbErr}
	}

	if err := tx.Commit(); err != nil {
		return &core.TransactionError{Op: op, Err: err, Commit: true}
	}
	return nil
}

// View runs fn inside a read transaction so that every query it issues sees
// one snapshot. The transaction is always rolled back.
func (c *Coordinator) View(ctx context.Context, fn func(tx *sql.Tx) error) error {
	opts := c.dialect.ReadTx
	tx, err := c.db.BeginTx(ctx, &opts)
	if err != nil {
		return fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
