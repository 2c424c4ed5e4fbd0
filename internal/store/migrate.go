package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leapstack-labs/sqltree/pkg/core"
	"github.com/pressly/goose/v3"
)

// schemaVersion is the version of the single schema migration.
const schemaVersion int64 = 1

// provider builds a goose provider whose only migration creates the
// configured nested-set table. Table names come from configuration, so the
// migration is a Go function rather than an embedded SQL file.
func (s *Store) provider() (*goose.Provider, error) {
	up := &goose.GoFunc{
		RunTx: func(ctx context.Context, tx *sql.Tx) error {
			return execAll(ctx, tx, createStatements(s.dialect, s.table))
		},
	}
	down := &goose.GoFunc{
		RunTx: func(ctx context.Context, tx *sql.Tx) error {
			return execAll(ctx, tx, dropStatements(s.dialect, s.table))
		},
	}

	return goose.NewProvider(
		goose.Dialect(s.dialect.Goose),
		s.db,
		nil,
		goose.WithGoMigrations(goose.NewGoMigration(schemaVersion, up, down)),
		goose.WithDisableGlobalRegistry(true),
	)
}

// Migrate runs all pending schema migrations.
// Dialects goose does not support get the DDL applied directly.
func (s *Store) Migrate(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if s.dialect.Goose == "" {
		return s.applyDirect(ctx)
	}

	p, err := s.provider()
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		s.logger.Debug("migration applied",
			slog.Int64("version", r.Source.Version),
			slog.Duration("duration", r.Duration))
	}

	return nil
}

// Version returns the current schema version, 0 when nothing is applied.
func (s *Store) Version(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	if s.dialect.Goose == "" {
		exists, err := s.tableExists(ctx)
		if err != nil || !exists {
			return 0, err
		}
		return schemaVersion, nil
	}

	p, err := s.provider()
	if err != nil {
		return 0, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return p.GetDBVersion(ctx)
}

// Reset drops the nested-set table by migrating down to version 0.
func (s *Store) Reset(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if s.dialect.Goose == "" {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			return execAll(ctx, tx, dropStatements(s.dialect, s.table))
		})
	}

	p, err := s.provider()
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := p.DownTo(ctx, 0); err != nil {
		return fmt.Errorf("failed to reset schema: %w", err)
	}
	return nil
}

func (s *Store) applyDirect(ctx context.Context) error {
	s.logger.Debug("applying schema directly", slog.String("type", s.typ))
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return execAll(ctx, tx, createStatements(s.dialect, s.table))
	})
}

func (s *Store) tableExists(ctx context.Context) (bool, error) {
	//nolint:gosec // identifiers are validated by core.Table.Validate
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("SELECT 1 FROM %s WHERE 1 = 0", core.Quote(s.table.Name)))
	switch {
	case err == nil:
		return true, nil
	case isMissingTable(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to probe table %s: %w", s.table.Name, err)
	}
}

// isMissingTable reports whether err is a driver's "no such table" error:
// SQLSTATE 42P01 on postgres, the message text on sqlite and duckdb.
func isMissingTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such table") ||
		(strings.Contains(msg, "table with name") && strings.Contains(msg, "does not exist"))
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func execAll(ctx context.Context, tx *sql.Tx, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	for i, r := range stmt {
		if r == '\n' {
			return stmt[:i]
		}
	}
	return stmt
}
