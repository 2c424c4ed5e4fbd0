// Package store opens the database that holds the nested-set table and
// bootstraps its schema.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqltree/internal/adapter"
	"github.com/leapstack-labs/sqltree/pkg/core"
)

// IsolationOption is the target option naming the isolation level used for
// write transactions.
const IsolationOption = "isolation"

// Store is an open database handle scoped to one process run.
// Close must be called on every exit path.
type Store struct {
	db      *sql.DB
	dialect *adapter.Dialect
	table   core.Table
	typ     string
	logger  *slog.Logger
}

// Open resolves the adapter for target.Type, connects, and validates the
// table layout. Connection failures are reported as *core.ConnectionError.
func Open(ctx context.Context, target core.TargetConfig, table core.Table, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	table = table.WithDefaults()
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table configuration: %w", err)
	}

	typ := strings.ToLower(target.Type)
	a, err := adapter.New(typ, logger)
	if err != nil {
		return nil, err
	}

	dialect, err := a.Dialect().WithIsolation(target.Option(IsolationOption))
	if err != nil {
		return nil, err
	}

	db, err := a.Open(ctx, target)
	if err != nil {
		return nil, &core.ConnectionError{Type: typ, Err: err}
	}

	logger.Debug("store opened",
		slog.String("type", typ),
		slog.String("table", table.Name))

	return &Store{
		db:      db,
		dialect: dialect,
		table:   table,
		typ:     typ,
		logger:  logger,
	}, nil
}

// NewWithDB wraps an existing connection. Used by tests and by callers
// that manage the connection themselves.
func NewWithDB(db *sql.DB, dialect *adapter.Dialect, table core.Table, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	table = table.WithDefaults()
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table configuration: %w", err)
	}
	return &Store{db: db, dialect: dialect, table: table, typ: dialect.Name, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Debug("closing store", slog.String("type", s.typ))
	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the dialect of the opened database.
func (s *Store) Dialect() *adapter.Dialect {
	return s.dialect
}

// Table returns the validated table layout.
func (s *Store) Table() core.Table {
	return s.table
}

// Type returns the adapter type name.
func (s *Store) Type() string {
	return s.typ
}
