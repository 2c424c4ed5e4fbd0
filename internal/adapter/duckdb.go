package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqltree/pkg/core"
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	Register("duckdb", func(logger *slog.Logger) Adapter { return NewDuckDBAdapter(logger) })
}

// DuckDB rewrites updates of indexed columns as delete+insert, so boundary
// columns stay unindexed.
var duckdbDialect = &Dialect{
	Name:       "duckdb",
	IDType:     "BIGINT PRIMARY KEY",
	IntType:    "BIGINT",
	TextType:   "VARCHAR",
	IDSequence: true,
}

// DuckDBAdapter implements the Adapter interface for DuckDB.
type DuckDBAdapter struct {
	logger *slog.Logger
}

// NewDuckDBAdapter creates a new DuckDB adapter instance.
func NewDuckDBAdapter(logger *slog.Logger) *DuckDBAdapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DuckDBAdapter{logger: logger}
}

// Dialect returns the DuckDB dialect.
func (a *DuckDBAdapter) Dialect() *Dialect {
	return duckdbDialect
}

// Open establishes a connection to DuckDB.
// Use ":memory:" or an empty path for an in-memory database.
func (a *DuckDBAdapter) Open(ctx context.Context, cfg core.TargetConfig) (*sql.DB, error) {
	path := cfg.Database
	if path == ":memory:" {
		path = ""
	}

	a.logger.Debug("opening duckdb database", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	return db, nil
}
