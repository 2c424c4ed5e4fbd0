package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/leapstack-labs/sqltree/pkg/core"
)

func init() {
	Register("postgres", func(logger *slog.Logger) Adapter { return NewPostgresAdapter(logger) })
}

var postgresDialect = &Dialect{
	Name:           "postgres",
	NumberedParams: true,
	Goose:          "postgres",
	IDType:         "BIGSERIAL PRIMARY KEY",
	IntType:        "BIGINT",
	TextType:       "TEXT",
	Indexes:        true,
	WriteTx:        sql.TxOptions{Isolation: sql.LevelSerializable},
	ReadTx:         sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
}

// PostgresAdapter opens PostgreSQL databases through pgx.
type PostgresAdapter struct {
	logger *slog.Logger
}

// NewPostgresAdapter creates a new PostgreSQL adapter instance.
func NewPostgresAdapter(logger *slog.Logger) *PostgresAdapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PostgresAdapter{logger: logger}
}

// Dialect returns the PostgreSQL dialect.
func (a *PostgresAdapter) Dialect() *Dialect {
	return postgresDialect
}

// Open establishes a connection to PostgreSQL.
func (a *PostgresAdapter) Open(ctx context.Context, cfg core.TargetConfig) (*sql.DB, error) {
	dsn := buildPostgresDSN(cfg)

	a.logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg core.TargetConfig) string {
	// Build key=value format: host=localhost port=5432 user=postgres ...
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	// Pass remaining options through in a stable order.
	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		if k == "sslmode" || k == "isolation" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		dsn += fmt.Sprintf(" %s=%s", k, cfg.Options[k])
	}

	return dsn
}
