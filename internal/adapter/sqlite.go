package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqltree/pkg/core"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

func init() {
	Register("sqlite", func(logger *slog.Logger) Adapter { return NewSQLiteAdapter(logger) })
}

var sqliteDialect = &Dialect{
	Name:     "sqlite",
	Goose:    "sqlite3",
	IDType:   "INTEGER PRIMARY KEY AUTOINCREMENT",
	IntType:  "INTEGER",
	TextType: "TEXT",
	Indexes:  true,
}

// SQLiteAdapter opens SQLite databases through modernc.org/sqlite.
type SQLiteAdapter struct {
	logger *slog.Logger
}

// NewSQLiteAdapter creates a new SQLite adapter instance.
func NewSQLiteAdapter(logger *slog.Logger) *SQLiteAdapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteAdapter{logger: logger}
}

// Dialect returns the SQLite dialect.
func (a *SQLiteAdapter) Dialect() *Dialect {
	return sqliteDialect
}

// Open opens the database file named by cfg.Database.
// An empty path or ":memory:" opens a private in-memory database.
func (a *SQLiteAdapter) Open(ctx context.Context, cfg core.TargetConfig) (*sql.DB, error) {
	path := cfg.Database
	memory := path == "" || path == core.MemoryDatabase

	// Transactions take the write lock up front so two writers never
	// both read boundaries and then race for the upgrade.
	var dsn string
	if memory {
		dsn = ":memory:?_txlock=immediate&_pragma=foreign_keys(1)"
	} else {
		dsn = fmt.Sprintf("%s?_txlock=immediate&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	a.logger.Debug("opening sqlite database", slog.String("path", path), slog.Bool("memory", memory))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return db, nil
}
