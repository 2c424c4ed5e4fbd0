package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leapstack-labs/sqltree/internal/adapter"
	"github.com/leapstack-labs/sqltree/internal/testutil"
	"github.com/leapstack-labs/sqltree/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T, table core.Table) *Store {
	t.Helper()
	s, err := Open(context.Background(), core.TargetConfig{Type: "sqlite", Database: ":memory:"}, table, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_Defaults(t *testing.T) {
	s := setupTestStore(t, core.Table{})

	assert.Equal(t, "sqlite", s.Type())
	assert.Equal(t, core.DefaultTable(), s.Table())
	assert.NotNil(t, s.DB())
	assert.Equal(t, "sqlite", s.Dialect().Name)
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target core.TargetConfig
		table  core.Table
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unknown adapter",
			target: core.TargetConfig{Type: "oracle"},
			check: func(t *testing.T, err error) {
				var unknown *adapter.UnknownAdapterError
				assert.ErrorAs(t, err, &unknown)
			},
		},
		{
			name:   "invalid table name",
			target: core.TargetConfig{Type: "sqlite"},
			table:  core.Table{Name: "bad-name"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "table.name")
			},
		},
		{
			name:   "unknown isolation",
			target: core.TargetConfig{Type: "sqlite", Options: map[string]string{"isolation": "whenever"}},
			check: func(t *testing.T, err error) {
				var unknown *adapter.UnknownIsolationError
				assert.ErrorAs(t, err, &unknown)
			},
		},
		{
			name:   "unreachable database",
			target: core.TargetConfig{Type: "sqlite", Database: filepath.Join(t.TempDir(), "missing", "dir", "tree.db")},
			check: func(t *testing.T, err error) {
				var connErr *core.ConnectionError
				require.ErrorAs(t, err, &connErr)
				assert.Equal(t, "sqlite", connErr.Type)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), tt.target, tt.table, nil)
			require.Error(t, err)
			assert.Nil(t, s)
			tt.check(t, err)
		})
	}
}

func TestStore_Migrate(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t, core.Table{})

	require.NoError(t, s.Migrate(ctx))

	version, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, version)

	// Second run is a no-op.
	require.NoError(t, s.Migrate(ctx))

	_, err = s.DB().ExecContext(ctx, `INSERT INTO "nested_set" ("lft", "rgt", "parent", "name") VALUES (1, 2, 0, 'root')`)
	require.NoError(t, err)

	var count int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM "nested_set"`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestStore_MigrateCustomTable(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t, core.Table{Name: "categories", Left: "l", Right: "r", Parent: "parent_id", Label: "title"})

	require.NoError(t, s.Migrate(ctx))

	var id int64
	err := s.DB().QueryRowContext(ctx,
		`INSERT INTO "categories" ("l", "r", "parent_id", "title") VALUES (1, 2, 0, 'a') RETURNING "id"`).Scan(&id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t, core.Table{})

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Reset(ctx))

	version, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	_, err = s.DB().ExecContext(ctx, `SELECT 1 FROM "nested_set"`)
	assert.Error(t, err, "table should be dropped")
}

func TestStore_Close(t *testing.T) {
	s, err := Open(context.Background(), core.TargetConfig{Type: "sqlite"}, core.Table{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "closing twice is safe")
	assert.Error(t, s.Migrate(context.Background()))
}

func TestCreateStatements(t *testing.T) {
	table := core.DefaultTable()

	t.Run("sqlite creates indexes", func(t *testing.T) {
		stmts := createStatements(adapter.NewSQLiteAdapter(nil).Dialect(), table)
		require.Len(t, stmts, 4)
		assert.Contains(t, stmts[0], `"id" INTEGER PRIMARY KEY AUTOINCREMENT`)
		assert.Contains(t, stmts[1], `"nested_set_lft_idx"`)
	})

	t.Run("duckdb uses sequence", func(t *testing.T) {
		stmts := createStatements(adapter.NewDuckDBAdapter(nil).Dialect(), table)
		require.Len(t, stmts, 2)
		assert.Equal(t, `CREATE SEQUENCE IF NOT EXISTS "nested_set_id_seq"`, stmts[0])
		assert.Contains(t, stmts[1], `DEFAULT nextval('nested_set_id_seq')`)
	})

	t.Run("postgres bigserial", func(t *testing.T) {
		stmts := createStatements(adapter.NewPostgresAdapter(nil).Dialect(), table)
		assert.Contains(t, stmts[0], `"id" BIGSERIAL PRIMARY KEY`)
		assert.Contains(t, stmts[0], `"parent" BIGINT NOT NULL DEFAULT 0`)
	})
}

func TestVersion_DirectSchemaProbe(t *testing.T) {
	probe := `SELECT 1 FROM "nested_set" WHERE 1 = 0`

	tests := []struct {
		name    string
		result  error
		want    int64
		wantErr string
	}{
		{name: "table present", want: schemaVersion},
		{name: "duckdb missing table", result: errors.New("Catalog Error: Table with name nested_set does not exist!")},
		{name: "sqlite missing table", result: errors.New("SQL logic error: no such table: nested_set (1)")},
		{name: "postgres missing table", result: &pgconn.PgError{Code: "42P01", Message: `relation "nested_set" does not exist`}},
		{name: "connection failure", result: errors.New("driver: bad connection"), wantErr: "bad connection"},
		{name: "postgres permission denied", result: &pgconn.PgError{Code: "42501", Message: "permission denied"}, wantErr: "permission denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })

			exec := mock.ExpectExec(probe)
			if tt.result != nil {
				exec.WillReturnError(tt.result)
			} else {
				exec.WillReturnResult(sqlmock.NewResult(0, 0))
			}

			s, err := NewWithDB(db, adapter.NewDuckDBAdapter(nil).Dialect(), core.Table{}, nil)
			require.NoError(t, err)

			version, err := s.Version(context.Background())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, version)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
