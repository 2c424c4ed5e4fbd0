package adapter

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sqltree/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect_Rebind(t *testing.T) {
	tests := []struct {
		name     string
		dialect  *Dialect
		query    string
		expected string
	}{
		{
			name:     "question marks kept",
			dialect:  &Dialect{},
			query:    "UPDATE t SET a = a + ? WHERE a >= ?",
			expected: "UPDATE t SET a = a + ? WHERE a >= ?",
		},
		{
			name:     "numbered",
			dialect:  &Dialect{NumberedParams: true},
			query:    "UPDATE t SET a = a + ? WHERE a >= ?",
			expected: "UPDATE t SET a = a + $1 WHERE a >= $2",
		},
		{
			name:     "no params",
			dialect:  &Dialect{NumberedParams: true},
			query:    "SELECT COUNT(*) FROM t",
			expected: "SELECT COUNT(*) FROM t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.dialect.Rebind(tt.query))
		})
	}
}

func TestParseIsolation(t *testing.T) {
	tests := []struct {
		in      string
		want    sql.IsolationLevel
		wantErr bool
	}{
		{"default", sql.LevelDefault, false},
		{"serializable", sql.LevelSerializable, false},
		{"READ_COMMITTED", sql.LevelReadCommitted, false},
		{"repeatable read", sql.LevelRepeatableRead, false},
		{"chaos", sql.LevelDefault, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIsolation(tt.in)
			if tt.wantErr {
				var unknown *UnknownIsolationError
				require.ErrorAs(t, err, &unknown)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDialect_WithIsolation(t *testing.T) {
	base := NewSQLiteAdapter(nil).Dialect()

	same, err := base.WithIsolation("")
	require.NoError(t, err)
	assert.Same(t, base, same)

	changed, err := base.WithIsolation("serializable")
	require.NoError(t, err)
	assert.Equal(t, sql.LevelSerializable, changed.WriteTx.Isolation)
	assert.Equal(t, sql.LevelDefault, base.WriteTx.Isolation, "original dialect must not change")
}

func TestSQLiteAdapter_Open(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"in memory", ":memory:"},
		{"empty path", ""},
		{"file", filepath.Join(t.TempDir(), "tree.db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := NewSQLiteAdapter(nil).Open(context.Background(), core.TargetConfig{Database: tt.path})
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			var one int
			require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
			assert.Equal(t, 1, one)
		})
	}
}
