package nestedset

import (
	"context"
	"testing"

	"github.com/leapstack-labs/sqltree/internal/store"
	"github.com/leapstack-labs/sqltree/internal/testutil"
	"github.com/leapstack-labs/sqltree/pkg/core"
	"github.com/stretchr/testify/require"
)

// setupTestTree returns a tree over a migrated in-memory SQLite table.
func setupTestTree(t *testing.T, table core.Table) (*Tree, *store.Store) {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(ctx, core.TargetConfig{Type: "sqlite", Database: ":memory:"}, table, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))

	return New(s.DB(), s.Table(), s.Dialect(), testutil.NewTestLogger(t)), s
}

func mustRoot(t *testing.T, tree *Tree, name string) int64 {
	t.Helper()
	id, err := tree.AddRootNode(context.Background(), name)
	require.NoError(t, err)
	return id
}

func mustChild(t *testing.T, tree *Tree, name string, parent int64) int64 {
	t.Helper()
	id, err := tree.AddChildNode(context.Background(), name, parent)
	require.NoError(t, err)
	return id
}

func mustNode(t *testing.T, tree *Tree, id int64) core.Node {
	t.Helper()
	n, err := tree.GetNode(context.Background(), id)
	require.NoError(t, err)
	return n
}

func requireConsistent(t *testing.T, tree *Tree) {
	t.Helper()
	require.NoError(t, tree.Check(context.Background()))
}

func names(nodes []core.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}
