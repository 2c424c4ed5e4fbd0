package nestedset

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/sqltree/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id, lft, rgt, parent int64) core.Node {
	return core.Node{ID: id, Left: lft, Right: rgt, Parent: parent, Name: "n"}
}

func rules(vs []core.Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Rule)
	}
	return out
}

func TestInspect(t *testing.T) {
	tests := []struct {
		name  string
		nodes []core.Node
		want  []string
	}{
		{
			name: "empty",
		},
		{
			name: "valid forest",
			nodes: []core.Node{
				node(1, 1, 6, 0),
				node(2, 2, 3, 1),
				node(3, 4, 5, 1),
				node(4, 7, 8, 0),
			},
		},
		{
			name: "input order does not matter",
			nodes: []core.Node{
				node(4, 7, 8, 0),
				node(3, 4, 5, 1),
				node(1, 1, 6, 0),
				node(2, 2, 3, 1),
			},
		},
		{
			name:  "missing gap closure",
			nodes: []core.Node{node(1, 1, 2, 0), node(3, 5, 6, 0)},
			want:  []string{RuleGlobal, RuleBoundary, RuleBoundary},
		},
		{
			name:  "inverted interval",
			nodes: []core.Node{node(1, 2, 1, 0)},
			want:  []string{RuleOrder},
		},
		{
			name:  "even span",
			nodes: []core.Node{node(1, 1, 3, 0), node(2, 2, 4, 1)},
			want:  []string{RuleSpan, RuleSpan},
		},
		{
			name: "partial overlap",
			nodes: []core.Node{
				node(1, 1, 4, 0),
				node(2, 2, 5, 1),
				node(3, 3, 6, 0),
			},
			want: []string{RuleOverlap, RuleOverlap, RuleDescendants, RuleDescendants, RuleDescendants},
		},
		{
			name: "wrong parent",
			nodes: []core.Node{
				node(1, 1, 4, 0),
				node(2, 2, 3, 0),
			},
			want: []string{RuleParent},
		},
		{
			name: "root with parent",
			nodes: []core.Node{
				node(1, 1, 2, 9),
			},
			want: []string{RuleParent},
		},
		{
			name: "duplicate boundary",
			nodes: []core.Node{
				node(1, 1, 4, 0),
				node(2, 2, 3, 1),
				node(3, 3, 4, 1),
			},
			want: []string{RuleGlobal, RuleBoundary, RuleBoundary, RuleOverlap},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Inspect(tt.nodes)
			assert.ElementsMatch(t, tt.want, rules(got), "violations: %v", got)
		})
	}
}

func TestInspect_DoesNotReorderInput(t *testing.T) {
	nodes := []core.Node{node(2, 3, 4, 0), node(1, 1, 2, 0)}
	Inspect(nodes)
	assert.Equal(t, int64(2), nodes[0].ID)
}

func TestValidator_DetectsCorruption(t *testing.T) {
	ctx := context.Background()
	tree, s := setupTestTree(t, core.Table{})

	root := mustRoot(t, tree, "root")
	child := mustChild(t, tree, "child", root)
	mustRoot(t, tree, "root2")

	// Remove a row without closing the gap.
	_, err := s.DB().ExecContext(ctx, `DELETE FROM "nested_set" WHERE "id" = ?`, child)
	require.NoError(t, err)

	ok, err := tree.IsGloballyConsistent(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = tree.IsFullyConsistent(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	err = tree.Check(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInconsistent)

	var cerr *core.ConsistencyError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, rules(cerr.Violations), RuleDescendants)
}

func TestValidator_OverlapPassesGlobalCheck(t *testing.T) {
	ctx := context.Background()
	tree, s := setupTestTree(t, core.Table{})

	root := mustRoot(t, tree, "root")
	a := mustChild(t, tree, "a", root)
	mustChild(t, tree, "b", root)

	// root [1,6] a [2,3] b [4,5] -> a [2,4] b [3,5]: count and max unchanged.
	_, err := s.DB().ExecContext(ctx, `UPDATE "nested_set" SET "rgt" = 4 WHERE "id" = ?`, a)
	require.NoError(t, err)
	_, err = s.DB().ExecContext(ctx, `UPDATE "nested_set" SET "lft" = 3 WHERE "id" = ?`, a+1)
	require.NoError(t, err)

	ok, err := tree.IsGloballyConsistent(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "weak check does not see overlaps")

	ok, err = tree.IsFullyConsistent(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidator_Idempotent(t *testing.T) {
	ctx := context.Background()
	tree, _ := setupTestTree(t, core.Table{})
	root := mustRoot(t, tree, "root")
	mustChild(t, tree, "child", root)

	before, err := tree.Outline(ctx)
	require.NoError(t, err)

	for range 3 {
		ok, err := tree.IsFullyConsistent(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	after, err := tree.Outline(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestValidator_ReportReadsOneSnapshot(t *testing.T) {
	db, mock := setupMockDB(t)
	table := core.DefaultTable()
	qs := buildQueries(table, sqliteDialect())

	mock.ExpectBegin()
	mock.ExpectQuery(qs.maxRight).WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(4))
	mock.ExpectQuery(qs.count).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(qs.all).WillReturnRows(sqlmock.NewRows([]string{"id", "lft", "rgt", "parent", "name"}).
		AddRow(1, 1, 4, 0, "a").
		AddRow(2, 2, 3, 0, "b"))
	mock.ExpectRollback()

	rep, err := New(db, table, sqliteDialect(), nil).Report(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), rep.Nodes)
	assert.Equal(t, int64(4), rep.MaxRight)
	assert.True(t, rep.GloballyConsistent)
	assert.False(t, rep.FullyConsistent())
	assert.Equal(t, []string{RuleParent}, rules(rep.Violations))
}

func TestTree_Report(t *testing.T) {
	ctx := context.Background()
	tree, s := setupTestTree(t, core.Table{})

	rep, err := tree.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{GloballyConsistent: true}, rep)

	root := mustRoot(t, tree, "root")
	mustChild(t, tree, "child", root)

	rep, err = tree.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rep.Nodes)
	assert.True(t, rep.GloballyConsistent)
	assert.True(t, rep.FullyConsistent())

	_, err = s.DB().ExecContext(ctx, `UPDATE "nested_set" SET "rgt" = 9 WHERE "id" = 2`)
	require.NoError(t, err)

	rep, err = tree.Report(ctx)
	require.NoError(t, err)
	assert.False(t, rep.GloballyConsistent)
	assert.False(t, rep.FullyConsistent())
}
