package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqltree/internal/nestedset"
	"github.com/leapstack-labs/sqltree/internal/store"
	"github.com/leapstack-labs/sqltree/internal/testutil"
	"github.com/leapstack-labs/sqltree/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

type fixture struct {
	tree  *nestedset.Tree
	store *store.Store
	srv   *httptest.Server
}

func setupTestServer(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(ctx, core.TargetConfig{Type: "sqlite", Database: ":memory:"}, core.Table{}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))

	tree := nestedset.New(s.DB(), s.Table(), s.Dialect(), testutil.NewTestLogger(t))
	srv := httptest.NewServer(NewServer(Config{Tree: tree, Logger: testutil.NewTestLogger(t)}).Handler())
	t.Cleanup(srv.Close)

	return &fixture{tree: tree, store: s, srv: srv}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), "body: %s", data)
	return v
}

// =============================================================================
// Node lifecycle
// =============================================================================

func TestAPI_BuildAndRead(t *testing.T) {
	f := setupTestServer(t)

	status, body := f.do(t, http.MethodPost, "/api/roots", `{"name":"root"}`)
	require.Equal(t, http.StatusCreated, status, "body: %s", body)
	root := decode[core.Node](t, body)
	assert.Equal(t, core.Node{ID: 1, Left: 1, Right: 2, Parent: 0, Name: "root"}, root)

	status, body = f.do(t, http.MethodPost, "/api/nodes/1/children", `{"name":"a"}`)
	require.Equal(t, http.StatusCreated, status)
	a := decode[core.Node](t, body)
	assert.Equal(t, int64(2), a.Left)

	status, _ = f.do(t, http.MethodPost, "/api/nodes/2/siblings", `{"name":"b"}`)
	require.Equal(t, http.StatusCreated, status)
	status, _ = f.do(t, http.MethodPost, "/api/nodes/2/children", `{"name":"a1"}`)
	require.Equal(t, http.StatusCreated, status)

	status, body = f.do(t, http.MethodGet, "/api/nodes/1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(8), decode[core.Node](t, body).Right)

	status, body = f.do(t, http.MethodGet, "/api/nodes/1/children", "")
	require.Equal(t, http.StatusOK, status)
	children := decode[[]core.Node](t, body)
	require.Len(t, children, 3)
	assert.Equal(t, "a", children[0].Name)
	assert.Equal(t, "a1", children[1].Name)
	assert.Equal(t, "b", children[2].Name)

	status, body = f.do(t, http.MethodGet, "/api/nodes/4/ancestors", "")
	require.Equal(t, http.StatusOK, status)
	ancestors := decode[[]core.Node](t, body)
	require.Len(t, ancestors, 2)
	assert.Equal(t, "root", ancestors[0].Name)

	status, body = f.do(t, http.MethodGet, "/api/roots", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]core.Node](t, body), 1)

	status, body = f.do(t, http.MethodGet, "/api/outline", "")
	require.Equal(t, http.StatusOK, status)
	outline := decode[[]core.OutlineEntry](t, body)
	require.Len(t, outline, 4)
	assert.Equal(t, int64(2), outline[2].Depth)

	status, body = f.do(t, http.MethodGet, "/api/search?q=a", "")
	require.Equal(t, http.StatusOK, status)
	hits := decode[[]core.SearchHit](t, body)
	require.Len(t, hits, 2)
	assert.Equal(t, []string{"a1"}, hits[0].Values)

	status, _ = f.do(t, http.MethodDelete, "/api/nodes/2", "")
	require.Equal(t, http.StatusNoContent, status)

	status, body = f.do(t, http.MethodGet, "/api/consistency", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, ConsistencyResponse{Nodes: 2, GloballyConsistent: true, FullyConsistent: true},
		decode[ConsistencyResponse](t, body))
}

func TestAPI_Errors(t *testing.T) {
	f := setupTestServer(t)
	f.do(t, http.MethodPost, "/api/roots", `{"name":"root"}`)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"unknown node", http.MethodGet, "/api/nodes/99", "", http.StatusNotFound, "node 99 not found"},
		{"unknown parent", http.MethodPost, "/api/nodes/99/children", `{"name":"x"}`, http.StatusNotFound, "not found"},
		{"unknown sibling", http.MethodPost, "/api/nodes/99/siblings", `{"name":"x"}`, http.StatusNotFound, "not found"},
		{"delete unknown", http.MethodDelete, "/api/nodes/99", "", http.StatusNotFound, "not found"},
		{"children of unknown", http.MethodGet, "/api/nodes/99/children", "", http.StatusNotFound, "not found"},
		{"bad id", http.MethodGet, "/api/nodes/abc", "", http.StatusBadRequest, "invalid node id"},
		{"zero id", http.MethodGet, "/api/nodes/0", "", http.StatusBadRequest, "invalid node id"},
		{"missing name", http.MethodPost, "/api/roots", `{}`, http.StatusBadRequest, "name is required"},
		{"blank name", http.MethodPost, "/api/roots", `{"name":"  "}`, http.StatusBadRequest, "name is required"},
		{"unknown field", http.MethodPost, "/api/roots", `{"title":"x"}`, http.StatusBadRequest, "invalid request body"},
		{"bad json", http.MethodPost, "/api/nodes/1/children", `{`, http.StatusBadRequest, "invalid request body"},
		{"empty search", http.MethodGet, "/api/search", "", http.StatusBadRequest, "q is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Contains(t, decode[errorResponse](t, body).Error, tt.wantError)
		})
	}

	count, err := f.tree.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "failed requests change nothing")
}

func TestAPI_ConsistencyReportsViolations(t *testing.T) {
	f := setupTestServer(t)
	f.do(t, http.MethodPost, "/api/roots", `{"name":"root"}`)
	f.do(t, http.MethodPost, "/api/nodes/1/children", `{"name":"child"}`)

	_, err := f.store.DB().Exec(`DELETE FROM "nested_set" WHERE "id" = 2`)
	require.NoError(t, err)

	status, body := f.do(t, http.MethodGet, "/api/consistency", "")
	require.Equal(t, http.StatusOK, status)
	resp := decode[ConsistencyResponse](t, body)
	assert.False(t, resp.GloballyConsistent)
	assert.False(t, resp.FullyConsistent)
	assert.NotEmpty(t, resp.Violations)
}

// reportTree serves a fixed report; any other Tree method panics.
type reportTree struct {
	Tree
	report nestedset.Report
	calls  int
}

func (r *reportTree) Report(context.Context) (nestedset.Report, error) {
	r.calls++
	return r.report, nil
}

func TestAPI_ConsistencyUsesOneReport(t *testing.T) {
	tree := &reportTree{report: nestedset.Report{
		Nodes:              3,
		MaxRight:           6,
		GloballyConsistent: true,
		Violations:         []core.Violation{{Rule: nestedset.RuleParent, NodeID: 2, Detail: "parent is 0, want 1"}},
	}}
	srv := httptest.NewServer(NewServer(Config{Tree: tree}).Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/consistency")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, tree.calls)
	assert.Equal(t, ConsistencyResponse{
		Nodes:              3,
		GloballyConsistent: true,
		FullyConsistent:    false,
		Violations:         tree.report.Violations,
	}, decode[ConsistencyResponse](t, body))
}

func TestAPI_Metrics(t *testing.T) {
	f := setupTestServer(t)
	f.do(t, http.MethodPost, "/api/roots", `{"name":"root"}`)

	status, body := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `sqltree_operations_total{op="add_root",status="ok"}`)
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	f := setupTestServer(t)
	srv := NewServer(Config{Tree: f.tree, Port: 0})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
