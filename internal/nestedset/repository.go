package nestedset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/leapstack-labs/sqltree/internal/adapter"
	"github.com/leapstack-labs/sqltree/pkg/core"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repository needs.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository is row-level access to the nested-set table. It knows nothing
// about tree invariants and never begins or commits transactions; writes
// are expected to run on a repository bound to the caller's transaction.
type Repository struct {
	db DBTX
	q  *queries
}

// NewRepository creates a repository for the given table layout and dialect.
func NewRepository(db DBTX, table core.Table, dialect *adapter.Dialect) *Repository {
	return &Repository{db: db, q: buildQueries(table, dialect)}
}

// WithTx returns a copy of the repository bound to tx.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx, q: r.q}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(s scanner) (core.Node, error) {
	var n core.Node
	err := s.Scan(&n.ID, &n.Left, &n.Right, &n.Parent, &n.Name)
	return n, err
}

// GetNode looks a node up by id.
func (r *Repository) GetNode(ctx context.Context, id int64) (core.Node, error) {
	n, err := scanNode(r.db.QueryRowContext(ctx, r.q.getNode, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Node{}, &core.NotFoundError{ID: id}
	}
	if err != nil {
		return core.Node{}, fmt.Errorf("failed to get node %d: %w", id, err)
	}
	return n, nil
}

// MaxRight returns the largest right boundary, or 0 for an empty table.
func (r *Repository) MaxRight(ctx context.Context) (int64, error) {
	var v int64
	if err := r.db.QueryRowContext(ctx, r.q.maxRight).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get max right boundary: %w", err)
	}
	return v, nil
}

// Insert adds a row and returns its generated id.
func (r *Repository) Insert(ctx context.Context, lft, rgt, parent int64, name string) (int64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, r.q.insert, lft, rgt, parent, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert node %q: %w", name, err)
	}
	return id, nil
}

// Delete removes exactly one row by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.q.deleteRow, id)
	if err != nil {
		return fmt.Errorf("failed to delete node %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete node %d: %w", id, err)
	}
	if n == 0 {
		return &core.NotFoundError{ID: id}
	}
	return nil
}

// Count returns the number of rows.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, r.q.count).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count nodes: %w", err)
	}
	return n, nil
}

// Children yields every node strictly inside the interval of node id, in
// preorder. The query runs when iteration starts; ranging over the
// sequence again re-reads the table. An unknown id yields nothing.
func (r *Repository) Children(ctx context.Context, id int64) iter.Seq2[core.Node, error] {
	return r.stream(ctx, r.q.children, id)
}

// Ancestors yields the nodes whose interval strictly contains node id,
// outermost first.
func (r *Repository) Ancestors(ctx context.Context, id int64) iter.Seq2[core.Node, error] {
	return r.stream(ctx, r.q.ancestors, id)
}

// Roots yields every top-level node in insertion order.
func (r *Repository) Roots(ctx context.Context) iter.Seq2[core.Node, error] {
	return r.stream(ctx, r.q.roots)
}

// All returns every node ordered by left boundary.
func (r *Repository) All(ctx context.Context) ([]core.Node, error) {
	return collect(r.stream(ctx, r.q.all))
}

func (r *Repository) stream(ctx context.Context, query string, args ...any) iter.Seq2[core.Node, error] {
	return func(yield func(core.Node, error) bool) {
		//nolint:rowserrcheck // rows.Err() is checked after the loop
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(core.Node{}, fmt.Errorf("failed to query nodes: %w", err))
			return
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			n, err := scanNode(rows)
			if err != nil {
				yield(core.Node{}, fmt.Errorf("failed to scan node: %w", err))
				return
			}
			if !yield(n, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(core.Node{}, fmt.Errorf("error iterating nodes: %w", err))
		}
	}
}

// ShiftRight adds delta to every right boundary >= from and reports the
// number of rows changed.
func (r *Repository) ShiftRight(ctx context.Context, from, delta int64) (int64, error) {
	return r.execAffected(ctx, "shift right boundaries", r.q.shiftRight, delta, from)
}

// ShiftLeft adds delta to every left boundary >= from and reports the
// number of rows changed.
func (r *Repository) ShiftLeft(ctx context.Context, from, delta int64) (int64, error) {
	return r.execAffected(ctx, "shift left boundaries", r.q.shiftLeft, delta, from)
}

// DeleteRange removes every row whose interval lies within [lft, rgt].
func (r *Repository) DeleteRange(ctx context.Context, lft, rgt int64) (int64, error) {
	return r.execAffected(ctx, "delete range", r.q.deleteRange, lft, rgt)
}

func (r *Repository) execAffected(ctx context.Context, what, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", what, err)
	}
	return n, nil
}

// Outline returns every node with its depth, in preorder.
func (r *Repository) Outline(ctx context.Context) ([]core.OutlineEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.q.outline)
	if err != nil {
		return nil, fmt.Errorf("failed to query outline: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []core.OutlineEntry
	for rows.Next() {
		var e core.OutlineEntry
		if err := rows.Scan(&e.ID, &e.Left, &e.Right, &e.Parent, &e.Name, &e.Depth); err != nil {
			return nil, fmt.Errorf("failed to scan outline entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outline: %w", err)
	}
	return entries, nil
}

// Search returns nodes whose name matches the LIKE pattern, each with the
// names of its descendants in preorder.
func (r *Repository) Search(ctx context.Context, pattern string) ([]core.SearchHit, error) {
	matches, err := collect(r.stream(ctx, r.q.search, pattern))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	hits := make([]core.SearchHit, len(matches))
	index := make(map[int64]int, len(matches))
	for i, m := range matches {
		hits[i] = core.SearchHit{Node: m}
		index[m.ID] = i
	}

	rows, err := r.db.QueryContext(ctx, r.q.searchDesc, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to query search values: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id int64
		var value string
		if err := rows.Scan(&id, &value); err != nil {
			return nil, fmt.Errorf("failed to scan search value: %w", err)
		}
		if i, ok := index[id]; ok {
			hits[i].Values = append(hits[i].Values, value)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search values: %w", err)
	}
	return hits, nil
}

// collect drains a node sequence into a slice, stopping at the first error.
func collect(seq iter.Seq2[core.Node, error]) ([]core.Node, error) {
	var nodes []core.Node
	for n, err := range seq {
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}
