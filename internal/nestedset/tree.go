package nestedset

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/sqltree/internal/adapter"
	"github.com/leapstack-labs/sqltree/pkg/core"
	"golang.org/x/sync/semaphore"
)

// Operation names used in logs, metrics and transaction errors.
const (
	OpAddRoot       = "add_root"
	OpAddChild      = "add_child"
	OpAddSibling    = "add_sibling"
	OpDeleteSubtree = "delete_subtree"
)

// Tree exposes the forest operations. Mutations are serialised through a
// single writer slot and each runs in its own transaction, so the table
// is consistent whenever no mutation is in flight. Reads do not take the
// writer slot.
type Tree struct {
	repo      *Repository
	coord     *Coordinator
	shifter   *Shifter
	validator *Validator
	writer    *semaphore.Weighted
	logger    *slog.Logger
}

// New creates a tree over db. The table layout must already be validated
// and the schema created. A nil logger discards output.
func New(db *sql.DB, table core.Table, dialect *adapter.Dialect, logger *slog.Logger) *Tree {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	repo := NewRepository(db, table, dialect)
	coord := NewCoordinator(db, dialect, logger)
	return &Tree{
		repo:      repo,
		coord:     coord,
		shifter:   NewShifter(logger),
		validator: NewValidator(repo, coord),
		writer:    semaphore.NewWeighted(1),
		logger:    logger,
	}
}

// mutate runs fn as one transactional unit while holding the writer slot.
func (t *Tree) mutate(ctx context.Context, op string, fn func(ctx context.Context, repo *Repository) error) (err error) {
	start := time.Now()
	defer func() { observe(op, start, err) }()

	if err := t.writer.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%s: waiting for writer: %w", op, err)
	}
	defer t.writer.Release(1)

	return t.coord.Update(ctx, op, func(tx *sql.Tx) error {
		return fn(ctx, t.repo.WithTx(tx))
	})
}

// AddRootNode appends a new top-level node after every existing tree and
// returns its id. No existing boundary moves.
func (t *Tree) AddRootNode(ctx context.Context, name string) (int64, error) {
	var id int64
	err := t.mutate(ctx, OpAddRoot, func(ctx context.Context, repo *Repository) error {
		maxRight, err := repo.MaxRight(ctx)
		if err != nil {
			return err
		}
		id, err = repo.Insert(ctx, maxRight+1, maxRight+2, core.RootParent, name)
		return err
	})
	if err != nil {
		return 0, err
	}
	t.logger.Debug("root added", slog.Int64("id", id), slog.String("name", name))
	return id, nil
}

// AddChildNode inserts a new leaf as the last child of parentID and returns
// its id. A missing parent yields a *core.NotFoundError and no change.
func (t *Tree) AddChildNode(ctx context.Context, name string, parentID int64) (int64, error) {
	var id int64
	err := t.mutate(ctx, OpAddChild, func(ctx context.Context, repo *Repository) error {
		parent, err := repo.GetNode(ctx, parentID)
		if err != nil {
			return err
		}
		if _, err := t.shifter.ShiftForInsertion(ctx, repo, parent.Right); err != nil {
			return err
		}
		id, err = repo.Insert(ctx, parent.Right, parent.Right+1, parent.ID, name)
		return err
	})
	if err != nil {
		return 0, err
	}
	t.logger.Debug("child added", slog.Int64("id", id), slog.Int64("parent", parentID), slog.String("name", name))
	return id, nil
}

// AddSiblingNode inserts a new leaf immediately after siblingID under the
// same parent and returns its id. The sibling of a root becomes a root.
func (t *Tree) AddSiblingNode(ctx context.Context, name string, siblingID int64) (int64, error) {
	var id int64
	err := t.mutate(ctx, OpAddSibling, func(ctx context.Context, repo *Repository) error {
		sibling, err := repo.GetNode(ctx, siblingID)
		if err != nil {
			return err
		}
		if _, err := t.shifter.OpenGapAfter(ctx, repo, sibling.Right); err != nil {
			return err
		}
		id, err = repo.Insert(ctx, sibling.Right+1, sibling.Right+2, sibling.Parent, name)
		return err
	})
	if err != nil {
		return 0, err
	}
	t.logger.Debug("sibling added", slog.Int64("id", id), slog.Int64("sibling", siblingID), slog.String("name", name))
	return id, nil
}

// DeleteSubtree removes node id together with all of its descendants and
// closes the gap they leave.
func (t *Tree) DeleteSubtree(ctx context.Context, id int64) error {
	var removed int64
	err := t.mutate(ctx, OpDeleteSubtree, func(ctx context.Context, repo *Repository) error {
		node, err := repo.GetNode(ctx, id)
		if err != nil {
			return err
		}
		removed, err = repo.DeleteRange(ctx, node.Left, node.Right)
		if err != nil {
			return err
		}
		if want := node.Descendants() + 1; removed != want {
			return fmt.Errorf("subtree of node %d held %d rows, interval encodes %d: %w",
				id, removed, want, core.ErrInconsistent)
		}
		_, err = t.shifter.CloseGap(ctx, repo, node)
		return err
	})
	if err != nil {
		return err
	}
	t.logger.Debug("subtree deleted", slog.Int64("id", id), slog.Int64("rows", removed))
	return nil
}

// GetNode looks a node up by id.
func (t *Tree) GetNode(ctx context.Context, id int64) (core.Node, error) {
	return t.repo.GetNode(ctx, id)
}

// GetChildren returns the descendants of id in preorder as a lazy,
// restartable sequence. The id is checked up front; rows are read when
// the sequence is ranged over.
func (t *Tree) GetChildren(ctx context.Context, id int64) (iter.Seq2[core.Node, error], error) {
	if _, err := t.repo.GetNode(ctx, id); err != nil {
		return nil, err
	}
	return t.repo.Children(ctx, id), nil
}

// Ancestors returns the path from the outermost root down to, but not
// including, node id.
func (t *Tree) Ancestors(ctx context.Context, id int64) ([]core.Node, error) {
	var nodes []core.Node
	err := t.coord.View(ctx, func(tx *sql.Tx) error {
		repo := t.repo.WithTx(tx)
		if _, err := repo.GetNode(ctx, id); err != nil {
			return err
		}
		var err error
		nodes, err = collect(repo.Ancestors(ctx, id))
		return err
	})
	return nodes, err
}

// Roots returns every top-level node in order.
func (t *Tree) Roots(ctx context.Context) ([]core.Node, error) {
	return collect(t.repo.Roots(ctx))
}

// Outline returns the whole forest in preorder with depths.
func (t *Tree) Outline(ctx context.Context) ([]core.OutlineEntry, error) {
	return t.repo.Outline(ctx)
}

// Search returns nodes whose name matches the SQL LIKE pattern, each with
// its descendants' names.
func (t *Tree) Search(ctx context.Context, pattern string) ([]core.SearchHit, error) {
	var hits []core.SearchHit
	err := t.coord.View(ctx, func(tx *sql.Tx) error {
		var err error
		hits, err = t.repo.WithTx(tx).Search(ctx, pattern)
		return err
	})
	return hits, err
}

// Count returns the number of stored nodes.
func (t *Tree) Count(ctx context.Context) (int64, error) {
	return t.repo.Count(ctx)
}

// IsGloballyConsistent runs the cheap max-boundary check.
func (t *Tree) IsGloballyConsistent(ctx context.Context) (bool, error) {
	return t.validator.IsGloballyConsistent(ctx)
}

// IsFullyConsistent runs every invariant check.
func (t *Tree) IsFullyConsistent(ctx context.Context) (bool, error) {
	return t.validator.IsFullyConsistent(ctx)
}

// Check runs every invariant check and returns a *core.ConsistencyError
// describing what is broken, or nil.
func (t *Tree) Check(ctx context.Context) error {
	return t.validator.Check(ctx)
}

// Report runs the global and the full check against one snapshot.
func (t *Tree) Report(ctx context.Context) (Report, error) {
	return t.validator.Report(ctx)
}

// SubstringPattern turns plain text into a LIKE pattern matching it
// anywhere. Text that already contains a LIKE wildcard is returned as is.
func SubstringPattern(text string) string {
	if strings.ContainsAny(text, "%_") {
		return text
	}
	return "%" + text + "%"
}
