package nestedset

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/leapstack-labs/sqltree/pkg/core"
)

// Rule names reported in violations.
const (
	RuleOrder       = "order"
	RuleSpan        = "span"
	RuleDescendants = "descendants"
	RuleOverlap     = "overlap"
	RuleParent      = "parent"
	RuleBoundary    = "boundary"
	RuleGlobal      = "global"
)

// Validator checks the stored table against the nested-set invariants.
// It never modifies data.
type Validator struct {
	repo  *Repository
	coord *Coordinator
}

// NewValidator creates a validator reading through repo inside views
// opened by coord.
func NewValidator(repo *Repository, coord *Coordinator) *Validator {
	return &Validator{repo: repo, coord: coord}
}

// IsGloballyConsistent reports whether the largest right boundary, halved
// and rounded, equals the row count. It is a cheap necessary condition and
// not a proof of correctness.
func (v *Validator) IsGloballyConsistent(ctx context.Context) (bool, error) {
	var maxRight, count int64
	err := v.coord.View(ctx, func(tx *sql.Tx) error {
		repo := v.repo.WithTx(tx)
		var err error
		if maxRight, err = repo.MaxRight(ctx); err != nil {
			return err
		}
		count, err = repo.Count(ctx)
		return err
	})
	if err != nil {
		return false, err
	}
	return globallyConsistent(maxRight, count), nil
}

func globallyConsistent(maxRight, count int64) bool {
	return int64(math.Round(float64(maxRight)/2)) == count
}

// Check reads the whole table from one snapshot and returns a
// *core.ConsistencyError listing every violation, or nil.
func (v *Validator) Check(ctx context.Context) error {
	var nodes []core.Node
	err := v.coord.View(ctx, func(tx *sql.Tx) error {
		var err error
		nodes, err = v.repo.WithTx(tx).All(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if violations := Inspect(nodes); len(violations) > 0 {
		return &core.ConsistencyError{Violations: violations}
	}
	return nil
}

// IsFullyConsistent reports whether every invariant holds. The error is
// non-nil only when the table could not be read.
func (v *Validator) IsFullyConsistent(ctx context.Context) (bool, error) {
	err := v.Check(ctx)
	if errors.Is(err, core.ErrInconsistent) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Report is the outcome of the global and the full check, taken from one
// snapshot so its fields never contradict each other.
type Report struct {
	Nodes              int64
	MaxRight           int64
	GloballyConsistent bool
	Violations         []core.Violation
}

// FullyConsistent reports whether no invariant is violated.
func (r Report) FullyConsistent() bool {
	return len(r.Violations) == 0
}

// Report runs every check inside a single view.
func (v *Validator) Report(ctx context.Context) (Report, error) {
	var rep Report
	var nodes []core.Node
	err := v.coord.View(ctx, func(tx *sql.Tx) error {
		repo := v.repo.WithTx(tx)
		var err error
		if rep.MaxRight, err = repo.MaxRight(ctx); err != nil {
			return err
		}
		if rep.Nodes, err = repo.Count(ctx); err != nil {
			return err
		}
		nodes, err = repo.All(ctx)
		return err
	})
	if err != nil {
		return Report{}, err
	}

	rep.GloballyConsistent = globallyConsistent(rep.MaxRight, rep.Nodes)
	rep.Violations = Inspect(nodes)
	return rep, nil
}

// Inspect checks a full set of rows against the nested-set invariants and
// returns every violation found. Input order does not matter.
func Inspect(nodes []core.Node) []core.Violation {
	nodes = slices.Clone(nodes)
	slices.SortFunc(nodes, func(a, b core.Node) int {
		return cmp.Or(cmp.Compare(a.Left, b.Left), cmp.Compare(a.ID, b.ID))
	})

	var out []core.Violation
	add := func(rule string, id int64, format string, args ...any) {
		out = append(out, core.Violation{Rule: rule, NodeID: id, Detail: fmt.Sprintf(format, args...)})
	}

	n := int64(len(nodes))
	var maxRight int64
	for _, nd := range nodes {
		maxRight = max(maxRight, nd.Right)
	}
	if !globallyConsistent(maxRight, n) {
		add(RuleGlobal, 0, "max right boundary %d does not match %d nodes", maxRight, n)
	}

	// Per-node shape and boundary uniqueness over 1..2n.
	wellFormed := make([]bool, len(nodes))
	owner := make(map[int64]int64, 2*len(nodes))
	for i, nd := range nodes {
		switch {
		case nd.Left >= nd.Right:
			add(RuleOrder, nd.ID, "lft %d is not below rgt %d", nd.Left, nd.Right)
		case (nd.Right-nd.Left)%2 != 1:
			add(RuleSpan, nd.ID, "interval [%d, %d] has even width", nd.Left, nd.Right)
		default:
			wellFormed[i] = true
		}

		for _, b := range []int64{nd.Left, nd.Right} {
			if b < 1 || b > 2*n {
				add(RuleBoundary, nd.ID, "boundary %d outside 1..%d", b, 2*n)
				continue
			}
			if other, ok := owner[b]; ok {
				add(RuleBoundary, nd.ID, "boundary %d already used by node %d", b, other)
				continue
			}
			owner[b] = nd.ID
		}
	}

	// Nesting: walk in lft order keeping the chain of open intervals.
	var stack []core.Node
	for i, nd := range nodes {
		if !wellFormed[i] {
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1].Right < nd.Left {
			stack = stack[:len(stack)-1]
		}

		var expected int64 = core.RootParent
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if nd.Right > top.Right {
				add(RuleOverlap, nd.ID, "interval [%d, %d] partially overlaps node %d [%d, %d]",
					nd.Left, nd.Right, top.ID, top.Left, top.Right)
				stack = append(stack, nd)
				continue
			}
			expected = top.ID
		}
		if nd.Parent != expected {
			add(RuleParent, nd.ID, "parent is %d, interval says %d", nd.Parent, expected)
		}
		stack = append(stack, nd)
	}

	// Interval width must match the number of rows it encloses.
	for i, nd := range nodes {
		if !wellFormed[i] {
			continue
		}
		var inside int64
		for _, other := range nodes[i+1:] {
			if other.Left >= nd.Right {
				break
			}
			if nd.Contains(other) {
				inside++
			}
		}
		if inside != nd.Descendants() {
			add(RuleDescendants, nd.ID, "interval encodes %d descendants, found %d", nd.Descendants(), inside)
		}
	}

	return out
}
