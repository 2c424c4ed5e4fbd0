package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks against the typed errors below.
var (
	ErrNotFound     = errors.New("node not found")
	ErrInconsistent = errors.New("tree is inconsistent")
)

// NotFoundError is returned when an operation references a node id that
// does not exist. No mutation has happened when it is returned.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node %d not found", e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConnectionError is returned when the backing store cannot be reached or
// rejects the connection.
type ConnectionError struct {
	Type string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Type, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TransactionError is returned when a unit of work fails after it began.
// The transaction has been rolled back; Err carries the original cause.
type TransactionError struct {
	Op          string
	Err         error
	RollbackErr error
	Commit      bool
}

func (e *TransactionError) Error() string {
	var b strings.Builder
	if e.Commit {
		fmt.Fprintf(&b, "%s: commit rejected: %v", e.Op, e.Err)
	} else {
		fmt.Fprintf(&b, "%s: rolled back: %v", e.Op, e.Err)
	}
	if e.RollbackErr != nil {
		fmt.Fprintf(&b, " (rollback failed: %v)", e.RollbackErr)
	}
	return b.String()
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// Violation describes one broken tree invariant.
type Violation struct {
	Rule   string `json:"rule" yaml:"rule"`
	NodeID int64  `json:"node_id" yaml:"node_id"`
	Detail string `json:"detail" yaml:"detail"`
}

func (v Violation) String() string {
	if v.NodeID == 0 {
		return fmt.Sprintf("[%s] %s", v.Rule, v.Detail)
	}
	return fmt.Sprintf("[%s] node %d: %s", v.Rule, v.NodeID, v.Detail)
}

// ConsistencyError is returned by validation when invariants do not hold.
// It is never repaired automatically.
type ConsistencyError struct {
	Violations []Violation
}

func (e *ConsistencyError) Error() string {
	switch len(e.Violations) {
	case 0:
		return "tree is inconsistent"
	case 1:
		return "tree is inconsistent: " + e.Violations[0].String()
	default:
		return fmt.Sprintf("tree is inconsistent: %d violations, first: %s", len(e.Violations), e.Violations[0])
	}
}

// Is makes errors.Is(err, ErrInconsistent) hold.
func (e *ConsistencyError) Is(target error) bool {
	return target == ErrInconsistent
}
