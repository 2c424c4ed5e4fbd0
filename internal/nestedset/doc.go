// Package nestedset implements a forest of named nodes stored as a
// nested set in a single SQL table.
//
// Every node owns an interval [lft, rgt] of one shared numbering space.
// A node's descendants are exactly the rows whose interval lies strictly
// inside its own, so a subtree read is a single range query. Writes keep
// the encoding intact by renumbering boundaries inside one transaction:
// inserting opens a gap of two, deleting a subtree closes a gap of its
// width.
//
// The pieces are layered:
//
//	Repository   row access bound to a *sql.DB or *sql.Tx
//	Shifter      boundary renumbering on top of the repository
//	Coordinator  transaction scope with rollback on every failure
//	Validator    read-only invariant checks
//	Tree         the public operations, serialised behind one writer slot
package nestedset
