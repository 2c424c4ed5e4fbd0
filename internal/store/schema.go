package store

import (
	"fmt"

	"github.com/leapstack-labs/sqltree/internal/adapter"
	"github.com/leapstack-labs/sqltree/pkg/core"
)

// sequenceName is the id sequence used by dialects without identity columns.
func sequenceName(t core.Table) string {
	return t.Name + "_" + t.ID + "_seq"
}

// createStatements returns the DDL that creates the nested-set table.
// Statements are idempotent.
func createStatements(d *adapter.Dialect, t core.Table) []string {
	q := core.Quote
	var stmts []string

	idDef := d.IDType
	if d.IDSequence {
		stmts = append(stmts, fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s", q(sequenceName(t))))
		idDef = fmt.Sprintf("%s DEFAULT nextval('%s')", d.IDType, sequenceName(t))
	}

	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s %s,
	%s %s NOT NULL,
	%s %s NOT NULL,
	%s %s NOT NULL DEFAULT 0,
	%s %s NOT NULL
)`,
		q(t.Name),
		q(t.ID), idDef,
		q(t.Left), d.IntType,
		q(t.Right), d.IntType,
		q(t.Parent), d.IntType,
		q(t.Label), d.TextType,
	))

	if d.Indexes {
		for _, col := range []string{t.Left, t.Right, t.Parent} {
			stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				q(t.Name+"_"+col+"_idx"), q(t.Name), q(col)))
		}
	}

	return stmts
}

// dropStatements returns the DDL that removes the nested-set table.
func dropStatements(d *adapter.Dialect, t core.Table) []string {
	stmts := []string{fmt.Sprintf("DROP TABLE IF EXISTS %s", core.Quote(t.Name))}
	if d.IDSequence {
		stmts = append(stmts, fmt.Sprintf("DROP SEQUENCE IF EXISTS %s", core.Quote(sequenceName(t))))
	}
	return stmts
}
