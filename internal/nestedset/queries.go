package nestedset

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqltree/internal/adapter"
	"github.com/leapstack-labs/sqltree/pkg/core"
)

// queries holds the SQL text for one table layout and dialect.
// Identifiers come from a validated core.Table.
type queries struct {
	getNode     string
	maxRight    string
	insert      string
	deleteRow   string
	count       string
	children    string
	shiftRight  string
	shiftLeft   string
	deleteRange string
	all         string
	roots       string
	ancestors   string
	outline     string
	search      string
	searchDesc  string
}

func buildQueries(t core.Table, d *adapter.Dialect) *queries {
	q := core.Quote
	tbl := q(t.Name)
	id, lft, rgt, parent, name := q(t.ID), q(t.Left), q(t.Right), q(t.Parent), q(t.Label)

	cols := func(alias string) string {
		prefix := ""
		if alias != "" {
			prefix = alias + "."
		}
		parts := []string{id, lft, rgt, parent, name}
		for i, p := range parts {
			parts[i] = prefix + p
		}
		return strings.Join(parts, ", ")
	}

	qs := &queries{
		getNode:  fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", cols(""), tbl, id),
		maxRight: fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) FROM %s", rgt, tbl),
		insert: fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s) VALUES (?, ?, ?, ?) RETURNING %s",
			tbl, lft, rgt, parent, name, id),
		deleteRow: fmt.Sprintf("DELETE FROM %s WHERE %s = ?", tbl, id),
		count:     fmt.Sprintf("SELECT COUNT(*) FROM %s", tbl),
		children: fmt.Sprintf(
			"SELECT %s FROM %s c JOIN %s p ON c.%s > p.%s AND c.%s < p.%s WHERE p.%s = ? ORDER BY c.%s",
			cols("c"), tbl, tbl, lft, lft, rgt, rgt, id, lft),
		shiftRight:  fmt.Sprintf("UPDATE %s SET %s = %s + ? WHERE %s >= ?", tbl, rgt, rgt, rgt),
		shiftLeft:   fmt.Sprintf("UPDATE %s SET %s = %s + ? WHERE %s >= ?", tbl, lft, lft, lft),
		deleteRange: fmt.Sprintf("DELETE FROM %s WHERE %s >= ? AND %s <= ?", tbl, lft, rgt),
		all:         fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", cols(""), tbl, lft),
		roots:       fmt.Sprintf("SELECT %s FROM %s WHERE %s = 0 ORDER BY %s", cols(""), tbl, parent, lft),
		ancestors: fmt.Sprintf(
			"SELECT %s FROM %s p JOIN %s c ON p.%s < c.%s AND p.%s > c.%s WHERE c.%s = ? ORDER BY p.%s",
			cols("p"), tbl, tbl, lft, lft, rgt, rgt, id, lft),
		outline: fmt.Sprintf(
			"SELECT %s, COUNT(p.%s) - 1 FROM %s n JOIN %s p ON n.%s BETWEEN p.%s AND p.%s GROUP BY %s ORDER BY n.%s",
			cols("n"), id, tbl, tbl, lft, lft, rgt, cols("n"), lft),
		search: fmt.Sprintf("SELECT %s FROM %s WHERE %s LIKE ? ORDER BY %s", cols(""), tbl, name, lft),
		searchDesc: fmt.Sprintf(
			"SELECT n.%s, d.%s FROM %s n JOIN %s d ON d.%s > n.%s AND d.%s < n.%s WHERE n.%s LIKE ? ORDER BY n.%s, d.%s",
			id, name, tbl, tbl, lft, lft, rgt, rgt, name, lft, lft),
	}

	for _, p := range []*string{
		&qs.getNode, &qs.insert, &qs.deleteRow, &qs.children, &qs.shiftRight, &qs.shiftLeft,
		&qs.deleteRange, &qs.ancestors, &qs.search, &qs.searchDesc,
	} {
		*p = d.Rebind(*p)
	}

	return qs
}
