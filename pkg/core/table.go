package core

import (
	"fmt"
	"regexp"
)

// DefaultTableName is the table used when none is configured.
const DefaultTableName = "nested_set"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Table names the nested-set table and its columns.
type Table struct {
	Name   string `koanf:"name"`
	ID     string `koanf:"id"`
	Left   string `koanf:"left"`
	Right  string `koanf:"right"`
	Parent string `koanf:"parent"`
	Label  string `koanf:"label"`
}

// DefaultTable returns the conventional layout: nested_set(id, lft, rgt, parent, name).
func DefaultTable() Table {
	return Table{
		Name:   DefaultTableName,
		ID:     "id",
		Left:   "lft",
		Right:  "rgt",
		Parent: "parent",
		Label:  "name",
	}
}

// WithDefaults fills empty names from DefaultTable.
func (t Table) WithDefaults() Table {
	d := DefaultTable()
	if t.Name == "" {
		t.Name = d.Name
	}
	if t.ID == "" {
		t.ID = d.ID
	}
	if t.Left == "" {
		t.Left = d.Left
	}
	if t.Right == "" {
		t.Right = d.Right
	}
	if t.Parent == "" {
		t.Parent = d.Parent
	}
	if t.Label == "" {
		t.Label = d.Label
	}
	return t
}

// Validate checks that every name is a plain SQL identifier and that
// column names are distinct.
func (t Table) Validate() error {
	fields := []struct {
		key, val string
	}{
		{"table.name", t.Name},
		{"table.id", t.ID},
		{"table.left", t.Left},
		{"table.right", t.Right},
		{"table.parent", t.Parent},
		{"table.label", t.Label},
	}

	seen := make(map[string]string, len(fields))
	for i, f := range fields {
		if !identPattern.MatchString(f.val) {
			return fmt.Errorf("%s: invalid identifier %q", f.key, f.val)
		}
		if i == 0 {
			continue
		}
		if prev, ok := seen[f.val]; ok {
			return fmt.Errorf("%s: column %q already used by %s", f.key, f.val, prev)
		}
		seen[f.val] = f.key
	}
	return nil
}

// Quote returns a double-quoted identifier.
func Quote(ident string) string {
	return `"` + ident + `"`
}
