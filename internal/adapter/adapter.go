// Package adapter provides the database adapters sqltree can run on.
//
// An adapter knows how to open a connection for one database type and
// describes that database's SQL dialect. Adapters register themselves in
// init() and are looked up by target type.
package adapter

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqltree/pkg/core"
)

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Open establishes a connection for the target and verifies it.
	Open(ctx context.Context, cfg core.TargetConfig) (*sql.DB, error)

	// Dialect returns the static dialect description of this adapter.
	Dialect() *Dialect
}

// Dialect describes the SQL differences the engine and schema bootstrap
// need to care about.
type Dialect struct {
	Name string

	// NumberedParams selects $1, $2, ... placeholders instead of ?.
	NumberedParams bool

	// Goose is the goose dialect name; empty when goose has no support
	// and the schema is created directly.
	Goose string

	// Column types used by schema bootstrap.
	IDType   string
	IntType  string
	TextType string

	// IDSequence means the id default comes from a named sequence that
	// must be created first.
	IDSequence bool

	// Indexes controls whether secondary indexes on boundaries are created.
	Indexes bool

	// WriteTx and ReadTx are passed to BeginTx for mutations and views.
	WriteTx sql.TxOptions
	ReadTx  sql.TxOptions
}

// Placeholder returns the bind parameter for the n-th (1-based) argument.
func (d *Dialect) Placeholder(n int) string {
	if d.NumberedParams {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Rebind rewrites ? placeholders in query into the dialect's style.
// Queries must not contain literal question marks.
func (d *Dialect) Rebind(query string) string {
	if !d.NumberedParams {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// WithIsolation returns a copy of d whose write transactions use the named
// isolation level. An empty name keeps the dialect default.
func (d *Dialect) WithIsolation(name string) (*Dialect, error) {
	if name == "" {
		return d, nil
	}
	level, err := ParseIsolation(name)
	if err != nil {
		return nil, err
	}
	cp := *d
	cp.WriteTx.Isolation = level
	return &cp, nil
}

// ParseIsolation maps a config value to a sql.IsolationLevel.
func ParseIsolation(name string) (sql.IsolationLevel, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", " ")) {
	case "default":
		return sql.LevelDefault, nil
	case "read committed":
		return sql.LevelReadCommitted, nil
	case "repeatable read":
		return sql.LevelRepeatableRead, nil
	case "snapshot":
		return sql.LevelSnapshot, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return sql.LevelDefault, &UnknownIsolationError{Name: name}
	}
}

// UnknownIsolationError is returned for an unsupported isolation name.
type UnknownIsolationError struct {
	Name string
}

func (e *UnknownIsolationError) Error() string {
	return "unknown isolation level " + strconv.Quote(e.Name) +
		"\nAvailable: default, read_committed, repeatable_read, snapshot, serializable"
}
