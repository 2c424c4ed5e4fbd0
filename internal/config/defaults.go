// Package config provides shared configuration defaults and checks for
// sqltree targets. It is decoupled from CLI concerns so that the server
// and tests can resolve a target the same way the CLI does.
package config

import (
	"strings"

	"github.com/leapstack-labs/sqltree/pkg/core"
)

// Default configuration values.
const (
	DefaultTargetType   = "sqlite"
	DefaultDatabaseFile = "sqltree.db"
	DefaultPostgresHost = "localhost"
	DefaultPostgresPort = 5432
)

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *core.TargetConfig) {
	if t == nil {
		return
	}

	if t.Type == "" {
		t.Type = DefaultTargetType
	}
	t.Type = strings.ToLower(t.Type)

	switch {
	case t.IsFileBased():
		if t.Database == "" {
			t.Database = DefaultDatabaseFile
		}
	case t.Type == "postgres":
		if t.Host == "" {
			t.Host = DefaultPostgresHost
		}
		if t.Port == 0 {
			t.Port = DefaultPostgresPort
		}
	}
}
