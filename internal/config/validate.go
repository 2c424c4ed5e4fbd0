package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqltree/internal/adapter"
	"github.com/leapstack-labs/sqltree/internal/store"
	"github.com/leapstack-labs/sqltree/pkg/core"
)

// ValidateTarget checks if the target configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func ValidateTarget(t *core.TargetConfig) error {
	if t == nil || t.Type == "" {
		return fmt.Errorf("target type is required")
	}

	// Use adapter registry as single source of truth
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}

	if strings.EqualFold(t.Type, "postgres") && t.Database == "" {
		return fmt.Errorf("target.database is required for postgres")
	}

	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("target.port %d out of range", t.Port)
	}

	if name := t.Option(store.IsolationOption); name != "" {
		if _, err := adapter.ParseIsolation(name); err != nil {
			return err
		}
	}

	return nil
}
