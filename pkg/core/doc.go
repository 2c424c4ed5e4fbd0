// Package core defines the shared language of the sqltree system.
//
// This package contains:
//   - Domain entities (Node, OutlineEntry, SearchHit)
//   - Table naming for the nested-set layout (Table)
//   - Configuration types (TargetConfig)
//   - Error kinds shared by the engine and its consumers
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
