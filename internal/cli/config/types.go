// Package config provides configuration management for the sqltree CLI.
//
// This package extends the shared target handling in internal/config with
// CLI-specific fields. The shared types (TargetConfig, Table) are defined
// in pkg/core and re-exported here via type aliases for convenience.
package config

import (
	"time"

	"github.com/leapstack-labs/sqltree/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
// This allows CLI code to use config.TargetConfig without importing pkg/core.
type TargetConfig = core.TargetConfig

// Table is an alias for the shared table layout.
type Table = core.Table

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	ReadTimeout time.Duration `koanf:"read_timeout"`
}

// Config holds all CLI configuration options.
type Config struct {
	Target       *TargetConfig        `koanf:"target"`
	Table        Table                `koanf:"table"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	LogLevel     string               `koanf:"log_level"`
	LogFormat    string               `koanf:"log_format"`
	Server       ServerConfig         `koanf:"server"`
	Environments map[string]EnvConfig `koanf:"environments"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Target *TargetConfig `koanf:"target"`
	Table  *Table        `koanf:"table"`
}

// Default configuration values.
const (
	DefaultEnv         = "dev"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"
	DefaultServerPort  = 8765
	DefaultReadTimeout = 30 * time.Second
)
