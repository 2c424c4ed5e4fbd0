package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqltree/internal/cli/output"
	intconfig "github.com/leapstack-labs/sqltree/internal/config"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := intconfig.ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	if err := c.Table.WithDefaults().Validate(); err != nil {
		return fmt.Errorf("invalid table configuration: %w", err)
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		return err
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (valid: text, json)", c.LogFormat)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

// ParseLogLevel maps a log_level value to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelWarn, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q (valid: debug, info, warn, error)", s)
	}
	return level, nil
}
