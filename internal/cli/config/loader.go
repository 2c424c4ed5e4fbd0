package config

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	intconfig "github.com/leapstack-labs/sqltree/internal/config"
	"github.com/leapstack-labs/sqltree/pkg/core"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// envPrefix is the prefix of environment variables read as configuration.
const envPrefix = "SQLTREE_"

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// flagKeys bridges CLI flag names to config keys where they differ.
var flagKeys = map[string]string{
	"type":      "target.type",
	"database":  "target.database",
	"table":     "table.name",
	"port":      "server.port",
	"log-level": "log_level",
	"log-json":  "log_format",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > project root (searched upward from CWD).
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	if root := intconfig.FindProjectRoot(cwd); root != "" {
		return intconfig.FindConfigFile(root)
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithTarget(cfgFile, "", flags)
}

// LoadConfigWithTarget loads configuration with an optional environment override.
// The targetOverride parameter names the environment whose target to use.
// The flags parameter allows CLI flags to override config file and env var values.
func LoadConfigWithTarget(cfgFile string, targetOverride string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"environment":         DefaultEnv,
		"verbose":             false,
		"output":              DefaultOutput,
		"log_level":           DefaultLogLevel,
		"log_format":          DefaultLogFormat,
		"server.port":         DefaultServerPort,
		"server.read_timeout": DefaultReadTimeout.String(),
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (SQLTREE_ prefix)
	// Transform: SQLTREE_TARGET__TYPE -> target.type, SQLTREE_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// --config and --target select sources and are not config keys
			if f.Name == "config" || f.Name == "target" {
				return "", nil
			}
			if f.Name == "log-json" {
				if v, _ := flags.GetBool("log-json"); v {
					return "log_format", "json"
				}
				return "log_format", "text"
			}
			if key, ok := flagKeys[f.Name]; ok {
				return key, posflag.FlagVal(flags, f)
			}
			// Transform kebab-case to snake_case for config keys
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Determine which environment to use for target selection
	envForTarget := cfg.Environment
	if targetOverride != "" {
		envForTarget = targetOverride
	}

	// Apply environment-specific overrides if an environment is selected
	if envCfg, ok := cfg.Environments[envForTarget]; ok {
		if envCfg.Target != nil {
			cfg.Target = MergeTargetConfig(cfg.Target, envCfg.Target)
		}
		if envCfg.Table != nil {
			cfg.Table = MergeTable(cfg.Table, *envCfg.Table)
		}
	}

	// Explicit connection flags win over environment overrides.
	if flags != nil {
		if cfg.Target == nil {
			cfg.Target = &core.TargetConfig{}
		}
		if flags.Changed("type") {
			cfg.Target.Type, _ = flags.GetString("type")
		}
		if flags.Changed("database") {
			cfg.Target.Database, _ = flags.GetString("database")
		}
	}

	// Initialize default target if not specified
	if cfg.Target == nil {
		cfg.Target = &core.TargetConfig{}
	}

	// Apply defaults based on target type
	intconfig.ApplyTargetDefaults(cfg.Target)

	// Expand environment variables in target
	expandTargetEnvVars(cfg.Target)

	// Relative database files are anchored at the config file's directory.
	if configFileUsed != "" && cfg.Target.IsFile() && !filepath.IsAbs(cfg.Target.Database) &&
		(flags == nil || !flags.Changed("database")) {
		cfg.Target.Database = filepath.Join(filepath.Dir(configFileUsed), cfg.Target.Database)
	}

	cfg.Table = cfg.Table.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig or LoadConfigWithTarget is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR}
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandTargetEnvVars expands environment variables in sensitive target fields.
func expandTargetEnvVars(t *core.TargetConfig) {
	if t == nil {
		return
	}
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
}

// MergeTargetConfig merges two target configs, with override taking precedence.
func MergeTargetConfig(base, override *core.TargetConfig) *core.TargetConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	// Start with a copy of base
	merged := &core.TargetConfig{
		Type:     base.Type,
		Database: base.Database,
		Host:     base.Host,
		Port:     base.Port,
		User:     base.User,
		Password: base.Password,
		Options:  make(map[string]string),
	}
	maps.Copy(merged.Options, base.Options)

	// Apply overrides
	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}

	// Merge options
	maps.Copy(merged.Options, override.Options)

	return merged
}

// MergeTable overlays the non-empty names of override onto base.
func MergeTable(base, override Table) Table {
	if override.Name != "" {
		base.Name = override.Name
	}
	if override.ID != "" {
		base.ID = override.ID
	}
	if override.Left != "" {
		base.Left = override.Left
	}
	if override.Right != "" {
		base.Right = override.Right
	}
	if override.Parent != "" {
		base.Parent = override.Parent
	}
	if override.Label != "" {
		base.Label = override.Label
	}
	return base
}
