package commands

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/leapstack-labs/sqltree/internal/cli/config"
	"github.com/leapstack-labs/sqltree/internal/cli/output"
	intconfig "github.com/leapstack-labs/sqltree/internal/config"
	"github.com/leapstack-labs/sqltree/internal/nestedset"
	"github.com/leapstack-labs/sqltree/internal/store"
	"github.com/leapstack-labs/sqltree/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Store    *store.Store
	Tree     *nestedset.Tree
	Renderer *output.Renderer
}

// NewCommandContext opens the configured store, makes sure the schema
// exists and builds the tree on top of it.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutStore(cmd)

	s, err := store.Open(cmd.Context(), *cmdCtx.Cfg.Target, cmdCtx.Cfg.Table, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Migrate(cmd.Context()); err != nil {
		_ = s.Close()
		return nil, nil, err
	}

	cmdCtx.Store = s
	cmdCtx.Tree = nestedset.New(s.DB(), s.Table(), s.Dialect(), cmdCtx.Logger)

	cleanup := func() {
		_ = s.Close()
	}

	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext without a database.
// Useful for commands that don't need database access.
func NewCommandContextWithoutStore(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode, _ := output.ParseMode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration, or the defaults when no
// configuration has been loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	target := &core.TargetConfig{}
	intconfig.ApplyTargetDefaults(target)
	return &config.Config{
		Target:       target,
		Table:        core.DefaultTable(),
		Environment:  config.DefaultEnv,
		OutputFormat: config.DefaultOutput,
		LogLevel:     config.DefaultLogLevel,
		LogFormat:    config.DefaultLogFormat,
		Server: config.ServerConfig{
			Port:        config.DefaultServerPort,
			ReadTimeout: config.DefaultReadTimeout,
		},
	}
}

// parseID parses a positional node id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid node id %q: must be a positive integer", arg)
	}
	return id, nil
}

// renderNodes writes nodes as JSON, or as a table under title.
func renderNodes(r *output.Renderer, title string, nodes []core.Node) error {
	if nodes == nil {
		nodes = []core.Node{}
	}
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(nodes)
	}

	r.Header(1, fmt.Sprintf("%s (%d)", title, len(nodes)))
	if len(nodes) == 0 {
		r.Println("No nodes.")
		return nil
	}
	rows := make([][]any, len(nodes))
	for i, n := range nodes {
		rows[i] = []any{n.ID, n.Name, n.Left, n.Right, n.Parent}
	}
	r.Table([]string{"ID", "Name", "Lft", "Rgt", "Parent"}, rows)
	return nil
}

// renderNode writes a single node.
func renderNode(r *output.Renderer, n core.Node) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(n)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, n.Name))
		r.Println("")
		r.Println(output.FormatKeyValue("ID", n.ID))
		r.Println(output.FormatKeyValue("Interval", fmt.Sprintf("[%d, %d]", n.Left, n.Right)))
		r.Println(output.FormatKeyValue("Parent", n.Parent))
		r.Println(output.FormatKeyValue("Descendants", n.Descendants()))
	default:
		r.Printf("%s (id %d)\n", n.Name, n.ID)
		r.Printf("  interval:    [%d, %d]\n", n.Left, n.Right)
		r.Printf("  parent:      %d\n", n.Parent)
		r.Printf("  descendants: %d\n", n.Descendants())
	}
	return nil
}
