package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/sqltree/internal/cli/config"
	intconfig "github.com/leapstack-labs/sqltree/internal/config"
	"github.com/leapstack-labs/sqltree/internal/nestedset"
	"github.com/leapstack-labs/sqltree/internal/store"
	"github.com/leapstack-labs/sqltree/internal/xmltree"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool
	var reset bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new sqltree project",
		Long: `Initialize a new sqltree project: write sqltree.yaml and create the
nested-set table in the configured database.

Use --example to also load a small product catalog.`,
		Example: `  # Initialize in current directory
  sqltree init

  # Initialize with example data
  sqltree init --example

  # Initialize in a new directory
  sqltree init my-tree --example

  # Force overwrite existing config
  sqltree init --force

  # Start over with an empty table
  sqltree init --force --reset`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force, example, reset)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Load an example catalog into the new tree")
	cmd.Flags().BoolVar(&reset, "reset", false, "Drop the existing table and every node in it first")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force, example, reset bool) error {
	cmdCtx := NewCommandContextWithoutStore(cmd)
	r := cmdCtx.Renderer

	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, intconfig.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", intconfig.ConfigFileName)
	}

	templateName := "minimal"
	if example {
		templateName = "example"
	}
	files, err := writeTemplate(templateName, dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}
	for _, f := range files {
		r.Success("created %s", f)
	}

	cfg, err := config.LoadConfigWithTarget(configPath, "", nil)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := store.Open(ctx, *cfg.Target, cfg.Table, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if reset {
		if err := s.Reset(ctx); err != nil {
			return err
		}
		r.Success("dropped table %s", s.Table().Name)
	}
	if err := s.Migrate(ctx); err != nil {
		return err
	}
	version, err := s.Version(ctx)
	if err != nil {
		return err
	}
	r.Success("created table %s in %s (schema v%d)", s.Table().Name, cfg.Target.Database, version)

	if example {
		f, err := os.Open(filepath.Join(dir, exampleData)) //nolint:gosec // written above
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()

		tree := nestedset.New(s.DB(), s.Table(), s.Dialect(), cmdCtx.Logger)
		stats, err := xmltree.NewImporter(tree, xmltree.ImportOptions{}, cmdCtx.Logger).Import(ctx, f)
		if err != nil {
			return fmt.Errorf("failed to load example data: %w", err)
		}
		r.Success("loaded %d example node(s)", stats.Nodes())
	}

	r.Println("")
	r.Println("Next steps:")
	r.Println("  sqltree list        Print the forest")
	r.Println("  sqltree root NAME   Start a new tree")
	r.Println("  sqltree validate    Check the stored intervals")
	r.Println("  sqltree serve       Start the HTTP API")

	return nil
}
