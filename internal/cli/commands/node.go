package commands

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/sqltree/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewRootNodeCommand creates the root command, which appends a new tree to the forest.
func NewRootNodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "root <name>",
		Short: "Add a new root node",
		Long: `Add a node that starts a new tree. It is placed after every existing
tree in the forest.`,
		Example: `  # Add a root node
  sqltree root Electronics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, "root", func(ctx context.Context, cmdCtx *CommandContext) (int64, error) {
				return cmdCtx.Tree.AddRootNode(ctx, args[0])
			})
		},
	}
}

// NewChildCommand creates the child command.
func NewChildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "child <parent-id> <name>",
		Short: "Add a node as the last child of a parent",
		Example: `  # Add "Televisions" under node 1
  sqltree child 1 Televisions`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runAdd(cmd, "child", func(ctx context.Context, cmdCtx *CommandContext) (int64, error) {
				return cmdCtx.Tree.AddChildNode(ctx, args[1], parentID)
			})
		},
	}
}

// NewSiblingCommand creates the sibling command.
func NewSiblingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sibling <sibling-id> <name>",
		Short: "Add a node directly after a sibling",
		Long: `Add a node immediately to the right of an existing node, under the same
parent. A sibling of a root node becomes a root itself.`,
		Example: `  # Add "Radios" right after node 2
  sqltree sibling 2 Radios`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			siblingID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runAdd(cmd, "sibling", func(ctx context.Context, cmdCtx *CommandContext) (int64, error) {
				return cmdCtx.Tree.AddSiblingNode(ctx, args[1], siblingID)
			})
		},
	}
}

func runAdd(cmd *cobra.Command, kind string, add func(ctx context.Context, cmdCtx *CommandContext) (int64, error)) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	id, err := add(ctx, cmdCtx)
	if err != nil {
		return err
	}

	n, err := cmdCtx.Tree.GetNode(ctx, id)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(n)
	}
	r.Success("Added %s %q (id %d, [%d, %d])", kind, n.Name, n.ID, n.Left, n.Right)
	return nil
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a node and its whole subtree",
		Long: `Delete a node together with every descendant and close the gap it leaves.
Without --yes the command only reports what would be removed.`,
		Example: `  # Preview the removal
  sqltree delete 3

  # Remove node 3 and its descendants
  sqltree delete 3 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runDelete(cmd, id, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")

	return cmd
}

func runDelete(cmd *cobra.Command, id int64, yes bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	r := cmdCtx.Renderer

	n, err := cmdCtx.Tree.GetNode(ctx, id)
	if err != nil {
		return err
	}
	removed := n.Descendants() + 1

	if !yes {
		r.Warning("would delete %q (id %d) and %d descendant(s); pass --yes to confirm", n.Name, n.ID, n.Descendants())
		return nil
	}

	if err := cmdCtx.Tree.DeleteSubtree(ctx, id); err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{"deleted": n, "removed": removed})
	}
	r.Success("Deleted %q (id %d), %s removed", n.Name, n.ID, plural(removed, "node"))
	return nil
}

func plural(n int64, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
