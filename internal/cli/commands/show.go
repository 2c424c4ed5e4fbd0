package commands

import (
	"github.com/leapstack-labs/sqltree/pkg/core"
	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := cmdCtx.Tree.GetNode(cmd.Context(), id)
			if err != nil {
				return err
			}
			return renderNode(cmdCtx.Renderer, n)
		},
	}
}

// NewChildrenCommand creates the children command.
func NewChildrenCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "children <id>",
		Short: "List every descendant of a node in preorder",
		Long: `List every node inside the interval of the given node, in preorder.
Despite the name this includes grandchildren and deeper descendants.`,
		Example: `  # All descendants of node 1
  sqltree children 1

  # Only the first ten
  sqltree children 1 --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			seq, err := cmdCtx.Tree.GetChildren(cmd.Context(), id)
			if err != nil {
				return err
			}

			var nodes []core.Node
			for n, err := range seq {
				if err != nil {
					return err
				}
				nodes = append(nodes, n)
				if limit > 0 && len(nodes) == limit {
					break
				}
			}
			return renderNodes(cmdCtx.Renderer, "Descendants", nodes)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many nodes (0 for all)")

	return cmd
}

// NewPathCommand creates the path command.
func NewPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path <id>",
		Short: "Show the ancestors of a node, outermost first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			ancestors, err := cmdCtx.Tree.Ancestors(ctx, id)
			if err != nil {
				return err
			}
			n, err := cmdCtx.Tree.GetNode(ctx, id)
			if err != nil {
				return err
			}
			return renderNodes(cmdCtx.Renderer, "Path", append(ancestors, n))
		},
	}
}

// NewRootsCommand creates the roots command.
func NewRootsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "roots",
		Short: "List the top-level nodes of the forest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			roots, err := cmdCtx.Tree.Roots(cmd.Context())
			if err != nil {
				return err
			}
			return renderNodes(cmdCtx.Renderer, "Roots", roots)
		},
	}
}
