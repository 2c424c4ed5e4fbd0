package commands

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/sqltree/internal/xmltree"
	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	var (
		format          string
		nodeID          int64
		documentElement string
		file            string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the forest or one subtree as XML, JSON or YAML",
		Long: `Write the forest, or the subtree under --node, as nested elements.

XML output needs a single top-level element; when the forest has several
roots pass --document-element to wrap them. Leaf nodes whose names are not
valid XML names are written as text.`,
		Example: `  # Whole forest as XML
  sqltree export --document-element catalog

  # One subtree as YAML
  sqltree export --node 4 --format yaml

  # JSON into a file
  sqltree export --format json --file tree.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := xmltree.ParseFormat(format)
			if err != nil {
				return err
			}
			if nodeID < 0 {
				return fmt.Errorf("invalid node id %d: must be a positive integer", nodeID)
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			w := cmdCtx.Renderer.Writer()
			if file != "" {
				out, err := os.Create(file) //nolint:gosec // path is user input by design
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", file, err)
				}
				defer func() { _ = out.Close() }()
				w = out
			}

			exp := xmltree.NewExporter(cmdCtx.Tree, xmltree.ExportOptions{DocumentElement: documentElement})
			if err := exp.Export(cmd.Context(), w, f, nodeID); err != nil {
				return err
			}
			if file != "" {
				cmdCtx.Renderer.Success("Exported to %s", file)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(xmltree.FormatXML), "Output format (xml|json|yaml)")
	cmd.Flags().Int64Var(&nodeID, "node", 0, "Export only the subtree under this node")
	cmd.Flags().StringVar(&documentElement, "document-element", "", "Wrap the forest in an element with this name")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Write to this file instead of stdout")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"xml", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
