package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqltree/internal/cli/output"
	"github.com/leapstack-labs/sqltree/pkg/core"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the whole forest as an indented outline",
		Long: `Print every node of the forest in preorder, indented by depth.

Output adapts to environment:
  - Terminal: Indented text
  - Piped/Scripted: Markdown nested list (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Print the outline
  sqltree list

  # Outline with depths as JSON
  sqltree list --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := cmdCtx.Tree.Outline(cmd.Context())
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if entries == nil {
			entries = []core.OutlineEntry{}
		}
		return r.JSON(entries)
	case output.ModeMarkdown:
		listMarkdown(r, entries)
	default:
		listText(r, entries)
	}
	return nil
}

// listText outputs the outline as indented text.
func listText(r *output.Renderer, entries []core.OutlineEntry) {
	styles := r.Styles()

	r.Header(1, fmt.Sprintf("Nodes (%d total)", len(entries)))
	for _, e := range entries {
		r.Printf("%s%s  %s\n", strings.Repeat("  ", int(e.Depth)), e.Name, styles.Muted.Render(fmt.Sprintf("[%d]", e.ID)))
	}
}

// listMarkdown outputs the outline as a nested markdown list.
func listMarkdown(r *output.Renderer, entries []core.OutlineEntry) {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Nodes (%d total)", len(entries))))
	r.Println("")
	for _, e := range entries {
		r.Printf("%s- %s (id %d)\n", strings.Repeat("  ", int(e.Depth)), e.Name, e.ID)
	}
}
