package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqltree/internal/cli/output"
	"github.com/leapstack-labs/sqltree/internal/nestedset"
	"github.com/leapstack-labs/sqltree/pkg/core"
	"github.com/spf13/cobra"
)

// NewSearchCommand creates the search command.
func NewSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <pattern>",
		Short: "Find nodes by name and show what lies beneath them",
		Long: `Find nodes whose name matches a pattern. Plain text matches anywhere in
the name; a pattern containing % or _ is passed to SQL LIKE unchanged.
Each hit lists the names of its descendants.`,
		Example: `  # Names containing "tv"
  sqltree search tv

  # Names starting with "Port"
  sqltree search 'Port%'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			hits, err := cmdCtx.Tree.Search(cmd.Context(), nestedset.SubstringPattern(args[0]))
			if err != nil {
				return err
			}
			return renderHits(cmdCtx.Renderer, args[0], hits)
		},
	}
}

func renderHits(r *output.Renderer, pattern string, hits []core.SearchHit) error {
	if r.EffectiveMode() == output.ModeJSON {
		if hits == nil {
			hits = []core.SearchHit{}
		}
		return r.JSON(hits)
	}

	r.Header(1, fmt.Sprintf("Matches for %q (%d)", pattern, len(hits)))
	if len(hits) == 0 {
		r.Println("No matches.")
		return nil
	}
	rows := make([][]any, len(hits))
	for i, h := range hits {
		rows[i] = []any{h.ID, h.Name, strings.Join(h.Values, ", ")}
	}
	r.Table([]string{"ID", "Name", "Descendants"}, rows)
	return nil
}
