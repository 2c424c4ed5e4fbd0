package commands

import (
	"fmt"

	"github.com/leapstack-labs/sqltree/internal/cli/output"
	"github.com/leapstack-labs/sqltree/pkg/core"
	"github.com/spf13/cobra"
)

// ValidationReport is the JSON shape of the validate command.
type ValidationReport struct {
	Nodes              int64            `json:"nodes"`
	GloballyConsistent bool             `json:"globally_consistent"`
	FullyConsistent    *bool            `json:"fully_consistent,omitempty"`
	Violations         []core.Violation `json:"violations,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the nested-set invariants",
		Long: `Check that the stored intervals describe a well-formed forest.

By default only the global check runs: the largest right boundary must be
twice the node count. It is cheap but misses many kinds of corruption.
--full checks every interval, parent link and boundary and lists each
violation found. The command exits non-zero when the tree is inconsistent.`,
		Example: `  # Quick check
  sqltree validate

  # Exhaustive check
  sqltree validate --full`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, full)
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Check every node, not only the global count")

	return cmd
}

func runValidate(cmd *cobra.Command, full bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	tree := cmdCtx.Tree

	var report ValidationReport
	if full {
		rep, err := tree.Report(ctx)
		if err != nil {
			return err
		}
		ok := rep.FullyConsistent()
		report = ValidationReport{
			Nodes:              rep.Nodes,
			GloballyConsistent: rep.GloballyConsistent,
			FullyConsistent:    &ok,
			Violations:         rep.Violations,
		}
	} else {
		if report.Nodes, err = tree.Count(ctx); err != nil {
			return err
		}
		if report.GloballyConsistent, err = tree.IsGloballyConsistent(ctx); err != nil {
			return err
		}
	}
	consistent := report.GloballyConsistent && (report.FullyConsistent == nil || *report.FullyConsistent)

	renderReport(cmdCtx.Renderer, report)

	if !consistent {
		return fmt.Errorf("%w (%d violation(s))", core.ErrInconsistent, len(report.Violations))
	}
	return nil
}

func renderReport(r *output.Renderer, report ValidationReport) {
	if r.EffectiveMode() == output.ModeJSON {
		_ = r.JSON(report)
		return
	}

	r.Header(1, "Validation")
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatKeyValue("Nodes", report.Nodes))
		r.Println(output.FormatKeyValue("Globally consistent", report.GloballyConsistent))
		if report.FullyConsistent != nil {
			r.Println(output.FormatKeyValue("Fully consistent", *report.FullyConsistent))
		}
		r.Println("")
	} else {
		r.Printf("nodes:               %d\n", report.Nodes)
		r.Printf("globally consistent: %t\n", report.GloballyConsistent)
		if report.FullyConsistent != nil {
			r.Printf("fully consistent:    %t\n", *report.FullyConsistent)
		}
	}

	if len(report.Violations) == 0 {
		return
	}
	rows := make([][]any, len(report.Violations))
	for i, v := range report.Violations {
		rows[i] = []any{v.Rule, v.NodeID, v.Detail}
	}
	r.Table([]string{"Rule", "Node", "Detail"}, rows)
}
