package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/leapstack-labs/sqltree/internal/cli/output"
	"github.com/leapstack-labs/sqltree/internal/xmltree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	var (
		skipDocument bool
		metricsFile  string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load an XML document into the forest",
		Long: `Load an XML document into the forest. Every element becomes a node
named after its tag and every non-blank text becomes a leaf under its
element. Top-level elements become new roots after the existing ones.

Use - to read from standard input.`,
		Example: `  # Import a catalog
  sqltree import catalog.xml

  # Make the children of the document element roots
  sqltree import catalog.xml --skip-document-element

  # Record operation metrics for a node_exporter textfile collector
  sqltree import catalog.xml --metrics-file /var/lib/node_exporter/sqltree.prom`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], xmltree.ImportOptions{SkipDocumentElement: skipDocument}, metricsFile)
		},
	}

	cmd.Flags().BoolVar(&skipDocument, "skip-document-element", false, "Do not store the document element; its children become roots")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the import")

	return cmd
}

func runImport(cmd *cobra.Command, path string, opts xmltree.ImportOptions, metricsFile string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var in io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // path is user input by design
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	stats, importErr := xmltree.NewImporter(cmdCtx.Tree, opts, cmdCtx.Logger).Import(cmd.Context(), in)

	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, prometheus.DefaultGatherer); err != nil {
			cmdCtx.Renderer.Warning("failed to write metrics to %s: %v", metricsFile, err)
		} else {
			cmdCtx.Logger.Debug("metrics written", slog.String("path", metricsFile))
		}
	}

	if importErr != nil {
		return fmt.Errorf("import stopped after %d node(s): %w", stats.Nodes(), importErr)
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]int{
			"roots":    stats.Roots,
			"elements": stats.Elements,
			"texts":    stats.Texts,
			"nodes":    stats.Nodes(),
		})
	}
	r.Success("Imported %d node(s): %d element(s), %d text(s), %d new root(s)",
		stats.Nodes(), stats.Elements, stats.Texts, stats.Roots)
	return nil
}
