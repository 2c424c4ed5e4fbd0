package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/leapstack-labs/sqltree/internal/adapter"
	"github.com/spf13/cobra"
)

// BuildInfo describes the running binary. Commit and Date are set by the
// release build and may be empty.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the sqltree version, build metadata and the database adapters built in.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "sqltree v%s\n", info.Version)
			if short {
				return
			}
			if info.Commit != "" {
				_, _ = fmt.Fprintf(w, "  commit:   %s\n", info.Commit)
			}
			if info.Date != "" {
				_, _ = fmt.Fprintf(w, "  built:    %s\n", info.Date)
			}
			_, _ = fmt.Fprintf(w, "  go:       %s\n", runtime.Version())
			_, _ = fmt.Fprintf(w, "  adapters: %s\n", strings.Join(adapter.ListAdapters(), ", "))
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the version line")

	return cmd
}
