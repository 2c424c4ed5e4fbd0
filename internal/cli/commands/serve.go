package commands

import (
	"fmt"

	"github.com/leapstack-labs/sqltree/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tree over HTTP",
		Long: `Start the JSON API for the configured tree. Prometheus metrics are
exposed on /metrics. The server stops gracefully on interrupt.`,
		Example: `  # Start on the configured port (default 8765)
  sqltree serve

  # Start on a custom port
  sqltree serve --port 3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			cfg := cmdCtx.Cfg.Server
			srv := server.NewServer(server.Config{
				Tree:        cmdCtx.Tree,
				Port:        cfg.Port,
				ReadTimeout: cfg.ReadTimeout,
				Logger:      cmdCtx.Logger,
			})

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s on http://localhost:%d\n", cmdCtx.Store.Table().Name, cfg.Port)
			return srv.Serve(cmd.Context())
		},
	}

	// Read through the config loader as server.port.
	cmd.Flags().Int("port", 0, "Port to serve on (default: 8765)")

	return cmd
}
