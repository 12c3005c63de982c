package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/indexgraph/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dependency graph over HTTP",
		Long: `Load the index, build the graph once and answer read-only JSON queries.

Endpoints:
  GET /healthz
  GET /stats
  GET /resolve?name=<name>&req=<requirement>
  GET /packages/{name}
  GET /packages/{name}/dependents
  GET /packages/{name}/{version}/dependencies`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			srv := server.New(s.idx, s.graph, s.report, c.Logger)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	return cmd
}
