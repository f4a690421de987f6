package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/jim/internal/config"
	"github.com/raphi011/jim/internal/log"
	"github.com/raphi011/jim/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run hooks on HTTP requests",
		Aliases: []string{"server"},
		GroupID: GroupServe,
		Args:    cobra.NoArgs,
		Long: `Listen for trigger requests and run hooks in the background.

  POST /hooks/<name>   200, hook started
  any other method     403
  unknown hook         404 "hook not found"

Query parameters and body fields (JSON object, urlencoded or multipart form)
are exported to the script as JIM_<KEY>; body fields win over query
parameters. The response does not wait for the script.

On SIGINT or SIGTERM jim stops accepting requests and kills running hooks.`,
		Example: `  jim serve                 # Listen on [server] addr (default :8080)
  jim serve --addr :9000
  curl -X POST -d tag=v1 localhost:8080/hooks/build`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := *config.FromContext(ctx)
			if addr != "" {
				cfg.Server.Addr = addr
			}

			reg, err := openRegistry(config.WithConfig(ctx, &cfg))
			if err != nil {
				return err
			}
			hooks, err := reg.Hooks()
			if err != nil {
				return err
			}
			log.FromContext(ctx).Log(fmt.Sprintf("%d hooks in %s", len(hooks), reg.HooksPath()), "serve")

			return server.NewServer(ctx, reg, cfg.Server).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: [server] addr)")

	return cmd
}
