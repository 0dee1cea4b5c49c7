package console

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-composer/framework/app"
	"github.com/km-arc/go-composer/framework/config"
	"github.com/km-arc/go-composer/framework/logging"
)

func newServeCommand(g *globals) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the inspection API",
		Long: `Start the HTTP inspection API.

Routes:
  GET /healthz                       liveness and catalog size
  GET /registries                    catalog modules
  GET /registries/{root}?policy=...  resolved registry for root
  GET /metrics                       Prometheus metrics

Examples:
  composer serve
  composer serve --catalog /etc/composer/catalog.yaml --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.load(cmd)
			if cmd.Flags().Changed("watch") {
				cfg.Catalog.Watch = watch
			}

			logger := logging.New(cfg.Log)
			application, err := app.New(cfg, logger, config.Properties(g.envFiles...))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return application.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "reload the catalog when the file changes (overrides CATALOG_WATCH)")
	return cmd
}
