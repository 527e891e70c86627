package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/ChemReact-Intelligence/internal/app"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
)

// NewServeCmd creates the serve subcommand, which runs the full engine
// behind the HTTP API until interrupted.
func NewServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the prediction engine as an HTTP API server",
		Example: `  chemreact serve --config chemreact.yaml --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if port > 0 {
				cliCtx.Config.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app.Version = Version
			engine, err := app.New(ctx, cliCtx.Config, cliCtx.Logger)
			if err != nil {
				return err
			}

			cliCtx.Logger.Info("engine ready",
				logging.Int("port", cliCtx.Config.Server.Port),
				logging.String("cache_backend", cliCtx.Config.Cache.Backend))
			return engine.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}
