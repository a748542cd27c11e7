package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gmarchetti/inkwell/internal/logger"
	"github.com/gmarchetti/inkwell/pkg/api"
	"github.com/gmarchetti/inkwell/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the inkwell server",
	Long: `Start the inkwell server with the specified configuration.

The server builds every configured mount, wires them into the routing layer,
and serves the content API until interrupted. SIGINT and SIGTERM trigger
graceful shutdown.

Examples:
  # Start with the default config location
  inkwell serve

  # Start with a custom config file
  inkwell serve --config /etc/inkwell/config.yaml

  # Override config values from the environment
  INKWELL_LOGGING_LEVEL=DEBUG inkwell serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting inkwell",
		"version", Version,
		"mounts", len(cfg.Mounts),
		"port", cfg.API.Port,
	)

	graph, err := config.BuildManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := graph.Close(); err != nil {
			logger.Error("error closing stores", "error", err)
		}
	}()

	server := api.NewServer(cfg.API, graph.Manager)
	if err := server.Start(ctx); err != nil {
		return err
	}

	logger.Info("inkwell stopped")
	return nil
}
