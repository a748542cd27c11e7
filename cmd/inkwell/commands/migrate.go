package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gmarchetti/inkwell/internal/logger"
	treepg "github.com/gmarchetti/inkwell/pkg/store/tree/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Apply pending schema migrations to every postgres mount in the
configuration.

Run this after upgrading inkwell when schema changes have been made, or
before first start when auto_migrate is disabled.

Examples:
  # Run migrations with default config
  inkwell migrate

  # Run migrations with custom config
  inkwell migrate --config /etc/inkwell/config.yaml`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	migrated := 0
	for i := range cfg.Mounts {
		mc := &cfg.Mounts[i]
		if mc.Backend != "postgres" {
			continue
		}

		log := logger.With("mount", mc.Prefix, "database", mc.Postgres.Database)
		log.Info("running migrations")

		if err := treepg.RunMigrations(ctx, mc.Postgres.ConnectionString(), log); err != nil {
			return fmt.Errorf("mount %q: %w", mc.Prefix, err)
		}
		migrated++
	}

	if migrated == 0 {
		fmt.Println("No postgres mounts configured, nothing to migrate")
		return nil
	}

	fmt.Printf("Migrations completed successfully (%d postgres mount(s))\n", migrated)
	return nil
}
