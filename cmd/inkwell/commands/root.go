// Package commands implements the CLI commands for inkwell server
// management.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gmarchetti/inkwell/internal/logger"
	"github.com/gmarchetti/inkwell/pkg/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Inkwell - PostgreSQL-backed document store",
	Long: `Inkwell is a hierarchical document store backed by PostgreSQL. It serves
directories, files, and notebook documents over a REST API, with per-file
checkpoint history and a routing layer that composes multiple storage
backends into one virtual tree.

Use "inkwell [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/inkwell/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig loads the configuration named by the global flag and
// initializes the logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	err = logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inkwell %s (commit %s, built %s)\n", Version, Commit, Date)
	},
}
