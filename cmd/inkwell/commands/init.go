package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmarchetti/inkwell/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Write a sample inkwell configuration file.

By default, the file is created at $XDG_CONFIG_HOME/inkwell/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  inkwell init

  # Initialize with custom path
  inkwell init --config /etc/inkwell/config.yaml

  # Force overwrite existing config
  inkwell init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.Save(config.DefaultConfig(), path); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to point at your database")
	fmt.Println("  2. Provision the schema with: inkwell migrate")
	fmt.Println("  3. Start the server with: inkwell serve")
	return nil
}
