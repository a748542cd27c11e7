package config

import (
	"time"

	"github.com/gmarchetti/inkwell/internal/bytesize"
	treepg "github.com/gmarchetti/inkwell/pkg/store/tree/postgres"
)

// DefaultConfig returns the configuration used when no config file exists:
// a single postgres mount at the root against a local database.
func DefaultConfig() *Config {
	cfg := &Config{
		Mounts: []MountConfig{
			{
				Prefix:  "",
				Backend: "postgres",
				Postgres: &treepg.Config{
					Host:     "localhost",
					Port:     5432,
					Database: "inkwell",
					User:     "inkwell",
				},
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero values with sensible defaults. Idempotent, and
// safe to call on partially specified configurations.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Contents.MaxFileSize == 0 {
		cfg.Contents.MaxFileSize = 25 * bytesize.MiB
	}
	if cfg.Contents.MaxCheckpoints == 0 {
		cfg.Contents.MaxCheckpoints = 5
	}
	for i := range cfg.Mounts {
		if cfg.Mounts[i].Postgres != nil {
			cfg.Mounts[i].Postgres.ApplyDefaults()
		}
	}
}
