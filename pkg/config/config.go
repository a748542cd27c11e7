// Package config loads and validates the inkwell server configuration from
// file, environment, and defaults, and builds the content manager graph the
// configuration describes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gmarchetti/inkwell/internal/bytesize"
	"github.com/gmarchetti/inkwell/pkg/api"
	treepg "github.com/gmarchetti/inkwell/pkg/store/tree/postgres"
)

// Config represents the inkwell server configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (INKWELL_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// API contains the REST API server configuration
	API api.APIConfig `mapstructure:"api" yaml:"api"`

	// Contents contains document-level limits shared by all mounts
	Contents ContentsConfig `mapstructure:"contents" yaml:"contents"`

	// Mounts binds path prefixes to storage backends. A single mount with an
	// empty prefix is the plain, unrouted setup.
	Mounts []MountConfig `mapstructure:"mounts" validate:"required,min=1,dive" yaml:"mounts"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ContentsConfig contains document-level limits.
type ContentsConfig struct {
	// MaxFileSize caps the content accepted by a single save. Accepts
	// human-readable sizes like "25Mi". Zero means no limit.
	// Default: 25Mi
	MaxFileSize bytesize.ByteSize `mapstructure:"max_file_size" yaml:"max_file_size"`

	// MaxCheckpoints is the per-file checkpoint retention limit.
	// Default: 5
	MaxCheckpoints int `mapstructure:"max_checkpoints" yaml:"max_checkpoints"`
}

// MountConfig binds one path prefix to a backend.
type MountConfig struct {
	// Prefix is the canonical path prefix this mount owns. The empty prefix
	// is the fallback for otherwise unmatched paths.
	Prefix string `mapstructure:"prefix" yaml:"prefix"`

	// Backend selects the storage implementation.
	// Valid values: postgres, memory
	Backend string `mapstructure:"backend" validate:"required,oneof=postgres memory" yaml:"backend"`

	// Postgres configures the postgres backend; required when Backend is
	// "postgres".
	Postgres *treepg.Config `mapstructure:"postgres" yaml:"postgres,omitempty"`

	// Validator restricts the paths this mount accepts on writes.
	// Valid values: "" (accept everything), notebooks_only
	Validator string `mapstructure:"validator" validate:"omitempty,oneof=notebooks_only" yaml:"validator,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: path to config file (empty string uses the default
//     location)
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := DefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for structural errors beyond what the
// field tags express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	seen := map[string]bool{}
	for i := range cfg.Mounts {
		m := &cfg.Mounts[i]
		if seen[m.Prefix] {
			return fmt.Errorf("duplicate mount prefix %q", m.Prefix)
		}
		seen[m.Prefix] = true

		if m.Backend == "postgres" && m.Postgres == nil {
			return fmt.Errorf("mount %q: postgres backend requires a postgres section", m.Prefix)
		}
	}
	return nil
}

// Save writes the configuration to path in YAML form.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the config may carry database credentials.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures environment variable support and config file search.
// Environment variables use the INKWELL_ prefix with underscores, e.g.
// INKWELL_LOGGING_LEVEL=DEBUG.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("INKWELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(DefaultConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing file
// is not an error; defaults apply.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks combines the custom decode hooks: human-readable byte
// sizes and durations.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize, so
// config files can say "25Mi" or "100MB" or a plain byte count.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s" or "1h" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// DefaultConfigDir returns the configuration directory: XDG_CONFIG_HOME if
// set, otherwise ~/.config, falling back to the working directory.
func DefaultConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "inkwell")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "inkwell")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}
