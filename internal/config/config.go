// Package config loads process-level settings: where the database lives,
// where campaign and rollout files live, and how the process logs.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// AppConfig is the process configuration. Campaign parameters and rollout
// knobs live in their own files and packages; this covers everything else.
type AppConfig struct {
	DatabaseDriver string        `mapstructure:"database_driver"` // "sqlite" or "postgres"
	DatabaseDSN    string        `mapstructure:"database_dsn"`
	ConfigDir      string        `mapstructure:"config_dir"`   // campaign YAML directory
	RolloutFile    string        `mapstructure:"rollout_file"` // feature rollout YAML
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"` // "console" or "json"
	WatchInterval  time.Duration `mapstructure:"watch_interval"`
}

// Default returns the configuration used when no file or env overrides exist.
func Default() AppConfig {
	return AppConfig{
		DatabaseDriver: "sqlite",
		DatabaseDSN:    "lottery.db",
		ConfigDir:      "configs",
		RolloutFile:    "configs/rollout.yaml",
		LogLevel:       "info",
		LogFormat:      "console",
		WatchInterval:  10 * time.Second,
	}
}

// Load reads the app config. An explicit path wins; otherwise lottery.yaml is
// searched in the working directory and ./configs. Environment variables with
// the LOTTERY_ prefix override file values. A missing file is not an error.
func Load(path string) (AppConfig, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("database_driver", def.DatabaseDriver)
	v.SetDefault("database_dsn", def.DatabaseDSN)
	v.SetDefault("config_dir", def.ConfigDir)
	v.SetDefault("rollout_file", def.RolloutFile)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("watch_interval", def.WatchInterval)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("lottery")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}
	v.SetEnvPrefix("LOTTERY")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c AppConfig) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database_driver must be sqlite or postgres, got %q", c.DatabaseDriver)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("watch_interval must be positive, got %s", c.WatchInterval)
	}
	return nil
}
