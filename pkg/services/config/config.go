package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Storage struct {
	DbPath string `mapstructure:"db_path"`
}

type Target struct {
	AccountID string `mapstructure:"account_id" validate:"required"`
	Region    string `mapstructure:"region" validate:"required"`
}

type Monitoring struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Targets  []Target      `mapstructure:"targets"`
}

type Config struct {
	Server     Server     `mapstructure:"server"`
	Storage    Storage    `mapstructure:"storage"`
	Monitoring Monitoring `mapstructure:"monitoring"`
}

// Load reads the optional config file at path and layers ATLAS_* environment
// variables on top. A missing file is not an error, env and defaults still
// apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("storage.db_path", "compliance-atlas.db")
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.interval", 24*time.Hour)

	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(path); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Monitoring.Enabled && len(cfg.Monitoring.Targets) == 0 {
		return nil, fmt.Errorf("monitoring is enabled but no targets are configured")
	}

	return &cfg, nil
}
