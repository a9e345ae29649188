// Package config loads runtime configuration from environment variables
// and an optional config file.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the server binary needs to start.
type Config struct {
	Addr        string        `mapstructure:"addr"`
	DatabaseURL string        `mapstructure:"database_url"`
	RateAPIURL  string        `mapstructure:"rate_api_url"`
	// RateRefreshInterval of zero disables the background refresh.
	RateRefreshInterval time.Duration `mapstructure:"rate_refresh_interval"`
	WorkerCount         int           `mapstructure:"worker_count"`
	WorkerQueueSize     int           `mapstructure:"worker_queue_size"`
	// DevSeed loads demo data into the memory store on boot.
	DevSeed bool `mapstructure:"dev_seed"`
}

// Load reads configuration with the FINTRACK_ env prefix, optionally
// merging a config file when path is non-empty. Missing files are not an
// error; unreadable ones are.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("fintrack")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("database_url", "")
	v.SetDefault("rate_api_url", "")
	v.SetDefault("rate_refresh_interval", 24*time.Hour)
	v.SetDefault("worker_count", 4)
	v.SetDefault("worker_queue_size", 64)
	v.SetDefault("dev_seed", false)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
