// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ytget/media-downloader/internal/model"
)

// Config holds all configuration for the application.
type Config struct {
	Download DownloadConfig
	Logging  LoggingConfig
	State    StateConfig
}

// DownloadConfig contains batch download configuration.
type DownloadConfig struct {
	SaveDirectory  string
	MaxVideos      int
	FilenameFormat int
	RateLimitDelay time.Duration
	RequiredFreeMB uint64
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// StateConfig contains session persistence configuration.
type StateConfig struct {
	File string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MEDIADL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that loaded values are usable.
func (c *Config) Validate() error {
	if c.Download.MaxVideos < 1 {
		return fmt.Errorf("download.maxvideos must be at least 1, got %d", c.Download.MaxVideos)
	}
	if !model.FilenameFormat(c.Download.FilenameFormat).IsValid() {
		return fmt.Errorf("download.filenameformat must be 0-3, got %d", c.Download.FilenameFormat)
	}
	if c.Download.RateLimitDelay < 0 {
		return fmt.Errorf("download.ratelimitdelay must not be negative")
	}
	return nil
}

func setDefaults() {
	// Download
	viper.SetDefault("download.savedirectory", "")
	viper.SetDefault("download.maxvideos", 50)
	viper.SetDefault("download.filenameformat", 0)
	viper.SetDefault("download.ratelimitdelay", 2*time.Second)
	viper.SetDefault("download.requiredfreemb", 500)

	// State
	viper.SetDefault("state.file", "")

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
