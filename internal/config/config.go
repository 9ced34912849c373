// Package config loads server settings from defaults, an optional YAML
// file and NINAROW_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Addr          string `mapstructure:"addr"`
	BoardSize     int    `mapstructure:"board_size"`
	WinLength     int    `mapstructure:"win_length"`
	AIMaxDepth    int    `mapstructure:"ai_max_depth"`
	AITimeLimitMs int    `mapstructure:"ai_time_limit_ms"`
	TTSize        int    `mapstructure:"tt_size"`
	LogLevel      string `mapstructure:"log_level"`
}

func (c *Config) AITimeLimit() time.Duration {
	return time.Duration(c.AITimeLimitMs) * time.Millisecond
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("board_size", 15)
	v.SetDefault("win_length", 5)
	v.SetDefault("ai_max_depth", 0)
	v.SetDefault("ai_time_limit_ms", 1000)
	v.SetDefault("tt_size", 1<<16)
	v.SetDefault("log_level", "info")

	v.SetConfigName("ninarow")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/ninarow")
	v.SetEnvPrefix("NINAROW")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BoardSize < 3 {
		return fmt.Errorf("board_size %d is too small", c.BoardSize)
	}
	if c.WinLength < 3 || c.WinLength > c.BoardSize {
		return fmt.Errorf("win_length %d must be between 3 and board_size %d", c.WinLength, c.BoardSize)
	}
	if c.AIMaxDepth < 0 {
		return fmt.Errorf("ai_max_depth must not be negative")
	}
	if c.AITimeLimitMs < 0 {
		return fmt.Errorf("ai_time_limit_ms must not be negative")
	}
	return nil
}
