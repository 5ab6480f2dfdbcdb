// Package config loads the monitor configuration from an optional YAML file
// and SMARTSOS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBackingFile  = "iot_data.csv"
	DefaultExportPath   = "iot_data_filtered.csv"
	DefaultTickInterval = 10
	DefaultLogFile      = "smartsos.log"
	DefaultLogLevel     = "info"

	envPrefix = "SMARTSOS"
)

type Config struct {
	BackingFilePath     string    `mapstructure:"backing_file_path"`
	TickIntervalSeconds int       `mapstructure:"tick_interval_seconds"`
	ExportPath          string    `mapstructure:"export_path"`
	ChartWidth          int       `mapstructure:"chart_width"`
	Log                 LogConfig `mapstructure:"log"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// TickInterval returns the spacing between simulated readings.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSeconds) * time.Second
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BackingFilePath:     DefaultBackingFile,
		TickIntervalSeconds: DefaultTickInterval,
		ExportPath:          DefaultExportPath,
		Log: LogConfig{
			Level: DefaultLogLevel,
			File:  DefaultLogFile,
		},
	}
}

// Load reads the configuration. With an explicit path the file must exist;
// otherwise smartsos.yaml is looked up in the working directory and in
// $HOME/.config/smartsos, and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("smartsos")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "smartsos"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("backing_file_path", d.BackingFilePath)
	v.SetDefault("tick_interval_seconds", d.TickIntervalSeconds)
	v.SetDefault("export_path", d.ExportPath)
	v.SetDefault("chart_width", d.ChartWidth)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BackingFilePath) == "" {
		return errors.New("backing_file_path must not be empty")
	}
	if strings.TrimSpace(c.ExportPath) == "" {
		return errors.New("export_path must not be empty")
	}
	if c.TickIntervalSeconds < 1 {
		return fmt.Errorf("tick_interval_seconds must be >= 1, got %d", c.TickIntervalSeconds)
	}
	if c.ChartWidth < 0 {
		return fmt.Errorf("chart_width must be >= 0, got %d", c.ChartWidth)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps debug|info|warn|error to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (allowed: debug, info, warn, error)", s)
	}
}
