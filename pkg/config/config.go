// Package config provides configuration loading and validation for the redblack tools.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidOperations  = errors.New("workload operations must be positive")
	ErrInvalidKeySpace    = errors.New("workload key space must be positive")
	ErrInvalidMix         = errors.New("workload operation mix must be within 0..100 percent")
	ErrInvalidVerifyEvery = errors.New("workload verify interval must not be negative")
	ErrInvalidMaxNodes    = errors.New("workload max nodes must not be negative")
	ErrInvalidLogLevel    = errors.New("unknown log level")
	ErrInvalidLogFormat   = errors.New("log format must be json or text")
)

// Default configuration values.
const (
	defaultSeed          = 1
	defaultOperations    = 100000
	defaultKeySpace      = 4096
	defaultInsertPercent = 50
	defaultErasePercent  = 35
	defaultVerifyEvery   = 1000
	defaultServiceName   = "redblack"
	maxPercent           = 100
	maxKeySpace          = 1 << 32
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config holds all configuration for the redblack tools.
type Config struct {
	Workload  WorkloadConfig  `mapstructure:"workload"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// WorkloadConfig drives the randomized stress harness.
type WorkloadConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	Seed          int64         `mapstructure:"seed"`
	Operations    int           `mapstructure:"operations"`
	KeySpace      int64         `mapstructure:"key_space"`
	InsertPercent int           `mapstructure:"insert_percent"`
	ErasePercent  int           `mapstructure:"erase_percent"`
	VerifyEvery   int           `mapstructure:"verify_every"`
	MaxNodes      int           `mapstructure:"max_nodes"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds tracing and metrics export settings.
type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	Environment  string `mapstructure:"environment"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	MetricsFile  string `mapstructure:"metrics_file"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
}

// SlogLevel parses the configured level.
func (lc LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(lc.Level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, lc.Level)
	}

	return level, nil
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	// Set defaults.
	setDefaults(viperCfg)

	// Read config file.
	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("redblack")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/redblack")
	}

	// Read environment variables.
	viperCfg.SetEnvPrefix("REDBLACK")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Workload defaults.
	viperCfg.SetDefault("workload.seed", defaultSeed)
	viperCfg.SetDefault("workload.operations", defaultOperations)
	viperCfg.SetDefault("workload.key_space", defaultKeySpace)
	viperCfg.SetDefault("workload.insert_percent", defaultInsertPercent)
	viperCfg.SetDefault("workload.erase_percent", defaultErasePercent)
	viperCfg.SetDefault("workload.verify_every", defaultVerifyEvery)
	viperCfg.SetDefault("workload.max_nodes", 0)
	viperCfg.SetDefault("workload.timeout", "10m")

	// Logging defaults.
	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", LogFormatText)

	// Telemetry defaults.
	viperCfg.SetDefault("telemetry.service_name", defaultServiceName)
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.metrics_file", "")
}

// Validate checks the configuration after flags or files changed it.
func (config *Config) Validate() error {
	work := config.Workload

	if work.Operations <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOperations, work.Operations)
	}

	if work.KeySpace <= 0 || work.KeySpace > maxKeySpace {
		return fmt.Errorf("%w: %d", ErrInvalidKeySpace, work.KeySpace)
	}

	if work.InsertPercent < 0 || work.ErasePercent < 0 || work.InsertPercent+work.ErasePercent > maxPercent {
		return fmt.Errorf("%w: insert %d, erase %d", ErrInvalidMix, work.InsertPercent, work.ErasePercent)
	}

	if work.VerifyEvery < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidVerifyEvery, work.VerifyEvery)
	}

	if work.MaxNodes < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxNodes, work.MaxNodes)
	}

	_, err := config.Logging.SlogLevel()
	if err != nil {
		return err
	}

	if config.Logging.Format != LogFormatJSON && config.Logging.Format != LogFormatText {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	return nil
}
