// Package config loads catalog configuration from defaults, an optional YAML
// file and CATALOG_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/catalog/pkg/observability"
)

// Sentinel validation errors.
var (
	ErrEmptySource        = errors.New("source path must not be empty")
	ErrInvalidSeparator   = errors.New("separator must be a single character other than a double quote")
	ErrInvalidSourceSize  = errors.New("invalid source max size")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within (0, 1]")
)

const (
	envPrefix  = "CATALOG"
	configName = "catalog"
)

// Config holds all configuration for the catalog binary.
type Config struct {
	Source    SourceConfig    `mapstructure:"source"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Shell     ShellConfig     `mapstructure:"shell"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// SourceConfig describes the product file loaded at startup.
type SourceConfig struct {
	Path      string `mapstructure:"path"`
	Separator string `mapstructure:"separator"`
	MaxSize   string `mapstructure:"max_size"`
	Header    bool   `mapstructure:"header"`
}

// SeparatorRune returns the separator as a rune. Valid after LoadConfig.
func (sc SourceConfig) SeparatorRune() rune {
	r, _ := utf8.DecodeRuneInString(sc.Separator)

	return r
}

// MaxSizeBytes returns the size limit in bytes; zero means unlimited.
func (sc SourceConfig) MaxSizeBytes() (uint64, error) {
	if strings.TrimSpace(sc.MaxSize) == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(sc.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidSourceSize, sc.MaxSize, err)
	}

	return size, nil
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ShellConfig holds interactive shell configuration.
type ShellConfig struct {
	Color bool `mapstructure:"color"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Environment  string  `mapstructure:"environment"`
	MetricsAddr  string  `mapstructure:"metrics_addr"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// LoadConfig loads configuration. An empty configPath searches for
// catalog.yaml in ., ./config and /etc/catalog and tolerates its absence; an
// explicit path must exist.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/catalog")
	}

	viperCfg.SetEnvPrefix(envPrefix)
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

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("source.path", DefaultSourcePath)
	viperCfg.SetDefault("source.separator", DefaultSourceSeparator)
	viperCfg.SetDefault("source.header", DefaultSourceHeader)
	viperCfg.SetDefault("source.max_size", DefaultSourceMaxSize)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("shell.color", DefaultShellColor)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultTelemetryOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultTelemetryOTLPInsecure)
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultTelemetrySampleRatio)
	viperCfg.SetDefault("telemetry.metrics_addr", DefaultTelemetryMetricsAddr)
}

func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Source.Path) == "" {
		return ErrEmptySource
	}

	if utf8.RuneCountInString(config.Source.Separator) != 1 || config.Source.Separator == `"` {
		return fmt.Errorf("%w: %q", ErrInvalidSeparator, config.Source.Separator)
	}

	_, err := config.Source.MaxSizeBytes()
	if err != nil {
		return err
	}

	_, err = observability.ParseLevel(config.Logging.Level)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	switch strings.ToLower(config.Logging.Format) {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Telemetry.SampleRatio <= 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	return nil
}
