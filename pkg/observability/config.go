// Package observability wires OpenTelemetry tracing and metrics and the
// structured logger for every catalog command.
package observability

import (
	"io"
	"log/slog"
	"time"
)

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is a one-shot command such as load or get.
	ModeCLI AppMode = "cli"
	// ModeShell is the interactive menu loop.
	ModeShell AppMode = "shell"
)

const (
	defaultServiceName     = "catalog"
	defaultShutdownTimeout = 5 * time.Second
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment (e.g. "production", "dev").
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables OTLP export.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the exporters.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// SampleRatio is the root span sampling ratio. Zero samples everything.
	SampleRatio float64

	// Prometheus attaches a Prometheus reader to the meter provider and
	// exposes it as Providers.MetricsHandler.
	Prometheus bool

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON switches the log output from text to JSON.
	LogJSON bool

	// LogOutput receives log lines. Nil means os.Stderr.
	LogOutput io.Writer

	// ShutdownTimeout bounds the flush on shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config for zero-config startup: no export, info
// logs as text on stderr.
func DefaultConfig() Config {
	return Config{
		ServiceName:     defaultServiceName,
		Mode:            ModeCLI,
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}
