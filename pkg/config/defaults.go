package config

// Source defaults.
const (
	DefaultSourcePath      = "amazon-product-data.csv"
	DefaultSourceSeparator = ","
	DefaultSourceHeader    = true
	DefaultSourceMaxSize   = "100MB"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = LogFormatText
)

// Shell defaults.
const (
	DefaultShellColor = true
)

// Telemetry defaults. Empty endpoints disable export.
const (
	DefaultTelemetryOTLPEndpoint = ""
	DefaultTelemetryOTLPInsecure = false
	DefaultTelemetrySampleRatio  = 1.0
	DefaultTelemetryMetricsAddr  = ""
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)
