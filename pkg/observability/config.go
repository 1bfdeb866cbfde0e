// Package observability provides OpenTelemetry tracing, Prometheus-backed
// metrics, and structured logging for the redblack commands.
package observability

import (
	"io"
	"log/slog"
)

// AppMode identifies the command the process was launched for.
type AppMode string

const (
	// ModeStress is the randomized stress harness.
	ModeStress AppMode = "stress"
	// ModeSort is the one-shot sort command.
	ModeSort AppMode = "sort"
)

const (
	defaultServiceName        = "redblack"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// LogOutput receives log records. Nil means stderr.
	LogOutput io.Writer

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporters.
	OTLPHeaders map[string]string

	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables OTLP export; metrics still reach the Prometheus registry.
	OTLPEndpoint string

	// SampleRatio is the trace sampling ratio. Zero samples everything.
	SampleRatio float64

	LogLevel slog.Level

	// ShutdownTimeoutSec bounds the flush on shutdown.
	ShutdownTimeoutSec int

	OTLPInsecure bool
	LogJSON      bool
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeStress,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
