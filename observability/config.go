package observability

import (
	"fmt"
	"time"
)

// Config configures OpenTelemetry export.
type Config struct {
	// Enabled turns on OTLP export. When false, global providers remain no-op.
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	// Insecure allows plaintext connections (for development).
	Insecure bool `mapstructure:"insecure" json:"insecure"`
	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" json:"sample_rate"`
	// ServiceName is the name reported in the resource.
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	// ServiceVersion is the version reported in the resource.
	ServiceVersion string `mapstructure:"service_version" json:"service_version"`
	// Environment is the deployment environment (development, production).
	Environment string `mapstructure:"environment" json:"environment"`
	// MetricInterval is the metric export interval.
	MetricInterval time.Duration `mapstructure:"metric_interval" json:"metric_interval"`
}

// DefaultConfig returns sensible defaults for development. Export stays disabled.
func DefaultConfig(serviceName string) Config {
	return Config{
		Enabled:        false,
		Endpoint:       "localhost:4318",
		Insecure:       true,
		SampleRate:     1.0,
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		MetricInterval: 15 * time.Second,
	}
}

// Validate checks the configuration when export is enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("observability.endpoint is required when enabled")
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("observability.sample_rate must be between 0 and 1 (got: %v)", c.SampleRate)
	}
	return nil
}
