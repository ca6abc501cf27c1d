package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/memeforanyone/logger"
)

// InitMeter initializes the OpenTelemetry meter provider and installs it globally.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricInterval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// OperationMetrics counts and times operations of one subsystem, e.g.
// "storage.operation.total" and "storage.operation.duration".
type OperationMetrics struct {
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewOperationMetrics creates "<prefix>.operation.total" and
// "<prefix>.operation.duration" instruments on the given meter.
func NewOperationMetrics(meter metric.Meter, prefix string) (*OperationMetrics, error) {
	total, err := meter.Int64Counter(prefix+".operation.total",
		metric.WithDescription("Total number of "+prefix+" operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s.operation.total counter: %w", prefix, err)
	}

	duration, err := meter.Float64Histogram(prefix+".operation.duration",
		metric.WithDescription("Duration of "+prefix+" operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s.operation.duration histogram: %w", prefix, err)
	}

	return &OperationMetrics{total: total, duration: duration}, nil
}

// Record records one completed operation. attrs are attached to both instruments.
func (m *OperationMetrics) Record(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	if m == nil {
		return
	}
	opt := metric.WithAttributes(attrs...)
	m.total.Add(ctx, 1, opt)
	m.duration.Record(ctx, d.Seconds(), opt)
}
