package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/memeforanyone/component"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("mfa")
	if cfg.Enabled {
		t.Error("expected export disabled by default")
	}
	if cfg.ServiceName != "mfa" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled ignores fields", Config{Enabled: false, SampleRate: 7}, false},
		{"enabled ok", Config{Enabled: true, Endpoint: "otel:4318", SampleRate: 0.5}, false},
		{"missing endpoint", Config{Enabled: true, SampleRate: 1}, true},
		{"bad sample rate", Config{Enabled: true, Endpoint: "otel:4318", SampleRate: 1.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInitDisabled(t *testing.T) {
	p, err := Init(context.Background(), DefaultConfig("mfa"))
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if p.Tracer != nil || p.Meter != nil {
		t.Error("expected no providers when disabled")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v", err)
	}
}

func TestStartSpanAndEndSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	_, span := StartSpan(context.Background(), "storage.read")
	EndSpan(span, errors.New("boom"))

	_, ok := StartSpan(context.Background(), "storage.write")
	EndSpan(ok, nil)

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "storage.read" || spans[0].Status.Code != codes.Error {
		t.Errorf("unexpected first span: %s %v", spans[0].Name, spans[0].Status)
	}
	if spans[1].Status.Code == codes.Error {
		t.Error("successful span should not carry an error status")
	}
}

func TestOperationMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewOperationMetrics(mp.Meter("test"), "storage")
	if err != nil {
		t.Fatalf("NewOperationMetrics() error = %v", err)
	}
	ctx := context.Background()
	m.Record(ctx, 20*time.Millisecond, attribute.String("operation", "read"), attribute.String("status", "ok"))
	m.Record(ctx, 5*time.Millisecond, attribute.String("operation", "read"), attribute.String("status", "ok"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			found[md.Name] = true
			if md.Name == "storage.operation.total" {
				sum, ok := md.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 2 {
					t.Errorf("unexpected counter data: %+v", md.Data)
				}
			}
		}
	}
	for _, name := range []string{"storage.operation.total", "storage.operation.duration"} {
		if !found[name] {
			t.Errorf("metric %s not recorded", name)
		}
	}
}

func TestOperationMetricsNilSafe(t *testing.T) {
	var m *OperationMetrics
	m.Record(context.Background(), time.Second)
}

func TestComponentDisabled(t *testing.T) {
	c := NewComponent(DefaultConfig("mfa"))
	var _ component.Component = c

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy || h.Message != "disabled" {
		t.Errorf("Health() = %+v", h)
	}
	if d := c.Describe(); d.Details != "disabled" {
		t.Errorf("Describe() = %+v", d)
	}
	if err := c.Stop(ctx); err != nil {
		t.Errorf("Stop() = %v", err)
	}
}
