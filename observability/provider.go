package observability

import (
	"context"
	"errors"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/memeforanyone/component"
	"github.com/kbukum/memeforanyone/logger"
)

// Providers holds the SDK providers installed by Init.
// Both fields are nil when observability is disabled.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
}

// Init installs OTLP trace and metric providers when cfg.Enabled is set.
// When disabled it returns empty Providers and leaves the global no-op providers in place.
func Init(ctx context.Context, cfg Config) (*Providers, error) {
	if !cfg.Enabled {
		return &Providers{}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tp, err := InitTracer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	return &Providers{Tracer: tp, Meter: mp}, nil
}

// Shutdown flushes and stops whichever providers were installed.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Component manages the telemetry providers' lifecycle.
type Component struct {
	cfg       Config
	providers *Providers
	log       *logger.Logger
}

// NewComponent creates a telemetry component.
func NewComponent(cfg Config) *Component {
	return &Component{cfg: cfg, log: logger.WithComponent("telemetry")}
}

// Name implements component.Component.
func (c *Component) Name() string { return "telemetry" }

// Start implements component.Component.
func (c *Component) Start(ctx context.Context) error {
	p, err := Init(ctx, c.cfg)
	if err != nil {
		return err
	}
	c.providers = p
	if !c.cfg.Enabled {
		c.log.Debug("telemetry export disabled")
	}
	return nil
}

// Stop implements component.Component.
func (c *Component) Stop(ctx context.Context) error {
	err := c.providers.Shutdown(ctx)
	c.providers = nil
	return err
}

// Health implements component.Component.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !c.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = "otlp " + c.cfg.Endpoint
	}
	return component.Description{Name: "Telemetry", Type: "telemetry", Details: details}
}
