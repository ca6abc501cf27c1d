package storage

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kbukum/memeforanyone/component"
	"github.com/kbukum/memeforanyone/logger"
)

// HealthProbeKey is the key Ping stats on drivers without a Pinger. It is
// never expected to exist; only found or not-found counts as reachable.
const HealthProbeKey = ".mfa-health-probe"

// Component wraps Storage and implements component.Component for lifecycle management.
type Component struct {
	storage atomic.Pointer[Storage]
	cfg     Config
	log     *logger.Logger
}

// ensure Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// NewComponent creates a storage component for use with the component registry.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Component{cfg: cfg, log: log}
}

// Storage returns the bound facade, or nil if not started.
func (c *Component) Storage() *Storage {
	return c.storage.Load()
}

// Name returns the component name.
func (c *Component) Name() string { return "storage" }

// Start builds the facade for the configured backend.
func (c *Component) Start(ctx context.Context) error {
	s, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.storage.Store(s)
	return nil
}

// Stop releases the facade.
func (c *Component) Stop(_ context.Context) error {
	c.storage.Store(nil)
	return nil
}

// Health reports whether the bound backend answers Ping.
func (c *Component) Health(ctx context.Context) component.Health {
	s := c.storage.Load()
	if s == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "storage not initialized",
		}
	}

	if err := s.Ping(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("health check failed: %v", err),
		}
	}

	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
	}
}

// Describe returns summary info for the startup log.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Storage",
		Type:    "storage",
		Details: c.cfg.String(),
	}
}
