package storage

import (
	"context"
	"sort"
	"sync"

	apperrors "github.com/kbukum/memeforanyone/errors"
	"github.com/kbukum/memeforanyone/logger"
	"github.com/kbukum/memeforanyone/validation"
)

// DriverFactory builds an ObjectStore from storage configuration.
type DriverFactory func(ctx context.Context, cfg Config, log *logger.Logger) (ObjectStore, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[Backend]DriverFactory)
)

// RegisterDriver registers a driver factory for the given backend.
// Driver packages call this from init so that importing them is enough
// to make the backend available to New.
func RegisterDriver(backend Backend, f DriverFactory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[backend] = f
}

// Drivers returns the registered backends in sorted order.
func Drivers() []Backend {
	driversMu.RLock()
	defer driversMu.RUnlock()
	out := make([]Backend, 0, len(drivers))
	for b := range drivers {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func driverNames() []string {
	backends := Drivers()
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = string(b)
	}
	return names
}

func lookupDriver(backend Backend) (DriverFactory, bool) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	f, ok := drivers[backend]
	return f, ok
}

// New builds the facade for cfg.Backend. An unknown backend, or a known one
// whose driver package was not imported, is a configuration error and no
// driver is constructed.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Storage, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	l := log.WithComponent("storage")

	if err := validation.New().
		OneOf("storage.backend", string(cfg.Backend), driverNames()).
		Err(); err != nil {
		return nil, apperrors.InvalidConfig("storage.backend",
			"unsupported storage backend \""+string(cfg.Backend)+"\"").WithCause(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.InvalidConfig("storage", err.Error()).WithCause(err)
	}

	f, ok := lookupDriver(cfg.Backend)
	if !ok {
		return nil, apperrors.InvalidConfig("storage.backend",
			"unsupported storage backend \""+string(cfg.Backend)+"\"")
	}

	l.Info("initializing storage", logger.Fields(logger.FieldBackend, string(cfg.Backend), "target", cfg.String()))
	store, err := f(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	return newStorage(cfg.Backend, store, l), nil
}
