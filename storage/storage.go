package storage

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/kbukum/memeforanyone/logger"
)

// Storage is the object storage facade. It holds exactly one driver,
// fixed at construction, and is safe for concurrent use.
type Storage struct {
	backend Backend
	store   ObjectStore
	log     *logger.Logger
	obs     *instruments
}

// Wrap binds an already constructed driver. backend is reported by Backend
// and in telemetry; use it when embedding custom or in-memory drivers.
func Wrap(backend Backend, store ObjectStore, log *logger.Logger) *Storage {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return newStorage(backend, store, log.WithComponent("storage"))
}

func newStorage(backend Backend, store ObjectStore, log *logger.Logger) *Storage {
	return &Storage{
		backend: backend,
		store:   store,
		log:     log,
		obs:     newInstruments(log),
	}
}

// cleanPath drops leading slashes so "/images/a.png" and "images/a.png"
// name the same object on every backend.
func cleanPath(p string) string {
	return strings.TrimLeft(p, "/")
}

// Backend reports which driver is bound.
func (s *Storage) Backend() Backend { return s.backend }

// List returns every key that starts with prefix, in driver order.
// A missing namespace yields an empty list rather than an error.
func (s *Storage) List(ctx context.Context, prefix string) (keys []string, err error) {
	prefix = cleanPath(prefix)
	ctx, done := s.observe(ctx, "list", prefix)
	defer func() { done(err) }()

	keys = []string{}
	for key, lerr := range s.store.List(ctx, prefix) {
		if lerr != nil {
			if IsNotFound(lerr) {
				return keys, nil
			}
			return nil, lerr
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Read returns the full content of the object at path.
func (s *Storage) Read(ctx context.Context, path string) (data []byte, err error) {
	path = cleanPath(path)
	ctx, done := s.observe(ctx, "read", path)
	defer func() { done(err) }()

	rc, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck // read-only handle

	data, err = io.ReadAll(rc)
	if err != nil {
		return nil, Other("read", path, err)
	}
	return data, nil
}

// Write creates or replaces the object at path with data.
func (s *Storage) Write(ctx context.Context, path string, data []byte) (err error) {
	path = cleanPath(path)
	ctx, done := s.observe(ctx, "write", path)
	defer func() { done(err) }()

	return s.store.Put(ctx, path, bytes.NewReader(data), int64(len(data)))
}

// Exists reports whether an object is present at path. Only a not-found
// result maps to false; any other failure is returned to the caller.
func (s *Storage) Exists(ctx context.Context, path string) (ok bool, err error) {
	path = cleanPath(path)
	ctx, done := s.observe(ctx, "exists", path)
	defer func() { done(err) }()

	if _, err = s.store.Stat(ctx, path); err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes the object at path. Whether a missing object is an error
// is up to the driver; the bundled drivers treat it as success.
func (s *Storage) Delete(ctx context.Context, path string) (err error) {
	path = cleanPath(path)
	ctx, done := s.observe(ctx, "delete", path)
	defer func() { done(err) }()

	return s.store.Delete(ctx, path)
}

// Stat returns the object's metadata as reported by the driver.
func (s *Storage) Stat(ctx context.Context, path string) (md Metadata, err error) {
	path = cleanPath(path)
	ctx, done := s.observe(ctx, "stat", path)
	defer func() { done(err) }()

	return s.store.Stat(ctx, path)
}

// Ping verifies the backend is reachable. Drivers implementing Pinger are
// asked directly; otherwise a Stat on HealthProbeKey must answer found or
// not-found.
func (s *Storage) Ping(ctx context.Context) (err error) {
	ctx, done := s.observe(ctx, "ping", "")
	defer func() { done(err) }()

	if p, ok := s.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	if _, err = s.store.Stat(ctx, HealthProbeKey); err != nil && !IsNotFound(err) {
		return err
	}
	return nil
}
