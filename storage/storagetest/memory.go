// Package storagetest provides an in-memory ObjectStore and a conformance
// suite that every storage driver must pass.
package storagetest

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // etag only
	"encoding/hex"
	"io"
	"iter"
	"mime"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/memeforanyone/storage"
)

type memObject struct {
	data    []byte
	modTime time.Time
}

// Memory is a map-backed storage.ObjectStore. Failures can be injected per
// operation with Fail to exercise error paths in callers.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]*memObject
	faults  map[string]error
	calls   map[string]int
}

var _ storage.ObjectStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string]*memObject),
		faults:  make(map[string]error),
		calls:   make(map[string]int),
	}
}

// Fail makes every subsequent call to op ("list", "get", "put", "stat",
// "delete") return err. A nil err clears the fault.
func (m *Memory) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.faults, op)
		return
	}
	m.faults[op] = err
}

// Calls returns how many times op was invoked.
func (m *Memory) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *Memory) enter(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.faults[op]
}

// List yields keys with the given prefix in lexical order.
func (m *Memory) List(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := m.enter("list"); err != nil {
			yield("", err)
			return
		}
		m.mu.RLock()
		keys := make([]string, 0, len(m.objects))
		for k := range m.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		m.mu.RUnlock()
		sort.Strings(keys)

		for _, k := range keys {
			if err := ctx.Err(); err != nil {
				yield("", storage.Other("list", prefix, err))
				return
			}
			if !yield(k, nil) {
				return
			}
		}
	}
}

// Get returns a reader over a copy of the stored bytes.
func (m *Memory) Get(_ context.Context, p string) (io.ReadCloser, error) {
	if err := m.enter("get"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[p]
	if !ok {
		return nil, storage.NotFound("get", p, nil)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

// Put stores the reader's content, replacing any existing object.
func (m *Memory) Put(_ context.Context, p string, r io.Reader, _ int64) error {
	if err := m.enter("put"); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.Other("put", p, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[p] = &memObject{data: data, modTime: time.Now()}
	return nil
}

// Stat reports size, modification time, extension-derived content type and an MD5 ETag.
func (m *Memory) Stat(_ context.Context, p string) (storage.Metadata, error) {
	if err := m.enter("stat"); err != nil {
		return storage.Metadata{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[p]
	if !ok {
		return storage.Metadata{}, storage.NotFound("stat", p, nil)
	}
	sum := md5.Sum(obj.data) //nolint:gosec // etag only
	return storage.Metadata{
		Path:         p,
		Size:         int64(len(obj.data)),
		LastModified: obj.modTime,
		ContentType:  mime.TypeByExtension(path.Ext(p)),
		ETag:         hex.EncodeToString(sum[:]),
	}, nil
}

// Delete removes the object. Missing objects are not an error.
func (m *Memory) Delete(_ context.Context, p string) error {
	if err := m.enter("delete"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, p)
	return nil
}
