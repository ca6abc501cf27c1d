// Package local implements the "fs" storage backend on the local filesystem.
package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"iter"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/kbukum/memeforanyone/logger"
	"github.com/kbukum/memeforanyone/storage"
)

func init() {
	storage.RegisterDriver(storage.BackendFS, func(_ context.Context, cfg storage.Config, log *logger.Logger) (storage.ObjectStore, error) {
		s, err := NewStore(cfg.Root)
		if err != nil {
			return nil, err
		}
		log.Debug("filesystem store ready", logger.Fields("root", s.root))
		return s, nil
	})
}

const (
	dirPerm  = 0o750
	filePerm = 0o640
)

// Store implements storage.ObjectStore rooted at a directory.
type Store struct {
	root string
}

var (
	_ storage.ObjectStore = (*Store)(nil)
	_ storage.Pinger      = (*Store)(nil)
)

// NewStore creates a store rooted at root, creating the directory if missing.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, storage.Otherf("init", root, "resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, storage.Otherf("init", root, "create root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string { return s.root }

// cleanKey normalizes a key so it always resolves inside the root:
// "../x", "/x" and "a/../x" all become "x".
func cleanKey(key string) string {
	key = strings.ReplaceAll(key, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+key), "/")
}

func (s *Store) fullPath(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(cleanKey(key)))
}

// cleanPrefix applies the cleanKey rules to a list prefix, keeping a
// trailing separator so "memes/" does not match "memesx.png".
func cleanPrefix(prefix string) string {
	p := cleanKey(prefix)
	if p != "" && (strings.HasSuffix(prefix, "/") || strings.HasSuffix(prefix, "\\")) {
		p += "/"
	}
	return p
}

// List walks the tree in lexical order, yielding file keys that start with prefix.
func (s *Store) List(ctx context.Context, prefix string) iter.Seq2[string, error] {
	prefix = cleanPrefix(prefix)
	return func(yield func(string, error) bool) {
		start := s.walkStart(prefix)
		err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			rel, rerr := filepath.Rel(s.root, p)
			if rerr != nil {
				return rerr
			}
			key := filepath.ToSlash(rel)
			if d.IsDir() {
				if key != "." && !couldContain(key+"/", prefix) {
					return filepath.SkipDir
				}
				return nil
			}
			if isTempFile(d.Name()) || !strings.HasPrefix(key, prefix) {
				return nil
			}
			if !yield(key, nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			yield("", classify("list", prefix, err))
		}
	}
}

var errStop = errors.New("stop iteration")

// walkStart picks the directory implied by a cleaned prefix, so a prefix
// like "memes/2024/ca" only walks "memes/2024".
func (s *Store) walkStart(prefix string) string {
	dir := prefix
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		dir = dir[:i]
	} else {
		dir = ""
	}
	if dir == "" {
		return s.root
	}
	return s.fullPath(dir)
}

// couldContain reports whether a directory (given as "key/") can hold keys
// starting with prefix.
func couldContain(dirKey, prefix string) bool {
	return strings.HasPrefix(dirKey, prefix) || strings.HasPrefix(prefix, dirKey)
}

// Get opens the file for reading.
func (s *Store) Get(_ context.Context, key string) (io.ReadCloser, error) {
	p := s.fullPath(key)
	f, err := os.Open(p)
	if err != nil {
		return nil, classify("get", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, classify("get", key, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, storage.NotFound("get", key, nil)
	}
	return f, nil
}

// Put writes to a temp file in the destination directory, then renames it
// into place so readers never observe a partial object.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, _ int64) error {
	if err := ctx.Err(); err != nil {
		return storage.Other("put", key, err)
	}
	p := s.fullPath(key)
	if p == s.root {
		return storage.Otherf("put", key, "empty key")
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return storage.Otherf("put", key, "create directory: %w", err)
	}

	tmp := filepath.Join(dir, tempPrefix+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		return storage.Otherf("put", key, "create temp file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return storage.Otherf("put", key, "write: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return storage.Otherf("put", key, "close: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return storage.Otherf("put", key, "rename: %w", err)
	}
	return nil
}

const tempPrefix = ".mfa-tmp-"

func isTempFile(name string) bool { return strings.HasPrefix(name, tempPrefix) }

// Stat returns file metadata. Directories are not objects.
func (s *Store) Stat(_ context.Context, key string) (storage.Metadata, error) {
	info, err := os.Stat(s.fullPath(key))
	if err != nil {
		return storage.Metadata{}, classify("stat", key, err)
	}
	if info.IsDir() {
		return storage.Metadata{}, storage.NotFound("stat", key, nil)
	}
	return storage.Metadata{
		Path:         cleanKey(key),
		Size:         info.Size(),
		LastModified: info.ModTime(),
		ContentType:  mime.TypeByExtension(filepath.Ext(key)),
	}, nil
}

// Ping checks that the root is still a directory.
func (s *Store) Ping(_ context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return storage.Otherf("ping", s.root, "root unavailable: %w", err)
	}
	if !info.IsDir() {
		return storage.Otherf("ping", s.root, "root is not a directory")
	}
	return nil
}

// Delete removes the file. A missing file is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	p := s.fullPath(key)
	if p == s.root {
		return storage.Otherf("delete", key, "empty key")
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storage.Other("delete", key, err)
	}
	return nil
}

// classify maps filesystem errors onto storage kinds. ENOTDIR (a path
// component is a file) is a miss like ENOENT.
func classify(op, key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return storage.NotFound(op, key, err)
	}
	return storage.Other(op, key, err)
}
