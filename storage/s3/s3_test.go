package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"

	"github.com/kbukum/memeforanyone/component"
	"github.com/kbukum/memeforanyone/storage"
	"github.com/kbukum/memeforanyone/storage/storagetest"
)

var bucketSeq atomic.Int64

// newFakeS3 starts an in-process S3 server with one bucket and returns a
// config pointing at it.
func newFakeS3(t *testing.T) storage.Config {
	t.Helper()
	backend := s3mem.New()
	ts := httptest.NewServer(gofakes3.New(backend).Server())
	t.Cleanup(ts.Close)

	bucket := fmt.Sprintf("memes-%d", bucketSeq.Add(1))
	if err := backend.CreateBucket(bucket); err != nil {
		t.Fatalf("create bucket: %v", err)
	}
	return storage.Config{
		Backend:     storage.BackendS3,
		Root:        bucket,
		S3Endpoint:  ts.URL,
		S3Region:    "us-east-1",
		S3AccessKey: "test-access",
		S3SecretKey: "test-secret",
	}
}

func newFakeStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), newFakeS3(t))
	if err != nil {
		t.Fatalf("NewStore() = %v", err)
	}
	return s
}

func TestConformance(t *testing.T) {
	storagetest.Run(t, storage.BackendS3, func(t *testing.T) storage.ObjectStore {
		return newFakeStore(t)
	})
}

func TestStatMetadata(t *testing.T) {
	s := newFakeStore(t)
	ctx := context.Background()
	if err := s.Put(ctx, "img/cat.png", strings.NewReader("meow"), 4); err != nil {
		t.Fatalf("Put() = %v", err)
	}
	md, err := s.Stat(ctx, "img/cat.png")
	if err != nil {
		t.Fatalf("Stat() = %v", err)
	}
	if md.Size != 4 {
		t.Errorf("Size = %d", md.Size)
	}
	if md.ContentType != "image/png" {
		t.Errorf("ContentType = %q", md.ContentType)
	}
	if md.ETag == "" || strings.Contains(md.ETag, `"`) {
		t.Errorf("ETag = %q", md.ETag)
	}
}

func TestMissingBucket(t *testing.T) {
	cfg := newFakeS3(t)
	cfg.Root = "no-such-bucket"
	s, err := NewStore(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, err := range s.List(ctx, "") {
		if !storage.IsNotFound(err) {
			t.Errorf("List on missing bucket = %v, want not found", err)
		}
	}

	st := storage.Wrap(storage.BackendS3, s, nil)
	keys, err := st.List(ctx, "memes/")
	if err != nil {
		t.Fatalf("facade List() = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected empty list, got %v", keys)
	}
}

func TestComponentUnhealthyForMissingBucket(t *testing.T) {
	cfg := newFakeS3(t)
	cfg.Root = "no-such-bucket"
	c := storage.NewComponent(cfg, nil)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	h := c.Health(ctx)
	if h.Status != component.StatusUnhealthy {
		t.Errorf("Health = %+v, want unhealthy for a missing bucket", h)
	}
	if err := c.Storage().Ping(ctx); err == nil || storage.IsNotFound(err) {
		t.Errorf("Ping() = %v, want a non-not-found error", err)
	}
}

func TestComponentHealthyForExistingBucket(t *testing.T) {
	c := storage.NewComponent(newFakeS3(t), nil)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("Health = %+v, want healthy", h)
	}
}

func TestRegisteredAsS3(t *testing.T) {
	st, err := storage.New(context.Background(), newFakeS3(t), nil)
	if err != nil {
		t.Fatalf("storage.New() = %v", err)
	}
	if st.Backend() != storage.BackendS3 {
		t.Errorf("Backend() = %s", st.Backend())
	}
	if err := st.Write(context.Background(), "a.txt", []byte("x")); err != nil {
		t.Errorf("Write() = %v", err)
	}
}

func responseError(status int) error {
	return &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
			Err:      errors.New("api error"),
		},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want storage.Kind
	}{
		{"head not found", &types.NotFound{}, storage.KindNotFound},
		{"no such key", &types.NoSuchKey{}, storage.KindNotFound},
		{"no such bucket", &types.NoSuchBucket{}, storage.KindNotFound},
		{"wrapped no such key", fmt.Errorf("op: %w", &types.NoSuchKey{}), storage.KindNotFound},
		{"http 404", responseError(http.StatusNotFound), storage.KindNotFound},
		{"http 403", responseError(http.StatusForbidden), storage.KindOther},
		{"http 503", responseError(http.StatusServiceUnavailable), storage.KindOther},
		{"network", errors.New("connection reset"), storage.KindOther},
		{"canceled", context.Canceled, storage.KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("get", "k", tt.err)
			if got := storage.KindOf(err); got != tt.want {
				t.Errorf("KindOf(classify(%v)) = %v, want %v", tt.err, got, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Error("classified error should wrap the SDK error")
			}
		})
	}
}
