package storagetest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/memeforanyone/storage"
)

// Run exercises the observable contract of an ObjectStore through the
// facade. newStore must return an empty store for each call.
func Run(t *testing.T, backend storage.Backend, newStore func(t *testing.T) storage.ObjectStore) {
	t.Helper()

	setup := func(t *testing.T) *storage.Storage {
		t.Helper()
		return storage.Wrap(backend, newStore(t), nil)
	}

	t.Run("WriteThenRead", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()
		want := []byte("hello meme")
		if err := s.Write(ctx, "memes/a.txt", want); err != nil {
			t.Fatalf("Write() = %v", err)
		}
		got, err := s.Read(ctx, "memes/a.txt")
		if err != nil {
			t.Fatalf("Read() = %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Read() = %q, want %q", got, want)
		}
	})

	t.Run("WriteOverwrites", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()
		mustWrite(t, s, "k.bin", []byte("first version"))
		mustWrite(t, s, "k.bin", []byte("v2"))
		got, err := s.Read(ctx, "k.bin")
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "v2" {
			t.Errorf("Read() = %q, want v2", got)
		}
	})

	t.Run("EmptyObject", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()
		mustWrite(t, s, "empty", nil)
		got, err := s.Read(ctx, "empty")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty content, got %d bytes", len(got))
		}
		md, err := s.Stat(ctx, "empty")
		if err != nil {
			t.Fatal(err)
		}
		if md.Size != 0 {
			t.Errorf("Stat().Size = %d, want 0", md.Size)
		}
	})

	t.Run("ReadMissingIsNotFound", func(t *testing.T) {
		s := setup(t)
		_, err := s.Read(context.Background(), "nope/missing.png")
		assertNotFound(t, err)
	})

	t.Run("StatMissingIsNotFound", func(t *testing.T) {
		s := setup(t)
		_, err := s.Stat(context.Background(), "missing.png")
		assertNotFound(t, err)
	})

	t.Run("StatReportsSize", func(t *testing.T) {
		s := setup(t)
		mustWrite(t, s, "img/cat.png", []byte("12345"))
		md, err := s.Stat(context.Background(), "img/cat.png")
		if err != nil {
			t.Fatal(err)
		}
		if md.Size != 5 {
			t.Errorf("Size = %d, want 5", md.Size)
		}
		if md.LastModified.IsZero() {
			t.Error("LastModified not set")
		}
	})

	t.Run("Exists", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()
		ok, err := s.Exists(ctx, "x.txt")
		if err != nil || ok {
			t.Fatalf("Exists(missing) = %v, %v", ok, err)
		}
		mustWrite(t, s, "x.txt", []byte("x"))
		ok, err = s.Exists(ctx, "x.txt")
		if err != nil || !ok {
			t.Fatalf("Exists(present) = %v, %v", ok, err)
		}
	})

	t.Run("DeleteThenExists", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()
		mustWrite(t, s, "gone.txt", []byte("x"))
		if err := s.Delete(ctx, "gone.txt"); err != nil {
			t.Fatalf("Delete() = %v", err)
		}
		ok, err := s.Exists(ctx, "gone.txt")
		if err != nil || ok {
			t.Errorf("Exists after delete = %v, %v", ok, err)
		}
	})

	t.Run("DeleteMissingSucceeds", func(t *testing.T) {
		s := setup(t)
		if err := s.Delete(context.Background(), "never-there"); err != nil {
			t.Errorf("Delete(missing) = %v", err)
		}
	})

	t.Run("ListPrefix", func(t *testing.T) {
		s := setup(t)
		for _, k := range []string{"memes/b.png", "memes/a.png", "memes/sub/c.png", "other/d.png", "memesx.png"} {
			mustWrite(t, s, k, []byte(k))
		}
		got, err := s.List(context.Background(), "memes/")
		if err != nil {
			t.Fatal(err)
		}
		slices.Sort(got)
		want := []string{"memes/a.png", "memes/b.png", "memes/sub/c.png"}
		if !slices.Equal(got, want) {
			t.Errorf("List(memes/) = %v, want %v", got, want)
		}
	})

	t.Run("ListEmptyPrefixReturnsAll", func(t *testing.T) {
		s := setup(t)
		mustWrite(t, s, "a", []byte("1"))
		mustWrite(t, s, "b/c", []byte("2"))
		got, err := s.List(context.Background(), "")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("List(\"\") = %v", got)
		}
	})

	t.Run("ListMissingPrefixIsEmpty", func(t *testing.T) {
		s := setup(t)
		got, err := s.List(context.Background(), "no/such/prefix/")
		if err != nil {
			t.Fatalf("List() = %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("List() = %#v, want empty non-nil slice", got)
		}
	})

	t.Run("ListPrefixThroughObjectIsEmpty", func(t *testing.T) {
		s := setup(t)
		mustWrite(t, s, "images", []byte("not a directory"))
		got, err := s.List(context.Background(), "images/sub/")
		if err != nil {
			t.Fatalf("List() = %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("List(images/sub/) = %#v, want empty non-nil slice", got)
		}
	})

	t.Run("LeadingSlashRoundTrip", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()
		mustWrite(t, s, "/images/a.png", []byte("png"))

		for _, p := range []string{"/images/a.png", "images/a.png"} {
			ok, err := s.Exists(ctx, p)
			if err != nil || !ok {
				t.Errorf("Exists(%q) = %v, %v", p, ok, err)
			}
		}
		for _, prefix := range []string{"/images/", "images/"} {
			got, err := s.List(ctx, prefix)
			if err != nil {
				t.Fatalf("List(%q) = %v", prefix, err)
			}
			if want := []string{"images/a.png"}; !slices.Equal(got, want) {
				t.Errorf("List(%q) = %v, want %v", prefix, got, want)
			}
		}
		got, err := s.Read(ctx, "images/a.png")
		if err != nil || string(got) != "png" {
			t.Errorf("Read() = %q, %v", got, err)
		}
	})

	t.Run("ConcurrentWrites", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()
		g, gctx := errgroup.WithContext(ctx)
		const n = 16
		for i := range n {
			g.Go(func() error {
				return s.Write(gctx, fmt.Sprintf("par/%02d.txt", i), []byte{byte(i)})
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatalf("concurrent writes: %v", err)
		}
		got, err := s.List(ctx, "par/")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != n {
			t.Errorf("expected %d objects, got %d", n, len(got))
		}
	})
}

func mustWrite(t *testing.T, s *storage.Storage, p string, data []byte) {
	t.Helper()
	if err := s.Write(context.Background(), p, data); err != nil {
		t.Fatalf("Write(%q) = %v", p, err)
	}
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("errors.Is(err, ErrNotFound) = false for %v", err)
	}
	if storage.KindOf(err) != storage.KindNotFound {
		t.Errorf("KindOf(err) = %v", storage.KindOf(err))
	}
}
