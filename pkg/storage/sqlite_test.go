package storage

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T, namespace string) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "snap.db"), namespace)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_PutBeforeProvision(t *testing.T) {
	store := newTestSQLiteStore(t, "snapshots")
	ctx := context.Background()

	err := store.Put(ctx, "example.com/a", &Object{Body: []byte("data")})
	if !errors.Is(err, ErrNamespaceMissing) {
		t.Fatalf("Put() error = %v, want ErrNamespaceMissing", err)
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t, "snapshots")
	ctx := context.Background()

	if err := store.EnsureNamespace(ctx); err != nil {
		t.Fatalf("EnsureNamespace() error = %v", err)
	}

	want := &Object{
		Body:         []byte(`{"hello":"world"}`),
		ContentType:  "application/json; charset=utf-8",
		CacheControl: "public",
	}
	if err := store.Put(ctx, "example.com/things?page=1", want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "example.com/things?page=1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got.Body, want.Body) {
		t.Errorf("Body = %q, want %q", got.Body, want.Body)
	}
	if got.ContentType != want.ContentType {
		t.Errorf("ContentType = %q, want %q", got.ContentType, want.ContentType)
	}
	if got.CacheControl != want.CacheControl {
		t.Errorf("CacheControl = %q, want %q", got.CacheControl, want.CacheControl)
	}
	if got.LastModified.IsZero() {
		t.Error("LastModified not set by store")
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := newTestSQLiteStore(t, "snapshots")
	ctx := context.Background()
	store.EnsureNamespace(ctx)

	_, err := store.Get(ctx, "never-stored")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_LastWriteWins(t *testing.T) {
	store := newTestSQLiteStore(t, "snapshots")
	ctx := context.Background()
	store.EnsureNamespace(ctx)

	store.Put(ctx, "k", &Object{Body: []byte("first"), ContentType: "text/plain"})
	if err := store.Put(ctx, "k", &Object{Body: []byte("second"), ContentType: "text/html"}); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got.Body) != "second" || got.ContentType != "text/html" {
		t.Errorf("got (%q, %q), want (%q, %q)", got.Body, got.ContentType, "second", "text/html")
	}
}

func TestSQLiteStore_NamespaceIsolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.db")
	ctx := context.Background()

	a, err := NewSQLiteStore(path, "tenant-a")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer a.Close()
	b, err := NewSQLiteStore(path, "tenant-b")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer b.Close()

	a.EnsureNamespace(ctx)
	if err := a.Put(ctx, "k", &Object{Body: []byte("a-data")}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// tenant-b was never provisioned, its writes still fail
	if err := b.Put(ctx, "k", &Object{Body: []byte("b-data")}); !errors.Is(err, ErrNamespaceMissing) {
		t.Errorf("Put() error = %v, want ErrNamespaceMissing", err)
	}
	// and tenant-a's entry is not visible through tenant-b
	if _, err := b.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_EnsureNamespaceIdempotent(t *testing.T) {
	store := newTestSQLiteStore(t, "snapshots")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.EnsureNamespace(ctx); err != nil {
			t.Fatalf("EnsureNamespace() call %d error = %v", i, err)
		}
	}
}
