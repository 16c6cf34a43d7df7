// Package storage defines the blob store contract used by the snapshot
// cache, together with redis, sqlite and in-memory backends.
//
// A store holds whole-object entries keyed by opaque strings inside a
// single namespace. Entries carry the raw payload plus content-type and
// cache-control metadata. Expiry and eviction are store-lifecycle
// concerns and are intentionally absent from this contract.
package storage

import (
	"context"
	"errors"
	"net"
	"time"
)

var (
	// ErrNotFound indicates the key (or the whole namespace) does not
	// exist on read.
	ErrNotFound = errors.New("entry not found")

	// ErrNamespaceMissing indicates a write against a namespace that has
	// not been provisioned yet. Recoverable via EnsureNamespace.
	ErrNamespaceMissing = errors.New("namespace missing")
)

// Object is a stored blob with its adapter-native metadata.
type Object struct {
	// Body is the raw payload.
	Body []byte

	// ContentType is the MIME type recorded at store time.
	ContentType string

	// CacheControl is the cache-control directive recorded at store
	// time, empty when the origin sent none.
	CacheControl string

	// LastModified is when the entry was last written, supplied by the
	// store on reads.
	LastModified time.Time
}

// Store is a key/value blob store scoped to one namespace.
//
// Implementations must be safe for concurrent use and must honor
// context cancellation on every method.
type Store interface {
	// Get retrieves the object stored under key.
	// Returns ErrNotFound when the key or the namespace is absent.
	Get(ctx context.Context, key string) (*Object, error)

	// Put stores obj under key, replacing any previous entry.
	// Returns ErrNamespaceMissing when the namespace has not been
	// provisioned; callers may EnsureNamespace and retry.
	Put(ctx context.Context, key string, obj *Object) error

	// EnsureNamespace provisions the namespace. Idempotent.
	EnsureNamespace(ctx context.Context) error
}

// IsExpectedMiss reports whether err is a steady-state cache miss
// rather than a storage fault: a missing entry or namespace, or a
// timeout-class failure. Callers treat these silently; anything else
// is worth a warning.
func IsExpectedMiss(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNamespaceMissing) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
