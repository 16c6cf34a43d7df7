package snapshot

import (
	"net/http"

	"github.com/calverra/snapcache/pkg/storage"
)

// Transport plugs the interceptor into an http.Client as a
// RoundTripper, with the wrapped transport as the real-call step.
type Transport struct {
	base        http.RoundTripper
	interceptor *Interceptor
}

// NewTransport wraps base with the snapshot interceptor. A nil base
// uses http.DefaultTransport.
func NewTransport(store storage.Store, cfg Config, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:        base,
		interceptor: New(store, cfg),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.interceptor.Intercept(req, t.base.RoundTrip)
}
