// Package testutil provides testing utilities for snapcache.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// OriginResponse defines the behavior of a mock origin endpoint.
type OriginResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockOrigin is a configurable upstream HTTP server for tests. It
// counts the requests it actually serves, which lets tests assert that
// a cache hit never reached the origin.
type MockOrigin struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	RequestCount      int
	LastRequestHeader http.Header
}

// NewMockOrigin starts a mock origin server.
func NewMockOrigin() *MockOrigin {
	mock := &MockOrigin{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the origin server URL.
func (m *MockOrigin) URL() string {
	return m.server.URL
}

// Close shuts down the server.
func (m *MockOrigin) Close() {
	m.server.Close()
}

// Reset clears the tracking state.
func (m *MockOrigin) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
}

// SetHandler installs a custom handler for a path.
func (m *MockOrigin) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockOrigin) SetResponse(path string, resp OriginResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests the origin served.
func (m *MockOrigin) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

func (m *MockOrigin) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

// NewJSONResponse creates a 200 response carrying a JSON payload.
func NewJSONResponse(data string) OriginResponse {
	return OriginResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNoCacheResponse creates a 200 response the cache must not store.
func NewNoCacheResponse(data string) OriginResponse {
	return OriginResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Content-Type":  "application/json; charset=utf-8",
			"Cache-Control": "no-cache",
		},
	}
}

// NewNotFoundResponse creates a 404 response.
func NewNotFoundResponse() OriginResponse {
	return OriginResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": "not found"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
