package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/calverra/snapcache/pkg/storage"
)

// DefaultNamespace is used when Config.Namespace is empty.
const DefaultNamespace = "snapshots"

// Next is the capability to perform the real network call. The
// interceptor invokes it at most once per request, and never on a
// cache hit.
type Next func(req *http.Request) (*http.Response, error)

// Config holds the interceptor configuration. Immutable after New.
type Config struct {
	// Namespace is the logical cache namespace, DefaultNamespace when
	// empty. It is provisioned lazily on the first successful write.
	Namespace string

	// Filter gates which requests participate in caching beyond the
	// built-in method and range checks. Defaults to allow-all.
	Filter RequestFilter

	// Keys derives cache keys. Defaults to DefaultKeySelector.
	Keys KeySelector

	// Logger overrides the package logger when set.
	Logger *zerolog.Logger
}

// Interceptor is the read-through/write-through pipeline stage. It
// holds no mutable state beyond the store handle and is safe for
// concurrent use. Concurrent misses for the same key are not
// coordinated: both execute the real call and the last write wins.
type Interceptor struct {
	store  storage.Store
	filter RequestFilter
	keys   KeySelector
	logger zerolog.Logger
}

// New creates an interceptor over the given store.
func New(store storage.Store, cfg Config) *Interceptor {
	if store == nil {
		panic("store cannot be nil")
	}
	if cfg.Filter == nil {
		cfg.Filter = allowAll{}
	}
	if cfg.Keys == nil {
		cfg.Keys = DefaultKeySelector{}
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = log.With().Str("component", "snapshot").Logger()
	}
	logger = logger.With().Str("namespace", namespace).Logger()

	return &Interceptor{
		store:  store,
		filter: cfg.Filter,
		keys:   cfg.Keys,
		logger: logger,
	}
}

// Intercept runs the caching pipeline for one request.
//
// Non-cacheable requests are delegated straight to next. Otherwise the
// store is consulted first; a hit is synthesized from the stored
// payload without invoking next. On a miss the real call runs, a
// cacheable response is buffered and persisted best-effort, and the
// response is returned with an unread body. Storage failures never
// surface to the caller; an error comes back only when next itself
// fails.
func (i *Interceptor) Intercept(req *http.Request, next Next) (*http.Response, error) {
	if !RequestCacheable(req, i.filter) {
		cacheBypass.WithLabelValues("request").Inc()
		return next(req)
	}

	ctx := req.Context()
	key := i.keys.Key(req)

	obj, err := i.store.Get(ctx, key)
	if err == nil {
		cacheHits.Inc()
		i.logger.Debug().Str("key", key).Msg("Serving response from snapshot store")
		return synthesize(req, obj), nil
	}
	if storage.IsExpectedMiss(err) {
		cacheMisses.Inc()
		i.logger.Debug().Str("key", key).Msg("Snapshot miss")
	} else {
		storeErrors.WithLabelValues("get").Inc()
		i.logger.Warn().Err(err).Str("key", key).Msg("Snapshot read failed, falling back to network")
	}

	resp, err := next(req)
	if err != nil {
		return nil, err
	}

	if !ResponseCacheable(resp) {
		cacheBypass.WithLabelValues("response").Inc()
		return resp, nil
	}

	body, err := bufferBody(resp)
	if err != nil {
		storeErrors.WithLabelValues("buffer").Inc()
		i.logger.Warn().Err(err).Str("key", key).Msg("Failed to buffer response body")
		return resp, nil
	}

	i.persist(ctx, key, resp, body)

	// Hand back an unread body regardless of storage outcome.
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// persist writes the buffered response to the store. A write into a
// brand-new namespace fails with ErrNamespaceMissing exactly once;
// the namespace is provisioned and the write retried a single time.
// Any other failure is logged and absorbed.
func (i *Interceptor) persist(ctx context.Context, key string, resp *http.Response, body []byte) {
	obj := &storage.Object{
		Body:         body,
		ContentType:  resp.Header.Get("Content-Type"),
		CacheControl: resp.Header.Get("Cache-Control"),
	}

	err := i.store.Put(ctx, key, obj)
	if errors.Is(err, storage.ErrNamespaceMissing) {
		if ensureErr := i.store.EnsureNamespace(ctx); ensureErr != nil {
			storeErrors.WithLabelValues("ensure").Inc()
			i.logger.Warn().Err(ensureErr).Msg("Failed to provision snapshot namespace")
			return
		}
		namespaceProvisions.Inc()
		i.logger.Info().Msg("Provisioned snapshot namespace")
		err = i.store.Put(ctx, key, obj)
	}
	if err != nil {
		storeErrors.WithLabelValues("put").Inc()
		i.logger.Warn().Err(err).Str("key", key).Msg("Failed to store snapshot")
		return
	}

	i.logger.Debug().Str("key", key).Int("bytes", len(body)).Msg("Stored snapshot")
}

// bufferBody reads the full response body into memory and restores a
// replayable reader on the response.
func bufferBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

// synthesize builds a 200 response from a stored object. Content-Type
// and Content-Length come from the stored metadata; the stored
// cache-control directive is echoed when present.
func synthesize(req *http.Request, obj *storage.Object) *http.Response {
	header := make(http.Header)
	if obj.ContentType != "" {
		header.Set("Content-Type", obj.ContentType)
	}
	if obj.CacheControl != "" {
		header.Set("Cache-Control", obj.CacheControl)
	}
	header.Set("Content-Length", strconv.Itoa(len(obj.Body)))
	if !obj.LastModified.IsZero() {
		header.Set("Last-Modified", obj.LastModified.UTC().Format(http.TimeFormat))
	}

	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(obj.Body)),
		ContentLength: int64(len(obj.Body)),
		Request:       req,
	}
}
