package snapshot

import (
	"net/http"
	"strconv"
	"time"
)

// KeySelector derives the cache key for a request. The whole cache
// hinges on this being deterministic: for a fixed selector and request,
// the same key must come out every time, and distinct cacheable
// resources must not collide unless the caller chose a deliberately
// coarse selector.
type KeySelector interface {
	Key(req *http.Request) string
}

// KeyFunc adapts a plain function to a KeySelector.
type KeyFunc func(req *http.Request) string

// Key implements KeySelector.
func (f KeyFunc) Key(req *http.Request) string { return f(req) }

// DefaultKeySelector keys by host followed by path-and-query. Host
// first groups entries by origin; path and query disambiguate the
// resource within it.
type DefaultKeySelector struct{}

// Key implements KeySelector.
func (DefaultKeySelector) Key(req *http.Request) string {
	return req.URL.Host + req.URL.RequestURI()
}

// TimeBucketKeys wraps a selector so keys roll over every bucket
// interval, giving coarse periodic invalidation without any delete
// path: entries from past buckets simply stop being addressed.
func TimeBucketKeys(inner KeySelector, bucket time.Duration) KeySelector {
	return &bucketedKeys{inner: inner, bucket: bucket, now: time.Now}
}

type bucketedKeys struct {
	inner  KeySelector
	bucket time.Duration
	now    func() time.Time
}

func (b *bucketedKeys) Key(req *http.Request) string {
	start := b.now().Truncate(b.bucket).Unix()
	return b.inner.Key(req) + "@" + strconv.FormatInt(start, 10)
}
