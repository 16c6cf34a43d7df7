// Package snapshot implements a transparent read-through/write-through
// cache for outbound HTTP requests, backed by a durable blob store.
//
// The interceptor sits between the caller and the real transport.
// Cacheable GET requests are answered from the store when possible;
// on a miss the real call runs and its response is persisted
// best-effort before being handed back untouched. Storage failures
// never fail a request: the pipeline always degrades to the network.
//
// # Basic Usage
//
//	store := storage.NewRedisStore(redisClient, "snapshots")
//
//	client := &http.Client{
//		Transport: snapshot.NewTransport(store, snapshot.Config{}, nil),
//	}
//
//	// First call hits the origin and stores the response;
//	// identical calls afterwards are served from redis.
//	resp, err := client.Get("https://api.example.com/v1/things")
//
// # Key Selection and Filtering
//
// Which requests are cached and under which key is pluggable:
//
//	cfg := snapshot.Config{
//		Namespace: "catalog",
//		Filter: snapshot.FilterFunc(func(r *http.Request) bool {
//			return strings.HasPrefix(r.URL.Path, "/v1/catalog/")
//		}),
//		Keys: snapshot.TimeBucketKeys(snapshot.DefaultKeySelector{}, time.Hour),
//	}
//
// The default key is host plus path-and-query; callers with volatile
// query parameters (tokens, correlation IDs) should supply their own
// KeySelector that strips them.
//
// # Metrics
//
// The package exports prometheus counters:
//
//   - snapcache_hits_total - responses served from the store
//   - snapcache_misses_total - lookups that fell back to the network
//   - snapcache_bypass_total{reason} - requests/responses outside policy
//   - snapcache_store_errors_total{operation} - unexpected storage failures
//   - snapcache_namespace_provisions_total - on-demand namespace creations
package snapshot
