package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks responses served from the store.
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapcache_hits_total",
			Help: "Total number of requests served from the snapshot store",
		},
	)

	// cacheMisses tracks lookups that fell back to the real call.
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapcache_misses_total",
			Help: "Total number of snapshot store misses",
		},
	)

	// cacheBypass tracks requests and responses outside policy.
	cacheBypass = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcache_bypass_total",
			Help: "Total number of requests bypassing the snapshot store",
		},
		[]string{"reason"}, // "request", "response"
	)

	// storeErrors tracks unexpected storage failures by operation.
	storeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcache_store_errors_total",
			Help: "Total number of unexpected snapshot store errors",
		},
		[]string{"operation"}, // "get", "put", "ensure", "buffer"
	)

	// namespaceProvisions tracks on-demand namespace creations.
	namespaceProvisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapcache_namespace_provisions_total",
			Help: "Total number of on-demand namespace provisions",
		},
	)
)
