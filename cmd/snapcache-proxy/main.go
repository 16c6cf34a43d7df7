// Command snapcache-proxy is a caching reverse proxy: every request is
// forwarded to the configured upstream through the snapshot
// interceptor, so repeated cacheable GETs are answered from redis
// without touching the upstream.
package main

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/calverra/snapcache/pkg/logging"
	"github.com/calverra/snapcache/pkg/snapshot"
	"github.com/calverra/snapcache/pkg/storage"
)

type config struct {
	ListenAddr     string `env:"LISTEN_ADDR" envDefault:":8080"`
	UpstreamURL    string `env:"UPSTREAM_URL,required"`
	RedisURL       string `env:"REDIS_URL" envDefault:"localhost:6379"`
	CacheNamespace string `env:"CACHE_NAMESPACE" envDefault:"snapshots"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logging.Setup(logging.DefaultConfig())
		fallback := logging.NewLogger("snapcache-proxy")
		fallback.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Setup(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger := logging.NewLogger("snapcache-proxy")

	upstream, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		logger.Fatal().Err(err).Str("upstream", cfg.UpstreamURL).Msg("Invalid upstream URL")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Str("redis", cfg.RedisURL).Msg("Failed to connect to Redis")
	}
	logger.Info().Str("redis", cfg.RedisURL).Msg("Connected to Redis")

	store := storage.NewRedisStore(redisClient, cfg.CacheNamespace)
	client := &http.Client{
		Transport: snapshot.NewTransport(store, snapshot.Config{
			Namespace: cfg.CacheNamespace,
		}, nil),
		Timeout: 30 * time.Second,
	}

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	router.NotFound(proxyHandler(client, upstream, logger))

	logger.Info().
		Str("addr", cfg.ListenAddr).
		Str("upstream", upstream.String()).
		Str("namespace", cfg.CacheNamespace).
		Msg("Starting snapcache proxy")

	if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// proxyHandler forwards the incoming request to the upstream through
// the caching client and streams the answer back.
func proxyHandler(client *http.Client, upstream *url.URL, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := *upstream
		target.Path = r.URL.Path
		target.RawQuery = r.URL.RawQuery

		req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		copyProxyHeaders(req.Header, r.Header)

		resp, err := client.Do(req)
		if err != nil {
			logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Upstream request failed")
			http.Error(w, "upstream request failed", http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		for key, values := range resp.Header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to stream response")
		}
	}
}

// copyProxyHeaders carries over the headers the cache policy and the
// upstream care about. Hop-by-hop headers stay behind.
func copyProxyHeaders(dst, src http.Header) {
	for _, name := range []string{"Accept", "Accept-Encoding", "Authorization", "Cache-Control", "Range", "User-Agent"} {
		if value := src.Get(name); value != "" {
			dst.Set(name, value)
		}
	}
}
