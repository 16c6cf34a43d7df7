package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldBody         = "body"
	fieldContentType  = "content_type"
	fieldCacheControl = "cache_control"
	fieldStoredAt     = "stored_at"
)

// RedisStore stores entries as redis hashes. The namespace is tracked
// by a marker key so that a write into a fresh namespace fails with
// ErrNamespaceMissing until EnsureNamespace has run, matching the
// lazily-created-container behavior of bucket-style blob stores.
type RedisStore struct {
	redis     *redis.Client
	namespace string
}

// NewRedisStore creates a store scoped to the given namespace.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis:     client,
		namespace: namespace,
	}
}

func (s *RedisStore) entryKey(key string) string {
	return fmt.Sprintf("snap:%s:%s", s.namespace, key)
}

func (s *RedisStore) markerKey() string {
	return fmt.Sprintf("snap:ns:%s", s.namespace)
}

// Get retrieves the object stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) (*Object, error) {
	fields, err := s.redis.HGetAll(ctx, s.entryKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	// HGetAll returns an empty map, not redis.Nil, for absent keys.
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	obj := &Object{
		Body:         []byte(fields[fieldBody]),
		ContentType:  fields[fieldContentType],
		CacheControl: fields[fieldCacheControl],
	}
	if unix, err := strconv.ParseInt(fields[fieldStoredAt], 10, 64); err == nil {
		obj.LastModified = time.Unix(unix, 0)
	}
	return obj, nil
}

// Put stores obj under key. Fails with ErrNamespaceMissing until the
// namespace marker exists.
func (s *RedisStore) Put(ctx context.Context, key string, obj *Object) error {
	exists, err := s.redis.Exists(ctx, s.markerKey()).Result()
	if err != nil {
		return fmt.Errorf("redis exists: %w", err)
	}
	if exists == 0 {
		return ErrNamespaceMissing
	}

	fields := map[string]any{
		fieldBody:         obj.Body,
		fieldContentType:  obj.ContentType,
		fieldCacheControl: obj.CacheControl,
		fieldStoredAt:     time.Now().Unix(),
	}
	if err := s.redis.HSet(ctx, s.entryKey(key), fields).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

// EnsureNamespace sets the namespace marker. Idempotent.
func (s *RedisStore) EnsureNamespace(ctx context.Context) error {
	if err := s.redis.Set(ctx, s.markerKey(), time.Now().Unix(), 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
