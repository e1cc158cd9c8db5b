// Package cache stores query embeddings in Redis.
package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yablochko8/color-finder-semantic-search/domain/search"
)

// ErrCorruptEntry indicates a cached value that is not a float32 vector.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// RedisEmbeddingCache keeps query vectors in Redis with a TTL.
type RedisEmbeddingCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisEmbeddingCache connects to the Redis server at url
// (redis:// or rediss://) and checks it responds.
func NewRedisEmbeddingCache(ctx context.Context, url string, ttl time.Duration) (*RedisEmbeddingCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := NewRedisEmbeddingCacheWithClient(redis.NewClient(opts), ttl)
	if err := c.client.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return c, nil
}

// NewRedisEmbeddingCacheWithClient wraps an existing client.
func NewRedisEmbeddingCacheWithClient(client redis.UniversalClient, ttl time.Duration) *RedisEmbeddingCache {
	return &RedisEmbeddingCache{client: client, ttl: ttl}
}

// Get returns the vector stored under key. A miss is not an error.
func (c *RedisEmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	vector, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return vector, true, nil
}

// Set stores vector under key for the configured TTL.
func (c *RedisEmbeddingCache) Set(ctx context.Context, key string, vector []float32) error {
	if err := c.client.Set(ctx, key, encode(vector), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the client.
func (c *RedisEmbeddingCache) Close() error {
	return c.client.Close()
}

// encode packs the vector as little-endian float32s.
func encode(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, f := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decode(raw []byte) ([]float32, error) {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorruptEntry, len(raw))
	}
	vector := make([]float32, len(raw)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vector, nil
}

var _ search.QueryCache = (*RedisEmbeddingCache)(nil)
