package services

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/logger"
)

// EmbeddingCache is a two tier vector cache: L1 in memory, L2 in Redis when configured.
type EmbeddingCache struct {
	l1  sync.Map // key -> *cacheEntry
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

type cacheEntry struct {
	vector    []float32
	expiresAt time.Time
}

// NewEmbeddingCache builds the cache. An empty or unreachable redisURL leaves only L1 enabled.
func NewEmbeddingCache(ctx context.Context, redisURL string, ttl time.Duration, log *zap.Logger) *EmbeddingCache {
	c := &EmbeddingCache{ttl: ttl, log: logger.OrNop(log)}

	if redisURL == "" {
		return c
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		c.log.Warn("invalid redis url, L2 cache disabled", zap.Error(err))
		return c
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		c.log.Warn("redis unreachable, L2 cache disabled", zap.Error(err))
		_ = rdb.Close()
		return c
	}

	c.rdb = rdb
	c.log.Info("embedding cache connected to redis", zap.String("addr", opts.Addr))
	return c
}

// CacheKey builds a deterministic key from parts.
func CacheKey(prefix string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return fmt.Sprintf("%s:%x", prefix, hash[:16])
}

// Get tries L1, then L2. An L2 hit populates L1.
func (c *EmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}

	if val, ok := c.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if c.ttl <= 0 || time.Now().Before(entry.expiresAt) {
			return entry.vector, true
		}
		c.l1.Delete(key)
	}

	if c.rdb == nil {
		return nil, false
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil {
		return nil, false
	}

	c.storeL1(key, vector)
	return vector, true
}

// Set stores the vector in both tiers.
func (c *EmbeddingCache) Set(ctx context.Context, key string, vector []float32) {
	if c == nil {
		return
	}

	c.storeL1(key, vector)

	if c.rdb == nil {
		return
	}

	data, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Debug("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *EmbeddingCache) storeL1(key string, vector []float32) {
	c.l1.Store(key, &cacheEntry{
		vector:    vector,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// Close releases the Redis connection.
func (c *EmbeddingCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
