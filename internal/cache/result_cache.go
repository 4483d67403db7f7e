package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// KeyPrefix namespaces every key written by ResultCache.
const KeyPrefix = "finsight"

// ResultEntry is the stored form of a cached engine response.
type ResultEntry struct {
	Payload  json.RawMessage `json:"payload"`
	CachedAt time.Time       `json:"cached_at"`
}

// ResultCacheStats tracks cache performance metrics
type ResultCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
}

// ResultCache stores engine responses in Redis keyed by operation and request
// body. Failures are logged and reported as misses; they never reach callers.
// A nil *ResultCache is a valid, always-missing cache.
type ResultCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	breaker *CircuitBreaker
	logger  *logrus.Logger

	mu    sync.Mutex
	stats ResultCacheStats
}

// NewResultCache creates a ResultCache guarded by breaker.
func NewResultCache(client redis.Cmdable, ttl time.Duration, breaker *CircuitBreaker, logger *logrus.Logger) *ResultCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if breaker == nil {
		breaker = NewCircuitBreaker("redis-result-cache", BreakerConfig{}, logger)
	}
	return &ResultCache{
		client:  client,
		ttl:     ttl,
		breaker: breaker,
		logger:  logger,
	}
}

// Key derives the cache key for an operation and its raw request body.
func Key(op string, body []byte) string {
	sum := sha256.Sum256(body)
	return fmt.Sprintf("%s:%s:%s", KeyPrefix, op, hex.EncodeToString(sum[:]))
}

// Get decodes the cached value for key into dest and reports whether it was found.
func (c *ResultCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}

	var data string
	var found bool
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil {
		c.fail("get", key, err)
		return false
	}
	if !found {
		c.count(func(s *ResultCacheStats) { s.Misses++ })
		return false
	}

	var entry ResultEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.fail("decode", key, err)
		return false
	}
	if err := json.Unmarshal(entry.Payload, dest); err != nil {
		c.fail("decode", key, err)
		return false
	}

	c.count(func(s *ResultCacheStats) { s.Hits++ })
	return true
}

// Set stores value under key with the cache TTL.
func (c *ResultCache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.fail("encode", key, err)
		return
	}
	data, err := json.Marshal(ResultEntry{Payload: payload, CachedAt: time.Now().UTC()})
	if err != nil {
		c.fail("encode", key, err)
		return
	}

	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, key, data, c.ttl).Err()
	})
	if err != nil {
		c.fail("set", key, err)
		return
	}
	c.count(func(s *ResultCacheStats) { s.Sets++ })
}

// Ping checks the Redis connection without going through the breaker.
func (c *ResultCache) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("result cache disabled")
	}
	return c.client.Ping(ctx).Err()
}

// BreakerState reports the state of the guarding circuit breaker.
func (c *ResultCache) BreakerState() BreakerState {
	if c == nil {
		return Closed
	}
	return c.breaker.State()
}

// Stats returns a snapshot of the cache counters.
func (c *ResultCache) Stats() ResultCacheStats {
	if c == nil {
		return ResultCacheStats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *ResultCache) count(update func(*ResultCacheStats)) {
	c.mu.Lock()
	update(&c.stats)
	c.mu.Unlock()
}

func (c *ResultCache) fail(op, key string, err error) {
	c.count(func(s *ResultCacheStats) { s.Errors++ })
	c.logger.WithFields(logrus.Fields{
		"operation": op,
		"key":       key,
		"error":     err.Error(),
	}).Warn("Result cache operation failed")
}
