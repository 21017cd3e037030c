// Package cache provides the content-addressed route result cache.
//
// Fingerprint is grounded on the original prototype's
// route_engine/app/cache.py:Cache._key (canonical sorted-key JSON,
// SHA-256, "route:" prefix) rather than
// passbi_core/internal/cache/redis.go's RouteKey, which hashes raw
// lat/lon floats and is not constraint-aware. Get/Set and the
// lock/wait-for-lock thundering-herd guard are grounded on that same
// teacher file's AcquireLock/ReleaseLock/WaitForLock.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cargorouter/routeengine/internal/config"
)

// ErrUnavailable marks a cache failure that callers should treat as a
// miss rather than an error, per spec.md §7 ("Cache unavailable").
var ErrUnavailable = errors.New("cache unavailable")

// fingerprintPayload declares its fields in sorted JSON key order
// (c, city, dst, src): encoding/json emits struct fields in
// declaration order, so this order is what makes the encoding
// sorted-key.
type fingerprintPayload struct {
	Constraints interface{} `json:"c"`
	City        string      `json:"city"`
	Dst         [2]float64  `json:"dst"`
	Src         [2]float64  `json:"src"`
}

// Fingerprint computes the content-addressed cache key for a route
// request: "route:" followed by the hex SHA-256 digest of a
// sorted-key JSON encoding of {c: constraints, city, dst, src}.
func Fingerprint(city string, src, dst [2]float64, constraints interface{}) string {
	payload := fingerprintPayload{City: city, Src: src, Dst: dst, Constraints: constraints}
	// json.Marshal on a struct is deterministic for a fixed Go type,
	// which is what makes this fingerprint reproducible across calls.
	b, err := json.Marshal(payload)
	if err != nil {
		// Marshaling a fingerprintPayload of primitive fields cannot fail.
		panic(fmt.Sprintf("cache: failed to marshal fingerprint payload: %v", err))
	}
	sum := sha256.Sum256(b)
	return "route:" + hex.EncodeToString(sum[:])
}

// Cache wraps a Redis client with the result cache's get/set and
// single-flight lock semantics.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// New connects to Redis using cfg, grounded on
// passbi_core/internal/cache/redis.go's GetClient.
func New(cfg *config.CacheConfig) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return &Cache{client: client, ttl: cfg.TTL, lockTTL: cfg.LockTTL}
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

// HealthCheck pings Redis.
func (c *Cache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get fetches and unmarshals a cached value into dest. ok is false on
// a cache miss. Any Redis-level failure is logged and treated as a
// miss rather than propagated, per spec.md §7.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (ok bool) {
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		log.Printf("cache: get %s failed, degrading to miss: %v", key, err)
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		log.Printf("cache: corrupt entry for %s, degrading to miss: %v", key, err)
		return false
	}
	return true
}

// Set marshals value and stores it with the configured TTL. Failures
// are logged and swallowed; a failed cache write must never fail the
// request it is caching for.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	b, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache: failed to marshal value for %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		log.Printf("cache: set %s failed: %v", key, err)
	}
}

func lockKey(key string) string {
	return key + ":lock"
}

// AcquireLock attempts to become the single computer for key, via
// Redis SETNX, returning true if the lock was acquired.
func (c *Cache) AcquireLock(ctx context.Context, key string) bool {
	ok, err := c.client.SetNX(ctx, lockKey(key), 1, c.lockTTL).Result()
	if err != nil {
		log.Printf("cache: acquire lock for %s failed, proceeding without coalescing: %v", key, err)
		return false
	}
	return ok
}

// ReleaseLock drops the lock for key.
func (c *Cache) ReleaseLock(ctx context.Context, key string) {
	if err := c.client.Del(ctx, lockKey(key)).Err(); err != nil {
		log.Printf("cache: release lock for %s failed: %v", key, err)
	}
}

// WaitForLock polls for the result a concurrent request is computing,
// returning true once it appears (unmarshaled into dest) or false if
// maxWait elapses first, matching
// passbi_core/internal/cache/redis.go:WaitForLock's 100ms poll interval.
func (c *Cache) WaitForLock(ctx context.Context, key string, dest interface{}, maxWait time.Duration) bool {
	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if c.Get(ctx, key, dest) {
				return true
			}
		}
	}
	return false
}
