// Package cache fronts the engine's per-process route memoisation with a
// shared Redis layer, so a fleet of API processes computes each (from, to)
// pair once. The engine's own cache stays authoritative; Redis only spares
// cold processes the first computation, and entries expire on a TTL because
// a redeploy may change the network.
package cache

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/citybus/citybus_core/internal/models"
)

// RouteCache is a Redis-backed cache of interpreted route answers keyed by
// stop-name pairs, with a per-key lock so concurrent identical queries reach
// the engine once.
type RouteCache struct {
	rdb     *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewFromEnv dials Redis from REDIS_ADDR/REDIS_PASSWORD/REDIS_DB (TLS via
// REDIS_TLS_ENABLED, as managed Redis providers require) and verifies the
// connection. Entry lifetime comes from CACHE_TTL, lock lifetime from
// CACHE_MUTEX_TTL.
func NewFromEnv() (*RouteCache, error) {
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, _ := time.ParseDuration(getEnv("CACHE_TTL", "10m"))
	lockTTL, _ := time.ParseDuration(getEnv("CACHE_MUTEX_TTL", "5s"))

	opts := &redis.Options{
		Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	if getEnv("REDIS_TLS_ENABLED", "false") == "true" {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RouteCache{rdb: rdb, ttl: ttl, lockTTL: lockTTL}, nil
}

// Client exposes the underlying connection for neighbours that share it, such
// as the rate limiter.
func (c *RouteCache) Client() *redis.Client { return c.rdb }

// Close releases the connection.
func (c *RouteCache) Close() error { return c.rdb.Close() }

// HealthCheck pings Redis.
func (c *RouteCache) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}
	return nil
}

// routeKey hashes the stop-name pair. Names are free text, so they are hashed
// rather than embedded in the key.
func routeKey(from, to string) string {
	sum := sha256.Sum256([]byte(from + "\x00" + to))
	return fmt.Sprintf("route:%x", sum[:8])
}

// ComputeOnce returns the cached answer for the pair, or runs compute and
// shares its result. A SetNX lock collapses a thundering herd of identical
// queries: losers wait for the winner's answer and only compute themselves if
// it never appears. Failed computations (including "not found") are never
// cached here — the engine memoises those itself.
func (c *RouteCache) ComputeOnce(ctx context.Context, from, to string, compute func() (models.RouteInfo, error)) (models.RouteInfo, error) {
	key := routeKey(from, to)

	if info, err := c.lookup(ctx, key); err == nil && info != nil {
		return *info, nil
	}

	lockKey := "lock:" + key
	acquired, err := c.rdb.SetNX(ctx, lockKey, "1", c.lockTTL).Result()
	if err != nil {
		// Degrade gracefully and compute without the lock.
		acquired = false
	} else if !acquired {
		if info, err := c.awaitWinner(ctx, key, lockKey); err == nil && info != nil {
			return *info, nil
		}
	}
	defer func() {
		if acquired {
			c.rdb.Del(ctx, lockKey)
		}
	}()

	info, err := compute()
	if err != nil {
		return models.RouteInfo{}, err
	}

	if data, err := json.Marshal(info); err == nil {
		c.rdb.Set(ctx, key, data, c.ttl)
	}

	return info, nil
}

// lookup reads a cached answer; nil means miss.
func (c *RouteCache) lookup(ctx context.Context, key string) (*models.RouteInfo, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var info models.RouteInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached route: %w", err)
	}
	return &info, nil
}

// awaitWinner polls until the lock holder finishes, then reads its answer.
func (c *RouteCache) awaitWinner(ctx context.Context, key, lockKey string) (*models.RouteInfo, error) {
	deadline := time.Now().Add(c.lockTTL)
	for time.Now().Before(deadline) {
		exists, err := c.rdb.Exists(ctx, lockKey).Result()
		if err != nil {
			return nil, err
		}
		if exists == 0 {
			return c.lookup(ctx, key)
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil, fmt.Errorf("timeout waiting for route lock")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
