package cache

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"fashion-ai-server/modules/common/config"
)

// Connect - Redis connection, nil when Redis is not configured or
// unreachable (callers treat a nil client as "caching disabled").
func Connect(cfg *config.Config) *redis.Client {
	if cfg.RedisHost == "" {
		log.Println("⚠️  Redis not configured, status caching disabled")
		return nil
	}

	log.Printf("🔌 Connecting to Redis: %s", cfg.GetRedisAddr())

	var tlsConfig *tls.Config
	if cfg.RedisUseTLS {
		tlsConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		TLSConfig:    tlsConfig,
		DB:           0,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("❌ Redis ping failed: %v", err)
		return nil
	}

	return rdb
}

// StatusCache - terminal generation statuses keyed by generation id.
// Terminal states never transition again, so a cached entry can be
// served without touching the database or the provider.
type StatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStatusCache(rdb *redis.Client) *StatusCache {
	return &StatusCache{rdb: rdb, ttl: 24 * time.Hour}
}

func (c *StatusCache) key(generationID string) string {
	return "generation:status:" + generationID
}

// Get - cached terminal status payload, ok=false on miss or disabled cache
func (c *StatusCache) Get(ctx context.Context, generationID string) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}

	data, err := c.rdb.Get(ctx, c.key(generationID)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set - cache a terminal status payload. Failures are logged only; the
// cache is an optimization, never a source of truth.
func (c *StatusCache) Set(ctx context.Context, generationID string, payload []byte) {
	if c == nil || c.rdb == nil {
		return
	}

	if err := c.rdb.Set(ctx, c.key(generationID), payload, c.ttl).Err(); err != nil {
		log.Printf("⚠️  [Cache] Failed to cache status for %s: %v", generationID, err)
	}
}
