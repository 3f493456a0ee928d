package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/channelsync/backend/internal/domain/marketplace"
)

// RedisSyncLease implements SyncLease using Redis.
// This is suitable for distributed deployments where multiple instances
// must agree on who is syncing a listing.
type RedisSyncLease struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisSyncLease creates a new Redis-based sync lease
func NewRedisSyncLease(cfg RedisConfig) (*RedisSyncLease, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSyncLease{
		client:    client,
		keyPrefix: "sync:lease:",
	}, nil
}

// NewRedisSyncLeaseWithClient creates a lease with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisSyncLeaseWithClient(client *redis.Client, keyPrefix string) *RedisSyncLease {
	if keyPrefix == "" {
		keyPrefix = "sync:lease:"
	}
	return &RedisSyncLease{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// releaseScript deletes the key only when it still carries the caller's
// token, so a holder that outlived its TTL cannot delete a lease another
// holder has since acquired.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Acquire attempts to take the lease for key.
// Uses SETNX with TTL in a single atomic operation; the stored value is the
// holder token returned to the caller. An empty token means another holder
// currently has the key.
func (l *RedisSyncLease) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	acquired, err := l.client.SetNX(ctx, l.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire sync lease: %w", err)
	}
	if !acquired {
		return "", nil
	}
	return token, nil
}

// Release gives the lease back via compare-and-delete. A stale token is a
// no-op.
func (l *RedisSyncLease) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.keyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release sync lease: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (l *RedisSyncLease) Close() error {
	return l.client.Close()
}

// Ensure RedisSyncLease implements SyncLease
var _ marketplace.SyncLease = (*RedisSyncLease)(nil)
