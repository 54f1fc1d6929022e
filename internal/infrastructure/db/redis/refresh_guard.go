package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultGuardTTL = 5 * time.Second

// RefreshGuard is a short-lived Redis lock held while a refresh token's session
// is being updated.
// Key format: refresh:lock:<sha256(refresh_token)>
type RefreshGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRefreshGuard creates a RefreshGuard. The lock expires after ttl even if
// the holder never releases it.
func NewRefreshGuard(client *redis.Client, ttl time.Duration) *RefreshGuard {
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &RefreshGuard{client: client, ttl: ttl}
}

// Acquire reports whether the caller now holds the lock for refreshToken.
func (g *RefreshGuard) Acquire(ctx context.Context, refreshToken string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(refreshToken), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("refresh guard acquire: %w", err)
	}
	return ok, nil
}

func (g *RefreshGuard) Release(ctx context.Context, refreshToken string) error {
	if err := g.client.Del(ctx, g.key(refreshToken)).Err(); err != nil {
		return fmt.Errorf("refresh guard release: %w", err)
	}
	return nil
}

// key hashes the token so raw refresh tokens never land in Redis.
func (g *RefreshGuard) key(refreshToken string) string {
	sum := sha256.Sum256([]byte(refreshToken))
	return "refresh:lock:" + hex.EncodeToString(sum[:])
}
