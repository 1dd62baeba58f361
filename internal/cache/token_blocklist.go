package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/unisphere/exam-backend/internal/config"
)

// TokenBlocklist marks logged-out token ids in Redis until the token would expire anyway.
type TokenBlocklist struct {
	rdb *redis.Client
}

// NewTokenBlocklist creates a new TokenBlocklist.
func NewTokenBlocklist(rdb *redis.Client) *TokenBlocklist {
	return &TokenBlocklist{rdb: rdb}
}

// Revoke blocks tokenID for ttl.
func (b *TokenBlocklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return b.rdb.Set(ctx, config.CacheKey.RevokedTokenKey(tokenID), 1, ttl).Err()
}

// IsRevoked reports whether tokenID was logged out.
func (b *TokenBlocklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := b.rdb.Exists(ctx, config.CacheKey.RevokedTokenKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
