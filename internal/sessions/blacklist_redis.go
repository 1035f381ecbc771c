package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:access:"

// Blacklist holds access tokens revoked by logout until they would have
// expired anyway. A Blacklist without a Redis client is a no-op.
type Blacklist struct {
	client *redis.Client
}

// NewBlacklist is safe to call with nil to disable blacklist features.
func NewBlacklist(c *redis.Client) *Blacklist {
	return &Blacklist{client: c}
}

// Enabled reports whether revocations are persisted.
func (b *Blacklist) Enabled() bool { return b != nil && b.client != nil }

// Revoke stores the given token in the blacklist with TTL. A non-positive TTL
// means the token has already expired and nothing is stored.
func (b *Blacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if !b.Enabled() || ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, blacklistPrefix+token, "1", ttl).Err()
}

// IsRevoked returns true when the token exists in the blacklist.
// Without Redis it returns (false, nil).
func (b *Blacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	if !b.Enabled() {
		return false, nil
	}
	exists, err := b.client.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
