package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abishekhariharan076/Academic-Emotional-Support-Portal/internal/crypto"
)

const revokedTokenPrefix = "revoked_access_token:"

// Denylist marks access tokens revoked before their natural expiry.
// Keys live only as long as the token they shadow would have, so the
// set is self-cleaning. With no redis client configured the portal
// falls back to pure stateless verification.
type Denylist struct {
	redis *redis.Client
}

func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{redis: client}
}

func (d *Denylist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if d.redis == nil || ttl <= 0 {
		return nil
	}
	return d.redis.Set(ctx, revokedTokenPrefix+crypto.HashToken(token), "1", ttl).Err()
}

func (d *Denylist) IsRevoked(ctx context.Context, token string) bool {
	if d.redis == nil {
		return false
	}
	value, err := d.redis.Get(ctx, revokedTokenPrefix+crypto.HashToken(token)).Result()
	if err != nil {
		return false
	}
	return value == "1"
}
