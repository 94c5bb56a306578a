package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore keeps payment-initiation nonces with an expiry. It survives
// restarts and is shared across instances, unlike the in-process maps it
// replaces.
type TokenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTokenStore(rdb *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{rdb: rdb, ttl: ttl}
}

func tokenKey(orderID int64) string {
	return fmt.Sprintf("paytoken:%d", orderID)
}

func (s *TokenStore) Put(ctx context.Context, orderID int64, nonce string) error {
	return s.rdb.Set(ctx, tokenKey(orderID), nonce, s.ttl).Err()
}

// GetDel consumes the stored nonce: it returns the value and removes it in
// one round trip, so a nonce matches at most one settlement. Returns ""
// when none exists or it expired.
func (s *TokenStore) GetDel(ctx context.Context, orderID int64) (string, error) {
	v, err := s.rdb.GetDel(ctx, tokenKey(orderID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}
