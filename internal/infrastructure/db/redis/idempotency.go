package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = time.Hour

// IdempotencyGuard tracks Idempotency-Key values seen on the ask endpoint so
// a replayed request is rejected before a second token is debited.
// Key format: ask:<username>:<idempotency_key>
type IdempotencyGuard struct {
	client *redis.Client
}

// NewIdempotencyGuard creates an IdempotencyGuard wrapping the given Redis client.
func NewIdempotencyGuard(client *redis.Client) *IdempotencyGuard {
	return &IdempotencyGuard{client: client}
}

// Seen reports whether this key has already been used by the account.
func (g *IdempotencyGuard) Seen(ctx context.Context, username, key string) (bool, error) {
	n, err := g.client.Exists(ctx, g.key(username, key)).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency check: %w", err)
	}
	return n > 0, nil
}

// Mark records the key as used (expires after idempotencyTTL).
func (g *IdempotencyGuard) Mark(ctx context.Context, username, key string) error {
	return g.client.Set(ctx, g.key(username, key), "1", idempotencyTTL).Err()
}

func (g *IdempotencyGuard) key(username, key string) string {
	return fmt.Sprintf("ask:%s:%s", username, key)
}
