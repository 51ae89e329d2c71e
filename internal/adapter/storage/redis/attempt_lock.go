package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only when it is still held by the caller.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AttemptLock implements ports.AttemptLock with SET NX PX.
// The TTL frees the shopper if an attempt is abandoned without a callback.
type AttemptLock struct {
	client *goredis.Client
	prefix string
}

// NewAttemptLock creates a new Redis-backed checkout attempt lock.
func NewAttemptLock(client *goredis.Client) *AttemptLock {
	return &AttemptLock{
		client: client,
		prefix: "checkout_lock:",
	}
}

// Acquire takes the shopper's lock for owner. Returns false if it is held.
func (l *AttemptLock) Acquire(ctx context.Context, shopperID uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	result, err := l.client.SetArgs(ctx, l.prefix+shopperID.String(), owner, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis attempt lock acquire: %w", err)
	}
	return result == "OK", nil
}

// Release frees the lock if owner still holds it.
func (l *AttemptLock) Release(ctx context.Context, shopperID uuid.UUID, owner string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.prefix + shopperID.String()}, owner).Err(); err != nil {
		return fmt.Errorf("redis attempt lock release: %w", err)
	}
	return nil
}
