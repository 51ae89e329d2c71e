package redis

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// NonceStore implements ports.NonceStore for signed admin requests.
// Nonces are client-chosen, so they are hashed before becoming part of a
// key: a replayed nonce still collides while key length stays fixed.
type NonceStore struct {
	client *goredis.Client
	prefix string
}

// NewNonceStore creates a new Redis-backed nonce store.
func NewNonceStore(client *goredis.Client) *NonceStore {
	return &NonceStore{
		client: client,
		prefix: "admin_nonce:",
	}
}

func (s *NonceStore) key(accessKey, nonce string) string {
	sum := blake2b.Sum256([]byte(nonce))
	return s.prefix + accessKey + ":" + hex.EncodeToString(sum[:16])
}

// CheckAndSet records nonce for accessKey with SET NX. It returns false
// if the nonce was already used within ttl.
func (s *NonceStore) CheckAndSet(ctx context.Context, accessKey string, nonce string, ttl time.Duration) (bool, error) {
	result, err := s.client.SetArgs(ctx, s.key(accessKey, nonce), 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis admin nonce: %w", err)
	}
	return result == "OK", nil
}
