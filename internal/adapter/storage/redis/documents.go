package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// DocumentStore implements ports.DocumentStore using Redis strings.
// Documents have no TTL; they live until overwritten.
type DocumentStore struct {
	client *goredis.Client
	prefix string
}

// NewDocumentStore creates a new Redis-backed document store.
func NewDocumentStore(client *goredis.Client) *DocumentStore {
	return &DocumentStore{
		client: client,
		prefix: "doc:",
	}
}

// Get returns the stored document, or nil, nil if the key does not exist.
func (s *DocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis document get: %w", err)
	}
	return val, nil
}

// Set overwrites the document under key.
func (s *DocumentStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis document set: %w", err)
	}
	return nil
}

// SaveAll writes every document in one MULTI/EXEC block.
func (s *DocumentStore) SaveAll(ctx context.Context, docs map[string][]byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for k, v := range docs {
			pipe.Set(ctx, s.prefix+k, v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis document save all: %w", err)
	}
	return nil
}
