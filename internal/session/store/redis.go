package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"addresslookup/pkg/platform/sentinel"
	"addresslookup/pkg/requestcontext"
)

// Redis key prefix for wizard sessions. Each session is one hash.
const sessionKeyPrefix = "wizard:session:"

// RedisStore keeps each session in a Redis hash so instances can share it.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis-backed store. The hash expires ttl after its last
// write; a zero ttl never expires.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Open(sessionID string) Session {
	return &redisHandle{store: s, key: sessionKeyPrefix + sessionID}
}

type redisHandle struct {
	store *RedisStore
	key   string
}

func (h *redisHandle) Get(ctx context.Context, field string) ([]byte, error) {
	v, err := h.store.client.HGet(ctx, h.key, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis session get %s: %w", field, err)
	}
	return v, nil
}

// Set writes the field and moves the expiry to ttl after the request time, in
// one transaction.
func (h *redisHandle) Set(ctx context.Context, field string, value []byte) error {
	_, err := h.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, h.key, field, value)
		if h.store.ttl > 0 {
			pipe.ExpireAt(ctx, h.key, requestcontext.Now(ctx).Add(h.store.ttl))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis session set %s: %w", field, err)
	}
	return nil
}

func (h *redisHandle) Delete(ctx context.Context, field string) error {
	if err := h.store.client.HDel(ctx, h.key, field).Err(); err != nil {
		return fmt.Errorf("redis session delete %s: %w", field, err)
	}
	return nil
}
