// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/civilregistry/internal/platform/constants"
)

// RedisRevocationStore implements RevocationStore using Redis keys with a TTL.
type RedisRevocationStore struct {
	client *redis.Client
}

// NewRevocationStore creates a new Redis-backed RevocationStore.
func NewRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

/*
Revoke stores the token id until the token would have expired anyway.

Description: A non-positive ttl means the token is already dead, so nothing is
written.

Parameters:
  - ctx: context.Context
  - tokenID: string
  - ttl: time.Duration

Returns:
  - error: Storage failures
*/
func (store *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	key := constants.RedisPrefixRevokedToken + tokenID
	if err := store.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_revoke_token_failed: %w", err)
	}
	return nil
}

/*
IsRevoked checks the denylist for a token id.

Parameters:
  - ctx: context.Context
  - tokenID: string

Returns:
  - bool: Whether the key exists
  - error: Connectivity failures
*/
func (store *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := constants.RedisPrefixRevokedToken + tokenID

	count, err := store.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis_revocation_check_failed: %w", err)
	}
	return count > 0, nil
}
