// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/users/auth"
)

/*
TestRevocationStore verifies revoked ids expire with the token and that an
already-expired token is not stored.
*/
func TestRevocationStore(t *testing.T) {
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	defer client.Close()

	store := auth.NewRevocationStore(client)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Hour))
	require.NoError(t, store.Revoke(ctx, "jti-2", -time.Second))

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.False(t, server.Exists("auth:revoked:jti-2"))

	server.FastForward(time.Hour + time.Second)

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

/*
TestRevocationStore_Unavailable verifies a Redis outage is reported, not
treated as "not revoked".
*/
func TestRevocationStore_Unavailable(t *testing.T) {
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr(), MaxRetries: -1})
	defer client.Close()
	server.Close()

	_, err := auth.NewRevocationStore(client).IsRevoked(context.Background(), "jti")

	assert.Error(t, err)
}
