// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backup_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/backup"
)

/*
TestRedisLock verifies exclusion, expiry and that a release only frees the
caller's own hold.
*/
func TestRedisLock(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	lock := backup.NewRedisLock(client)
	ctx := context.Background()

	release, acquired, err := lock.TryLock(ctx, "backup:test", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, acquired, err = lock.TryLock(ctx, "backup:test", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	server.FastForward(2 * time.Minute)
	staleRelease := release
	release, acquired, err = lock.TryLock(ctx, "backup:test", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, staleRelease(ctx))
	assert.True(t, server.Exists("backup:test"))

	require.NoError(t, release(ctx))
	assert.False(t, server.Exists("backup:test"))
}
