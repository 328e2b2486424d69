// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/taibuivan/civilregistry/internal/platform/redis"
)

/*
TestNewClient covers URL parsing and the startup ping.
*/
func TestNewClient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Connects", func(t *testing.T) {
		server := miniredis.RunT(t)

		client, err := redisstore.NewClient(context.Background(), "redis://"+server.Addr()+"/0", logger)
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		assert.NoError(t, redisstore.Ping(context.Background(), client))
	})

	t.Run("Invalid_URL", func(t *testing.T) {
		_, err := redisstore.NewClient(context.Background(), "http://localhost", logger)
		assert.ErrorContains(t, err, "invalid URL")
	})

	t.Run("Server_Down", func(t *testing.T) {
		server := miniredis.RunT(t)
		addr := server.Addr()
		server.Close()

		_, err := redisstore.NewClient(context.Background(), "redis://"+addr, logger)
		assert.ErrorContains(t, err, "ping failed")
	})
}
