// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/platform/ctxutil"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
)

/*
TestContext_Values verifies the request id and logger round trip, and the
fallbacks outside a request.
*/
func TestContext_Values(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ctxutil.GetRequestID(ctx))
	assert.Same(t, slog.Default(), ctxutil.GetLogger(ctx))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx = ctxutil.WithLogger(ctxutil.WithRequestID(ctx, "req-birth-0001"), logger)

	assert.Equal(t, "req-birth-0001", ctxutil.GetRequestID(ctx))
	assert.Same(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Principal verifies that the principal kind decided at login is
recoverable from the request context.
*/
func TestContext_Principal(t *testing.T) {
	ctx := context.Background()

	_, ok := ctxutil.GetPrincipal(ctx)
	assert.False(t, ok)
	assert.Nil(t, ctxutil.GetClaims(ctx))

	ctx = ctxutil.WithClaims(ctx, &sec.AuthClaims{Kind: sec.KindStaff, UserID: 9})
	principal, ok := ctxutil.GetPrincipal(ctx)
	require.True(t, ok)
	assert.Equal(t, sec.Principal{Kind: sec.KindStaff, ID: 9}, principal)
}
