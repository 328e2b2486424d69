// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ctxutil stores the per-request values the middleware chain sets up:
the correlation id, the request-scoped logger and the verified token claims
that identify the admin or staff member behind a request.

Keys are unexported so only this package can read or write them.
*/
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/civilregistry/internal/platform/sec"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	loggerKey
	claimsKey
)

// WithRequestID attaches the X-Request-ID correlation value.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns the correlation value, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger returns the request logger, falling back to [slog.Default].
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithClaims attaches verified token claims.
func WithClaims(ctx context.Context, claims *sec.AuthClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims returns the verified claims, or nil for anonymous requests.
func GetClaims(ctx context.Context) *sec.AuthClaims {
	claims, _ := ctx.Value(claimsKey).(*sec.AuthClaims)
	return claims
}

// GetPrincipal returns the admin or staff member behind the request, and
// false for anonymous requests.
func GetPrincipal(ctx context.Context) (sec.Principal, bool) {
	claims := GetClaims(ctx)
	if claims == nil {
		return sec.Principal{}, false
	}
	return claims.Principal(), true
}
