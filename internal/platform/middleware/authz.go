// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/constants"
	"github.com/taibuivan/civilregistry/internal/platform/ctxutil"
	"github.com/taibuivan/civilregistry/internal/platform/respond"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Verification covers both the signature and the logout denylist, which lives
// in the auth service. Depending on this interface keeps the middleware free
// of that package and easy to fake in tests.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*sec.AuthClaims, error)
}

// Authenticate extracts and verifies the bearer token from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, verify it via [TokenVerifier] (signature, expiry, revocation).
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyToken(request.Context(), strings.TrimSpace(token))
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Unauthenticated."))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			recordPrincipal(request.Context(), string(claims.Kind), claims.UserID)
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithClaims(request.Context(), claims)))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if _, ok := ctxutil.GetPrincipal(request.Context()); !ok {
			respond.Error(writer, request, apperr.Unauthorized("Unauthenticated."))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireKind blocks requests whose principal is not of the given kind.
// It implies [RequireAuth], and runs before any body parsing or validation.
func RequireKind(kind sec.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal, ok := ctxutil.GetPrincipal(request.Context())
			if !ok {
				respond.Error(writer, request, apperr.Unauthorized("Unauthenticated."))
				return
			}

			if principal.Kind != kind {
				respond.Error(writer, request, apperr.Forbidden("Unauthorized. Admin access required."))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequireAdmin is [RequireKind] for administrators.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireKind(sec.KindAdmin)(next)
}
