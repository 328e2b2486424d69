// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/platform/ctxutil"
	"github.com/taibuivan/civilregistry/internal/platform/metrics"
	"github.com/taibuivan/civilregistry/internal/platform/middleware"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
)

type fakeVerifier struct {
	claims *sec.AuthClaims
}

func (verifier fakeVerifier) VerifyToken(_ context.Context, token string) (*sec.AuthClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return verifier.claims, nil
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

/*
TestAuthz_PrincipalKinds checks that admin-only routes reject staff before
reaching the handler, and anonymous callers get 401.
*/
func TestAuthz_PrincipalKinds(t *testing.T) {
	tests := []struct {
		name   string
		kind   sec.Kind
		header string
		status int
	}{
		{"admin_allowed", sec.KindAdmin, "Bearer good", http.StatusOK},
		{"staff_forbidden", sec.KindStaff, "Bearer good", http.StatusForbidden},
		{"anonymous", sec.KindAdmin, "", http.StatusUnauthorized},
		{"bad_token", sec.KindAdmin, "Bearer nope", http.StatusUnauthorized},
		{"bad_scheme", sec.KindAdmin, "Basic good", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := fakeVerifier{claims: &sec.AuthClaims{Kind: tt.kind, UserID: 3}}

			router := chi.NewRouter()
			router.Use(middleware.Authenticate(verifier))
			router.With(middleware.RequireAdmin).Get("/admin/staff", func(writer http.ResponseWriter, request *http.Request) {
				principal, ok := ctxutil.GetPrincipal(request.Context())
				assert.True(t, ok)
				assert.True(t, principal.IsAdmin())
				writer.WriteHeader(http.StatusOK)
			})

			request := httptest.NewRequest(http.MethodGet, "/admin/staff", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, request)

			assert.Equal(t, tt.status, recorder.Code)
			if tt.status != http.StatusOK {
				assert.Equal(t, false, decode(t, recorder)["success"])
			}
		})
	}
}

/*
TestPanicRecovery converts a panic into the failure envelope.
*/
func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, recorder)["code"])
}

/*
TestRateLimit rejects the request that exhausts the burst.
*/
func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.RateLimit(ctx, 1, 2)(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))

	statuses := make([]int, 0, 3)
	for range 3 {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("X-Real-IP", "10.0.0.8")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		statuses = append(statuses, recorder.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

/*
TestRequestID echoes a supplied ID and generates one otherwise.
*/
func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetRequestID(request.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("X-Request-ID", "abc")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", recorder.Header().Get("X-Request-ID"))

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "abc", seen)
}

/*
TestInstrument labels requests by route pattern rather than raw path.
*/
func TestInstrument(t *testing.T) {
	collectors := metrics.Noop()

	router := chi.NewRouter()
	router.Use(middleware.Instrument(collectors))
	router.Get("/birth-records/{id}", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/birth-records/17", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(collectors.HTTPRequests.WithLabelValues("/birth-records/{id}", "GET", "404")))
}
