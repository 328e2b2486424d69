// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/platform/middleware"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/users/auth"
)

func newRouter(f *fixture) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Authenticate(f.service))
	auth.NewHandler(f.service).RegisterRoutes(router)
	return router
}

func call(t *testing.T, handler http.Handler, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	request := httptest.NewRequestWithContext(context.Background(), method, path, bytes.NewReader(payload))
	request.Header.Set("User-Agent", userAgent)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return recorder.Code, decoded
}

/*
TestHandler_Session walks login, GET /user and logout through the router with
the real authentication middleware.
*/
func TestHandler_Session(t *testing.T) {
	f := newFixture(t)
	staff := staffAccount(t)
	f.accounts.On("FindByEmail", mock.Anything, sec.KindAdmin, "clerk@lgu.gov.ph").Return(nil, notFound())
	f.accounts.On("FindByEmail", mock.Anything, sec.KindStaff, "clerk@lgu.gov.ph").Return(staff, nil)
	f.accounts.On("StampLogin", mock.Anything, int64(7), mock.Anything, userAgent).Return(nil)
	f.accounts.On("Find", mock.Anything, sec.Principal{Kind: sec.KindStaff, ID: 7}).Return(staff, nil)
	router := newRouter(f)

	status, body := call(t, router, http.MethodPost, "/login", "", map[string]string{
		"email": "clerk@lgu.gov.ph", "password": password,
	})
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "staff", data["user_type"])
	assert.NotContains(t, data["user"], "password")
	token := data["token"].(string)

	status, body = call(t, router, http.MethodGet, "/user", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Maria Clerk", body["data"].(map[string]any)["user"].(map[string]any)["full_name"])

	status, body = call(t, router, http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", body["message"])

	status, _ = call(t, router, http.MethodGet, "/user", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

/*
TestHandler_RequiresAuth verifies protected routes reject anonymous callers.
*/
func TestHandler_RequiresAuth(t *testing.T) {
	router := newRouter(newFixture(t))

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/logout"},
		{http.MethodGet, "/user"},
		{http.MethodPut, "/profile/update"},
		{http.MethodPut, "/change-password"},
	} {
		t.Run(route.method+route.path, func(t *testing.T) {
			status, body := call(t, router, route.method, route.path, "", map[string]string{})
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, false, body["success"])
		})
	}
}
