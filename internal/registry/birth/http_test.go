// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package birth_test

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

	"github.com/taibuivan/civilregistry/internal/platform/ctxutil"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/internal/registry/birth"
)

func newRouter(repo birth.Repository) http.Handler {
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := &sec.AuthClaims{Kind: clerk.Kind, UserID: clerk.ID}
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithClaims(request.Context(), claims)))
		})
	})
	birth.NewHandler(newService(repo)).RegisterRoutes(router)
	return router
}

func serve(t *testing.T, handler http.Handler, method, path string, body any) (int, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequestWithContext(context.Background(), method, path, bytes.NewReader(payload))
	handler.ServeHTTP(recorder, request)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return recorder.Code, decoded
}

/*
TestHandler_Register verifies the registry number is returned next to the data.
*/
func TestHandler_Register(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			record := args.Get(1).(*birth.Record)
			record.ID = 1
			record.RegistryNumber = "BR-2024-00001"
		}).
		Return(nil)

	status, body := serve(t, newRouter(repo), http.MethodPost, "/", validInput())

	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Birth record saved successfully!", body["message"])
	assert.Equal(t, "BR-2024-00001", body["registry_number"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "Juan Dela Cruz", data["full_name"])
	assert.NotContains(t, data, "EncodedBy")
}

/*
TestHandler_Register_Duplicate verifies the 409 envelope carries the existing record.
*/
func TestHandler_Register_Duplicate(t *testing.T) {
	existing := &birth.Record{ID: 9, RegistryNumber: "BR-2024-00001", FirstName: "Juan", LastName: "Dela Cruz"}
	repo := &mockRepository{}
	repo.On("Create", mock.Anything, mock.Anything).Return(&registry.DuplicateError{Existing: existing})

	status, body := serve(t, newRouter(repo), http.MethodPost, "/", validInput())

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["is_duplicate"])
	assert.Equal(t, "BR-2024-00001", body["existing_record"].(map[string]any)["registry_number"])
}

/*
TestHandler_CheckDuplicate verifies the result fields sit at the top level.
*/
func TestHandler_CheckDuplicate(t *testing.T) {
	repo := &mockRepository{}
	repo.On("FindExact", mock.Anything, mock.Anything, int64(0)).Return(&birth.Record{ID: 9, FirstName: "Juan", LastName: "Dela Cruz"}, nil)
	repo.On("FindSimilar", mock.Anything, mock.Anything, 10).Return(nil, nil)

	status, body := serve(t, newRouter(repo), http.MethodPost, "/check-duplicate", map[string]string{
		"child_first_name": "Juan",
		"child_last_name":  "Dela Cruz",
		"date_of_birth":    "2024-01-15",
	})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["is_duplicate"])
	assert.Equal(t, []any{}, body["similar_records"])
	assert.Equal(t, "2024-01-15", body["checked_fields"].(map[string]any)["date_of_birth"])
}

/*
TestHandler_BadID verifies malformed ids behave like missing records.
*/
func TestHandler_BadID(t *testing.T) {
	status, body := serve(t, newRouter(&mockRepository{}), http.MethodGet, "/abc", nil)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
}
