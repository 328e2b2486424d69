// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package marriage_test

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
	"github.com/taibuivan/civilregistry/internal/registry/marriage"
)

func newRouter(repo marriage.Repository) http.Handler {
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := &sec.AuthClaims{Kind: registrar.Kind, UserID: registrar.ID}
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithClaims(request.Context(), claims)))
		})
	})
	marriage.NewHandler(newService(repo)).RegisterRoutes(router)
	return router
}

func serve(t *testing.T, handler http.Handler, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequestWithContext(context.Background(), method, path, reader))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return recorder.Code, decoded
}

/*
TestHandler_Register verifies the marriage label in the success message.
*/
func TestHandler_Register(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*marriage.Record).RegistryNumber = "MR-2024-00001"
		}).
		Return(nil)

	status, body := serve(t, newRouter(repo), http.MethodPost, "/", validInput())

	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Marriage record saved successfully!", body["message"])
	assert.Equal(t, "MR-2024-00001", body["registry_number"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "09:00", data["time_of_marriage"])
}

/*
TestHandler_List_PlaceParameter verifies both place parameter spellings filter
the listing.
*/
func TestHandler_List_PlaceParameter(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"Place_Of_Marriage", "/?place_of_marriage=Cathedral"},
		{"Place", "/?place=Cathedral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{}
			repo.On("List", mock.Anything, registry.Filter{Place: "Cathedral"}, 1000, 0).Return([]marriage.Record{}, 0, nil).Once()

			status, body := serve(t, newRouter(repo), http.MethodGet, tt.path, nil)

			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, []any{}, body["data"])
			repo.AssertExpectations(t)
		})
	}
}

/*
TestHandler_List_BadDate verifies a malformed date filter is a validation error.
*/
func TestHandler_List_BadDate(t *testing.T) {
	status, body := serve(t, newRouter(&mockRepository{}), http.MethodGet, "/?date_from=15-06-2024", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

/*
TestHandler_Delete verifies the soft-delete message.
*/
func TestHandler_Delete(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Deactivate", mock.Anything, int64(4)).Return(nil).Once()

	status, body := serve(t, newRouter(repo), http.MethodDelete, "/4", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Marriage record deleted successfully", body["message"])
}
