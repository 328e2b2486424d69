// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/platform/middleware"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/internal/registry/document"
	"github.com/taibuivan/civilregistry/pkg/pointer"
)

type tokenVerifier struct{}

func (tokenVerifier) VerifyToken(_ context.Context, token string) (*sec.AuthClaims, error) {
	if token != "clerk" {
		return nil, errors.New("bad token")
	}
	return &sec.AuthClaims{Kind: clerk.Kind, UserID: clerk.ID}, nil
}

func newRouter(f *fixture) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Authenticate(tokenVerifier{}))
	router.Route("/document-scanning", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		document.NewHandler(f.service).RegisterRoutes(r)
	})
	return router
}

func serve(handler http.Handler, request *http.Request) *httptest.ResponseRecorder {
	request.Header.Set("Authorization", "Bearer clerk")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func multipartUpload(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, form.WriteField(key, value))
	}
	if filename != "" {
		part, err := form.CreateFormFile("document", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, form.Close())

	request := httptest.NewRequest(http.MethodPost, "/document-scanning/upload", &body)
	request.Header.Set("Content-Type", form.FormDataContentType())
	return request
}

/*
TestHandler_Upload posts a multipart form through the router.
*/
func TestHandler_Upload(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		status   int
	}{
		{"Accepted", map[string]string{"record_type": "birth", "original_filename": "birth_juan.pdf"}, "scan.pdf", http.StatusOK},
		{"Bad_Label", map[string]string{"record_type": "birth", "original_filename": "juan.pdf"}, "scan.pdf", http.StatusUnprocessableEntity},
		{"No_File", map[string]string{"record_type": "birth", "original_filename": "birth_juan.pdf"}, "", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.On("FindByLabel", mock.Anything, registry.TypeBirth, "birth_juan.pdf").Return(nil, nil)
			f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

			recorder := serve(newRouter(f), multipartUpload(t, tt.fields, tt.filename, pdfBytes))

			require.Equal(t, tt.status, recorder.Code, recorder.Body.String())
			var body map[string]any
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.status == http.StatusOK, body["success"])
		})
	}
}

/*
TestHandler_ServeFile verifies the stored bytes are served inline under the label.
*/
func TestHandler_ServeFile(t *testing.T) {
	f := newFixture(t)
	_, err := f.disk.Put(context.Background(), "documents/birth/0190.pdf", bytes.NewReader(pdfBytes))
	require.NoError(t, err)
	f.repo.On("Get", mock.Anything, int64(3)).Return(&document.Document{
		ID: 3, RecordType: registry.TypeBirth, OriginalFilename: "birth_juan.pdf",
		FilePath: "documents/birth/0190.pdf", MimeType: pointer.To("application/pdf"),
	}, nil)
	f.repo.On("Get", mock.Anything, int64(4)).Return(&document.Document{
		ID: 4, FilePath: "documents/birth/gone.pdf",
	}, nil)
	router := newRouter(f)

	recorder := serve(router, httptest.NewRequest(http.MethodGet, "/document-scanning/file/3", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/pdf", recorder.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename=birth_juan.pdf`, recorder.Header().Get("Content-Disposition"))
	assert.Equal(t, "public, max-age=3600", recorder.Header().Get("Cache-Control"))
	assert.Equal(t, pdfBytes, recorder.Body.Bytes())

	missing := serve(router, httptest.NewRequest(http.MethodGet, "/document-scanning/file/4", nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}
