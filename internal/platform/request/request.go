// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/ctxutil"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/platform/validate"
)

// maxJSONBody caps JSON request bodies. Uploads use multipart and set their own limit.
const maxJSONBody = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - writer: http.ResponseWriter (used to cap the body size)
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	body := http.MaxBytesReader(writer, request.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
ID parses a positive integer surrogate key from the named URL parameter.

Returns:
  - int64: the parsed id
  - error: apperr.NotFound for anything that is not a positive integer, so
    malformed ids behave like ids that do not exist
*/
func ID(request *http.Request, name string, resource string) (int64, error) {
	value, err := strconv.ParseInt(chi.URLParam(request, name), 10, 64)
	if err != nil || value < 1 {
		return 0, apperr.NotFound(resource)
	}
	return value, nil
}

/*
Query returns the trimmed value of a query-string parameter.
*/
func Query(request *http.Request, name string) string {
	return strings.TrimSpace(request.URL.Query().Get(name))
}

/*
Claims extracts the authenticated token claims from the request context.

Returns nil if the request is not authenticated.
*/
func Claims(request *http.Request) *sec.AuthClaims {
	return ctxutil.GetClaims(request.Context())
}

/*
RequiredPrincipal ensures the request is authenticated and returns the caller.

Returns:
  - sec.Principal: kind and id decided at login
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredPrincipal(request *http.Request) (sec.Principal, error) {
	principal, ok := ctxutil.GetPrincipal(request.Context())
	if !ok {
		return sec.Principal{}, apperr.Unauthorized("Unauthenticated.")
	}
	return principal, nil
}
