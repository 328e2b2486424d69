// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
)

/*
TestConstructors checks the status and code each constructor assigns.
*/
func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperr.AppError
		status int
		code   string
	}{
		{"NotFound", apperr.NotFound("Birth record"), http.StatusNotFound, apperr.CodeNotFound},
		{"BadRequest", apperr.BadRequest("Invalid filename"), http.StatusBadRequest, apperr.CodeBadRequest},
		{"Forbidden", apperr.Forbidden("Admins only"), http.StatusForbidden, apperr.CodeForbidden},
		{"Conflict", apperr.Conflict("Email taken"), http.StatusConflict, apperr.CodeConflict},
		{"ConflictCode", apperr.ConflictCode("BACKUP_IN_PROGRESS", "busy"), http.StatusConflict, "BACKUP_IN_PROGRESS"},
		{"Duplicate", apperr.Duplicate("Exists", 7), http.StatusConflict, apperr.CodeDuplicate},
		{"Validation", apperr.ValidationError("Invalid"), http.StatusUnprocessableEntity, apperr.CodeValidation},
		{"Internal", apperr.Internal(errors.New("boom")), http.StatusInternalServerError, apperr.CodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.HTTPStatus)
			assert.Equal(t, tc.code, tc.err.Code)
		})
	}

	assert.Equal(t, "Birth record not found", apperr.NotFound("Birth record").Error())
	assert.Equal(t, 7, apperr.Duplicate("Exists", 7).Attachment)
}

/*
TestAs finds the error through wrapping and keeps the cause reachable.
*/
func TestAs(t *testing.T) {
	cause := errors.New("connection reset")
	wrapped := fmt.Errorf("birth: register: %w", apperr.Internal(cause))

	appErr := apperr.As(wrapped)
	require.NotNil(t, appErr)
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, apperr.HasCode(wrapped, apperr.CodeInternal))
	assert.False(t, apperr.IsAppError(cause))
	assert.NotContains(t, appErr.Error(), "connection reset")
}

/*
TestFields keeps the first message per field.
*/
func TestFields(t *testing.T) {
	err := apperr.ValidationError("Invalid",
		apperr.FieldError{Field: "first_name", Message: "The first name field is required."},
		apperr.FieldError{Field: "first_name", Message: "second"},
		apperr.FieldError{Field: "sex", Message: "The selected sex is invalid."},
	)

	assert.Equal(t, map[string]string{
		"first_name": "The first name field is required.",
		"sex":        "The selected sex is invalid.",
	}, err.Fields())
	assert.Nil(t, apperr.NotFound("x").Fields())
}
