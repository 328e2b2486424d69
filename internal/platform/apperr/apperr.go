// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the error type every registry service returns.

An [AppError] carries what the JSON envelope needs: a machine-readable code,
a message safe to show a registry clerk, the HTTP status, per-field validation
details and, for a rejected duplicate, the record that already exists.
Anything else that reaches a handler is treated as an internal error.
*/
package apperr

import (
	"errors"
	"net/http"
)

// Codes shared across packages. Domains may add their own, such as
// BACKUP_IN_PROGRESS, through [ConflictCode].
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeDuplicate    = "DUPLICATE_RECORD"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnprocessed  = "UNPROCESSABLE"
	CodeInternal     = "INTERNAL_ERROR"
)

// AppError is the canonical error type of the API.
//
// Cause is for server-side logs only; it can hold SQL text and is never
// serialised.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	HTTPStatus int          `json:"-"`
	Cause      error        `json:"-"`
	Details    []FieldError `json:"details,omitempty"`
	// Attachment is the conflicting record of a DUPLICATE_RECORD error.
	Attachment any `json:"-"`
}

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Cause }

// Fields flattens Details into the field → message map of the response. The
// first message for a field wins.
func (e *AppError) Fields() map[string]string {
	if len(e.Details) == 0 {
		return nil
	}
	fields := make(map[string]string, len(e.Details))
	for _, detail := range e.Details {
		if _, exists := fields[detail.Field]; !exists {
			fields[detail.Field] = detail.Message
		}
	}
	return fields
}

// New builds an error with an explicit status and code.
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// NotFound reports a missing resource: NotFound("Birth record") reads
// "Birth record not found".
func NotFound(resource string) *AppError {
	return New(http.StatusNotFound, CodeNotFound, resource+" not found")
}

// BadRequest is for malformed path parameters, filenames and bodies.
func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

func Unauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, CodeForbidden, message)
}

// Conflict is a 409 for unique values already in use.
func Conflict(message string) *AppError {
	return ConflictCode(CodeConflict, message)
}

// ConflictCode is a 409 with its own code so clients can tell conflicts apart,
// for example a taken certificate number from a running backup.
func ConflictCode(code, message string) *AppError {
	return New(http.StatusConflict, code, message)
}

// Duplicate rejects a registration and carries the record that already exists.
func Duplicate(message string, existing any) *AppError {
	err := New(http.StatusConflict, CodeDuplicate, message)
	err.Attachment = existing
	return err
}

// ValidationError is a 422 with per-field details.
func ValidationError(message string, details ...FieldError) *AppError {
	err := New(http.StatusUnprocessableEntity, CodeValidation, message)
	err.Details = details
	return err
}

// Unprocessable is a 422 for input that is well-formed but cannot be applied.
func Unprocessable(message string) *AppError {
	return New(http.StatusUnprocessableEntity, CodeUnprocessed, message)
}

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	err := New(http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
	err.Cause = cause
	return err
}

// IsAppError reports whether err's chain holds an [*AppError].
func IsAppError(err error) bool {
	return As(err) != nil
}

// As returns the [*AppError] in err's chain, or nil.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with code.
func HasCode(err error, code string) bool {
	appErr := As(err)
	return appErr != nil && appErr.Code == code
}
