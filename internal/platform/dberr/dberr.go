// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// The resource argument names the entity for NotFound messages (e.g. "Birth record").
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	// Already classified upstream
	if apperr.IsAppError(err) {
		return err
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	// 2. Constraint violations
	if IsUniqueViolation(err) {
		appErr := apperr.Conflict(resource + " already exists")
		appErr.Cause = err
		return appErr
	}

	if code := Code(err); code == pgerrcode.ForeignKeyViolation {
		appErr := apperr.Unprocessable(resource + " references a missing entity")
		appErr.Cause = err
		return appErr
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}

// Code returns the PostgreSQL SQLSTATE of err, or "" if err did not come from the server.
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Constraint returns the violated constraint name, or "".
func Constraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return Code(err) == pgerrcode.UniqueViolation
}
