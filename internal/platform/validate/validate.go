// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// This package is used exclusively in the service layer, never in handlers or
// storage. Every rule except Required treats an empty value as "not provided"
// and passes, so optional fields are validated only when present.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
)

// Layouts accepted by the date and time rules.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	// clockRegex accepts H:MM and HH:MM; ParseClock enforces the ranges.
	clockRegex = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.BadRequest("Invalid JSON payload")
)

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// RequiredIf applies [Validator.Required] only when condition holds.
func (v *Validator) RequiredIf(condition bool, field, value string) *Validator {
	if condition {
		v.Required(field, value)
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// MinLen fails if a non-empty value has fewer than min characters.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	if value != "" && utf8.RuneCountInString(value) < min {
		v.add(field, fmt.Sprintf("Minimum %d characters", min))
	}
	return v
}

// Range fails if the value is outside the [min, max] range (inclusive).
func (v *Validator) Range(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.add(field, fmt.Sprintf("Must be between %d and %d", min, max))
	}
	return v
}

// OptionalRange applies [Validator.Range] when the value is present.
func (v *Validator) OptionalRange(field string, value *int, min, max int) *Validator {
	if value != nil {
		v.Range(field, *value, min, max)
	}
	return v
}

// Min fails if the value is below min.
func (v *Validator) Min(field string, value, min int) *Validator {
	if value < min {
		v.add(field, fmt.Sprintf("Must be at least %d", min))
	}
	return v
}

// OptionalMin applies [Validator.Min] when the value is present.
func (v *Validator) OptionalMin(field string, value *int, min int) *Validator {
	if value != nil {
		v.Min(field, *value, min)
	}
	return v
}

// FloatRange fails if a present value is outside [min, max].
func (v *Validator) FloatRange(field string, value *float64, min, max float64) *Validator {
	if value != nil && (*value < min || *value > max) {
		v.add(field, fmt.Sprintf("Must be between %g and %g", min, max))
	}
	return v
}

// Email fails if a non-empty value is not a bare RFC 5322 address.
func (v *Validator) Email(field, value string) *Validator {
	if value == "" {
		return v
	}
	address, err := mail.ParseAddress(value)
	if err != nil || address.Address != value {
		v.add(field, "Must be a valid email address")
	}
	return v
}

// Match fails if a non-empty value does not match pattern.
func (v *Validator) Match(field, value string, pattern *regexp.Regexp, message string) *Validator {
	if value != "" && !pattern.MatchString(value) {
		v.add(field, message)
	}
	return v
}

// OneOf fails if a non-empty value is not in the allowed set.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if value == "" {
		return v
	}
	for _, candidate := range allowed {
		if value == candidate {
			return v
		}
	}
	v.add(field, fmt.Sprintf("Must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Date fails if a non-empty value is not a YYYY-MM-DD calendar date.
func (v *Validator) Date(field, value string) *Validator {
	if value == "" {
		return v
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		v.add(field, "Must be a valid date (YYYY-MM-DD)")
	}
	return v
}

// NotAfter fails if a valid date falls after limit (compared by calendar day).
func (v *Validator) NotAfter(field, value string, limit time.Time) *Validator {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return v
	}
	limitDay := time.Date(limit.Year(), limit.Month(), limit.Day(), 0, 0, 0, 0, time.UTC)
	if parsed.After(limitDay) {
		v.add(field, fmt.Sprintf("Must be a date before or equal to %s", limitDay.Format(DateLayout)))
	}
	return v
}

// NotBefore fails if both dates are valid and value precedes other.
func (v *Validator) NotBefore(field, value, otherField, other string) *Validator {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return v
	}
	reference, err := time.Parse(DateLayout, other)
	if err != nil {
		return v
	}
	if parsed.Before(reference) {
		v.add(field, fmt.Sprintf("Must be a date after or equal to %s", otherField))
	}
	return v
}

// Clock fails if a non-empty value is not a valid H:MM or HH:MM time of day.
func (v *Validator) Clock(field, value string) *Validator {
	if value == "" {
		return v
	}
	if _, err := ParseClock(value); err != nil {
		v.add(field, "Must be a valid time (HH:MM)")
	}
	return v
}

// Confirmed fails if value and its confirmation differ.
func (v *Validator) Confirmed(field, value, confirmation string) *Validator {
	if value != confirmation {
		v.add(field, "Confirmation does not match")
	}
	return v
}

// StrongPassword requires at least min characters with an upper-case letter,
// a lower-case letter and a digit. Empty values pass (pair with Required).
func (v *Validator) StrongPassword(field, value string, min int) *Validator {
	if value == "" {
		return v
	}

	var upper, lower, digit bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	if utf8.RuneCountInString(value) < min || !upper || !lower || !digit {
		v.add(field, fmt.Sprintf("Must be at least %d characters and contain upper-case, lower-case and a number", min))
	}
	return v
}

// Custom adds a failure with a custom message if the condition is true.
//
// # Example
//
//	v.Custom("age_under_1", days > 30, "Must be between 0 and 30")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err returns a [apperr.AppError] (VALIDATION_ERROR) if any rules failed,
// or nil if all rules passed.
//
// This is the only output method; call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// add appends a [apperr.FieldError] to the internal slice.
func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// RequiredError is a shortcut to create a single-field validation error.
func RequiredError(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{
		Field:   field,
		Message: message,
	})
}

// ParseClock parses H:MM or HH:MM and returns the normalised HH:MM form.
func ParseClock(value string) (string, error) {
	if !clockRegex.MatchString(value) {
		return "", fmt.Errorf("validate: %q is not H:MM or HH:MM", value)
	}
	parsed, err := time.Parse("15:04", zeroPad(value))
	if err != nil {
		return "", fmt.Errorf("validate: %q is not a time of day: %w", value, err)
	}
	return parsed.Format(TimeLayout), nil
}

func zeroPad(clock string) string {
	if len(clock) == 4 {
		return "0" + clock
	}
	return clock
}
