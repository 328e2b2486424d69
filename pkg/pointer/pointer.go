// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pointer helps with the optional columns of registry rows: nullable
text such as a contact number, a certificate's record id, a document's mime
type. Nil means NULL throughout.
*/
package pointer

import "strings"

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Val dereferences p, or returns the zero value for nil.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Trimmed returns s without surrounding whitespace, or nil when nothing is
// left. Optional form fields go through it so a blank input stores NULL.
func Trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
