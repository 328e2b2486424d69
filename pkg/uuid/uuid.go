// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides time-ordered unique identifiers.

Records use integer keys; UUIDv7 values name things that must never collide
and sort by creation: stored document files, avatar files and request IDs.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// entropy failure is an unrecoverable system-level error
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}
	return id.String()
}

// Filename returns a collision-free file name with the given extension
// (without the leading dot), e.g. "0190f3c2-....pdf".
func Filename(extension string) string {
	if extension == "" {
		return New()
	}
	return New() + "." + extension
}
