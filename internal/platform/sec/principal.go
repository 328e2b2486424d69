// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"
	"strconv"
)

// # Principal Kinds

// Kind discriminates the two disjoint account tables that can authenticate.
type Kind string

const (
	// KindAdmin accounts manage staff and can do everything staff can.
	KindAdmin Kind = "admin"

	// KindStaff accounts encode records and can be deactivated.
	KindStaff Kind = "staff"
)

// Valid reports whether k is one of the known principal kinds.
func (k Kind) Valid() bool {
	return k == KindAdmin || k == KindStaff
}

// ParseKind converts a stored type tag into a [Kind].
func ParseKind(value string) (Kind, error) {
	kind := Kind(value)
	if !kind.Valid() {
		return "", fmt.Errorf("sec: unknown principal kind %q", value)
	}
	return kind, nil
}

// # Principal

// Principal identifies an authenticated account: which table, and which row.
//
// It is decided once at login and carried in the token, so downstream code
// never has to probe both tables to find out who the caller is.
type Principal struct {
	Kind Kind  `json:"user_type"`
	ID   int64 `json:"id"`
}

// IsAdmin reports whether the principal is an administrator.
func (p Principal) IsAdmin() bool { return p.Kind == KindAdmin }

// IsZero reports whether the principal is unset.
func (p Principal) IsZero() bool { return p.Kind == "" && p.ID == 0 }

// Same reports whether two principals refer to the same account.
func (p Principal) Same(other Principal) bool {
	return p.Kind == other.Kind && p.ID == other.ID
}

// String renders the principal as "kind:id" for logs.
func (p Principal) String() string {
	return string(p.Kind) + ":" + strconv.FormatInt(p.ID, 10)
}
