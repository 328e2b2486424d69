// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements sign-in and self-service account management for the
two principal kinds of the registry office: administrators and staff.

Admins and staff live in disjoint tables. Login decides which one the caller
is, and from then on the kind travels inside the access token as a
[sec.Principal], so no handler ever has to probe both tables again.

# Architecture

  - Service: Login, Logout, token verification, profile and password changes.
  - AccountRepository: PostgreSQL access to users.admins and users.staff.
  - RevocationStore: Redis denylist of logged-out token ids.
*/
package auth

import (
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/sec"
)

// # Domain Entities

// Account is the authenticated view of an admin or staff row.
//
// Staff-only columns stay nil for admins; admin-only columns stay nil for staff.
type Account struct {
	ID               int64      `json:"id"`
	Kind             sec.Kind   `json:"-"`
	Username         *string    `json:"username,omitempty"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	FullName         string     `json:"full_name"`
	Position         *string    `json:"position,omitempty"`
	ContactNumber    *string    `json:"contact_number,omitempty"`
	Address          *string    `json:"address,omitempty"`
	Avatar           *string    `json:"avatar,omitempty"`
	IsActive         bool       `json:"is_active"`
	DeactivateReason *string    `json:"deactivate_reason,omitempty"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Principal returns the identity the account signs in as.
func (a *Account) Principal() sec.Principal {
	return sec.Principal{Kind: a.Kind, ID: a.ID}
}

// Session is the result of a successful login.
type Session struct {
	User      *Account  `json:"user"`
	Token     string    `json:"token"`
	UserType  sec.Kind  `json:"user_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Me is the body of GET /user.
type Me struct {
	User     *Account `json:"user"`
	UserType sec.Kind `json:"user_type"`
}
