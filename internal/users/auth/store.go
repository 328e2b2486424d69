// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/sec"
)

// # Account Data Access

// AccountRepository defines the data access contract for admin and staff accounts.
type AccountRepository interface {

	/*
		FindByEmail returns the account of the given kind with the given email.

		Parameters:
		  - ctx: context.Context
		  - kind: sec.Kind (which table to search)
		  - email: string

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound when no row matches
	*/
	FindByEmail(ctx context.Context, kind sec.Kind, email string) (*Account, error)

	/*
		Find returns the account a principal refers to.

		Parameters:
		  - ctx: context.Context
		  - principal: sec.Principal

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound when the row is gone
	*/
	Find(ctx context.Context, principal sec.Principal) (*Account, error)

	/*
		EmailTaken reports whether another account of the same kind uses email.

		Parameters:
		  - ctx: context.Context
		  - principal: sec.Principal (the account being edited, excluded)
		  - email: string

		Returns:
		  - bool: true when the email belongs to someone else
		  - error: Database retrieval failures
	*/
	EmailTaken(ctx context.Context, principal sec.Principal, email string) (bool, error)

	/*
		UsernameTaken reports whether another admin uses username.

		Parameters:
		  - ctx: context.Context
		  - adminID: int64 (excluded)
		  - username: string

		Returns:
		  - bool: true when the username belongs to someone else
		  - error: Database retrieval failures
	*/
	UsernameTaken(ctx context.Context, adminID int64, username string) (bool, error)

	/*
		UpdateProfile persists full name, email and (admins only) username.

		Parameters:
		  - ctx: context.Context
		  - account: *Account

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	UpdateProfile(ctx context.Context, account *Account) error

	/*
		UpdatePassword replaces only the password hash.

		Parameters:
		  - ctx: context.Context
		  - principal: sec.Principal
		  - hash: string

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	UpdatePassword(ctx context.Context, principal sec.Principal, hash string) error

	/*
		StampLogin records the time and user agent of a staff login.

		Parameters:
		  - ctx: context.Context
		  - staffID: int64
		  - at: time.Time
		  - agent: string

		Returns:
		  - error: Persistence failures
	*/
	StampLogin(ctx context.Context, staffID int64, at time.Time, agent string) error

	/*
		CreateAdmin inserts an administrator and fills its generated columns.

		Parameters:
		  - ctx: context.Context
		  - account: *Account (email, hash, full name, optional position)

		Returns:
		  - error: apperr.Conflict (unique email) or persistence failures
	*/
	CreateAdmin(ctx context.Context, account *Account) error
}

// # Volatile Data Access

// RevocationStore keeps the ids of logged-out tokens until they would have expired.
type RevocationStore interface {

	/*
		Revoke denies a token id for the given duration.

		Parameters:
		  - ctx: context.Context
		  - tokenID: string (the jti claim)
		  - ttl: time.Duration (remaining token lifetime)

		Returns:
		  - error: Persistence failures
	*/
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error

	/*
		IsRevoked reports whether a token id has been revoked.

		Parameters:
		  - ctx: context.Context
		  - tokenID: string

		Returns:
		  - bool: true when the token was logged out
		  - error: Connectivity failures
	*/
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
