// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package staff handles the administrator-managed lifecycle of staff accounts.

Staff encode records; admins create them, edit them, deactivate them with a
reason, reactivate them and delete them. Deactivated staff keep their rows so
the records they encoded still resolve to a name.

# Architecture

  - Entities: Staff, Statistics.
  - Avatars: stored through [AvatarStore] under "avatars/<unix>_<uuid>.<ext>".
  - Notifications: account events go through [Notifier] and never fail a request.
*/
package staff

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/platform/storage"
	"github.com/taibuivan/civilregistry/internal/users/directory"
)

// # Domain Entities

// Staff is a staff account as shown to administrators.
type Staff struct {
	ID               int64              `json:"id"`
	Email            string             `json:"email"`
	PasswordHash     string             `json:"-"`
	FullName         string             `json:"full_name"`
	ContactNumber    *string            `json:"contact_number"`
	Address          *string            `json:"address"`
	Avatar           *string            `json:"avatar"`
	AvatarURL        *string            `json:"avatar_url"`
	IsActive         bool               `json:"is_active"`
	DeactivateReason *string            `json:"deactivate_reason"`
	DeactivatedAt    *time.Time         `json:"deactivated_at"`
	DeactivatedBy    *int64             `json:"-"`
	LastLoginAt      *time.Time         `json:"last_login_at"`
	CreatedBy        *int64             `json:"-"`
	Creator          *directory.Profile `json:"creator"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// Principal returns the identity the account signs in as.
func (s *Staff) Principal() sec.Principal {
	return sec.Principal{Kind: sec.KindStaff, ID: s.ID}
}

func (s *Staff) creatorPrincipal() (sec.Principal, bool) {
	if s.CreatedBy == nil {
		return sec.Principal{}, false
	}
	return sec.Principal{Kind: sec.KindAdmin, ID: *s.CreatedBy}, true
}

// Statistics summarises the staff roster.
type Statistics struct {
	Total    int64 `json:"total_staff"`
	Active   int64 `json:"active_staff"`
	Inactive int64 `json:"inactive_staff"`
	Recent   int64 `json:"recent_staff"`
}

// RecentWindow is how far back "recent_staff" counts account creation.
const RecentWindow = 30 * 24 * time.Hour

// # Repository Contracts

// Repository defines the persistence contract for staff accounts.
type Repository interface {
	List(ctx context.Context) ([]Staff, error)
	Get(ctx context.Context, id int64) (*Staff, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, staff *Staff) error

	// Update rewrites the editable columns, including avatar and password hash.
	Update(ctx context.Context, staff *Staff) error

	Deactivate(ctx context.Context, id int64, reason string, by int64, at time.Time) error

	// Reactivate clears the reason, timestamp and actor of a deactivation.
	Reactivate(ctx context.Context, id int64) error

	Delete(ctx context.Context, id int64) error
	Statistics(ctx context.Context, recentSince time.Time) (Statistics, error)
}

// AvatarStore persists avatar images. Implemented by [*storage.Disk].
type AvatarStore interface {
	Put(ctx context.Context, key string, content io.Reader) (int64, error)
	Open(key string) (*os.File, storage.Entry, error)
	Delete(key string) error
}

// Creators resolves the admin who created an account. Implemented by
// [*directory.Directory].
type Creators interface {
	Resolve(ctx context.Context, principals []sec.Principal) func(sec.Principal) directory.Profile
}
