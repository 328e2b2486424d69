// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package directory resolves principals to display information.

Records, documents and certificate logs store who created them as a
[sec.Principal] (kind + id) rather than a foreign key, because admins and staff
live in two disjoint tables. This package is the single place that turns such a
tag back into a name, e-mail and position for API responses.

A principal that no longer resolves (deleted staff, imported rows) is rendered
as the "System" profile instead of failing the request.
*/
package directory

import (
	"context"
	"log/slog"

	"github.com/taibuivan/civilregistry/internal/platform/sec"
)

// # Domain Entities

// Profile is the display information of an encoder, uploader or issuer.
type Profile struct {
	ID       *int64  `json:"id"`
	FullName string  `json:"full_name"`
	UserType string  `json:"user_type"`
	Email    *string `json:"email"`
	Position string  `json:"position"`
}

// Display labels.
const (
	UserTypeAdmin  = "Admin"
	UserTypeStaff  = "Staff"
	UserTypeSystem = "System"

	PositionAdmin  = "System Administrator"
	PositionStaff  = "Registry Staff"
	PositionSystem = "System Account"
)

// System is the profile of an unresolvable principal.
func System() Profile {
	return Profile{FullName: UserTypeSystem, UserType: UserTypeSystem, Position: PositionSystem}
}

// Repository loads profiles for a batch of ids of one kind.
type Repository interface {
	FindAdmins(ctx context.Context, ids []int64) (map[int64]Profile, error)
	FindStaff(ctx context.Context, ids []int64) (map[int64]Profile, error)
}

// # Service

// Directory resolves principals through a [Repository].
type Directory struct {
	repo   Repository
	logger *slog.Logger
}

// New constructs a [Directory].
func New(repo Repository, logger *slog.Logger) *Directory {
	return &Directory{repo: repo, logger: logger}
}

// Lookup resolves a single principal. It never fails; lookup errors are logged
// and degrade to [System].
func (directory *Directory) Lookup(ctx context.Context, principal sec.Principal) Profile {
	profiles := directory.LookupMany(ctx, []sec.Principal{principal})
	if profile, ok := profiles[principal]; ok {
		return profile
	}
	return System()
}

// LookupMany resolves a set of principals with at most one query per kind.
// Principals that do not resolve are absent from the result.
func (directory *Directory) LookupMany(ctx context.Context, principals []sec.Principal) map[sec.Principal]Profile {
	var adminIDs, staffIDs []int64
	seen := make(map[sec.Principal]struct{}, len(principals))

	for _, principal := range principals {
		if _, ok := seen[principal]; ok {
			continue
		}
		seen[principal] = struct{}{}

		switch principal.Kind {
		case sec.KindAdmin:
			adminIDs = append(adminIDs, principal.ID)
		case sec.KindStaff:
			staffIDs = append(staffIDs, principal.ID)
		}
	}

	resolved := make(map[sec.Principal]Profile, len(seen))
	directory.collect(ctx, sec.KindAdmin, adminIDs, directory.repo.FindAdmins, resolved)
	directory.collect(ctx, sec.KindStaff, staffIDs, directory.repo.FindStaff, resolved)
	return resolved
}

// Resolve is LookupMany with the [System] fallback applied per principal.
func (directory *Directory) Resolve(ctx context.Context, principals []sec.Principal) func(sec.Principal) Profile {
	resolved := directory.LookupMany(ctx, principals)
	return func(principal sec.Principal) Profile {
		if profile, ok := resolved[principal]; ok {
			return profile
		}
		return System()
	}
}

type finder func(ctx context.Context, ids []int64) (map[int64]Profile, error)

func (directory *Directory) collect(ctx context.Context, kind sec.Kind, ids []int64, find finder, into map[sec.Principal]Profile) {
	if len(ids) == 0 {
		return
	}

	profiles, err := find(ctx, ids)
	if err != nil {
		directory.logger.WarnContext(ctx, "directory_lookup_failed",
			slog.String("kind", string(kind)),
			slog.Int("count", len(ids)),
			slog.Any("error", err),
		)
		return
	}

	for id, profile := range profiles {
		into[sec.Principal{Kind: kind, ID: id}] = profile
	}
}
