// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package dedupe runs duplicate detection for civil records.

Each record type defines an identity key (e.g. child name + date of birth +
place of birth). Detection has two halves:

  - Exact: an active record with the same key. Blocks registration.
  - Similar: up to [SimilarLimit] near matches for a human to review. Never blocks.

[Check] runs both halves concurrently. [Lock] serializes registrations that
share an identity key for the rest of a transaction, so the exact check can be
repeated inside the transaction without a race between "check" and "insert".
*/
package dedupe

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"
)

const (
	// SimilarLimit caps the similar-records suggestion list.
	SimilarLimit = 10

	// DateWindowDays is the ± window for "same name, nearby date" suggestions.
	DateWindowDays = 30
)

// Result is the outcome of a duplicate check. Duplicate is the blocking exact
// match, or nil.
type Result[T, S any] struct {
	IsDuplicate    bool              `json:"is_duplicate"`
	Duplicate      *T                `json:"duplicate_record"`
	SimilarRecords []S               `json:"similar_records"`
	CheckedFields  map[string]string `json:"checked_fields"`
}

// Check runs exact and similar concurrently. The first error cancels the other
// query and is returned.
func Check[T, S any](
	ctx context.Context,
	exact func(ctx context.Context) (*T, error),
	similar func(ctx context.Context) ([]S, error),
) (Result[T, S], error) {
	var result Result[T, S]

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		duplicate, err := exact(groupCtx)
		if err != nil {
			return fmt.Errorf("dedupe: exact: %w", err)
		}
		result.Duplicate = duplicate
		return nil
	})

	group.Go(func() error {
		records, err := similar(groupCtx)
		if err != nil {
			return fmt.Errorf("dedupe: similar: %w", err)
		}
		result.SimilarRecords = records
		return nil
	})

	if err := group.Wait(); err != nil {
		return Result[T, S]{}, err
	}

	result.IsDuplicate = result.Duplicate != nil
	if result.SimilarRecords == nil {
		result.SimilarRecords = []S{}
	}
	return result, nil
}

// Normalize lower-cases, trims and collapses inner whitespace, matching how the
// stores compare names (LOWER(TRIM(col))).
func Normalize(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

// Key joins normalised identity parts with a separator that cannot appear in
// form input.
func Key(parts ...string) string {
	normalized := make([]string, len(parts))
	for index, part := range parts {
		normalized[index] = Normalize(part)
	}
	return strings.Join(normalized, "\x1f")
}

// Execer is satisfied by pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Lock takes a transaction-scoped advisory lock on namespace + key. Concurrent
// registrations with the same identity wait here until the first commits or
// rolls back; registrations with different identities do not contend.
func Lock(ctx context.Context, tx Execer, namespace, key string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, namespace+":"+key); err != nil {
		return fmt.Errorf("dedupe: lock %s: %w", namespace, err)
	}
	return nil
}
