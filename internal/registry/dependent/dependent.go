// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dependent implements the upsert-or-remove rule for optional
// one-to-one child rows, such as the parents' marriage of a birth record.
//
// On update, an optional child follows exactly one of these transitions:
//
//	exists  incoming present   → Updated
//	exists  incoming empty     → Deleted
//	absent  incoming present   → Created
//	absent  incoming empty     → None
package dependent

import (
	"context"
	"fmt"
)

// Transition is the action [Sync] took.
type Transition int

const (
	None Transition = iota
	Created
	Updated
	Deleted
)

func (t Transition) String() string {
	switch t {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	}
	return "none"
}

// Ops parameterises [Sync] for one child relation.
type Ops[T any] struct {
	// Present reports whether the incoming value carries any data.
	Present func(T) bool
	Create  func(ctx context.Context, incoming T) error
	Update  func(ctx context.Context, incoming T) error
	Delete  func(ctx context.Context) error
}

// Sync reconciles an optional child with the incoming value.
func Sync[T any](ctx context.Context, exists bool, incoming T, ops Ops[T]) (Transition, error) {
	present := ops.Present(incoming)

	switch {
	case exists && present:
		if err := ops.Update(ctx, incoming); err != nil {
			return None, fmt.Errorf("dependent: update: %w", err)
		}
		return Updated, nil

	case exists:
		if err := ops.Delete(ctx); err != nil {
			return None, fmt.Errorf("dependent: delete: %w", err)
		}
		return Deleted, nil

	case present:
		if err := ops.Create(ctx, incoming); err != nil {
			return None, fmt.Errorf("dependent: create: %w", err)
		}
		return Created, nil
	}

	return None, nil
}
