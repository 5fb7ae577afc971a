// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"errors"
	"fmt"

	"github.com/duovoice/duovoice/directory"
	"github.com/duovoice/duovoice/lib/ref"
)

// Kind classifies a lifecycle failure.
type Kind int

const (
	// KindAllocation is a create or move command the directory rejected.
	KindAllocation Kind = iota + 1
	// KindReclaim is an occupancy lookup or delete the directory rejected.
	KindReclaim
	// KindStaleReference is a command that referenced a room or user
	// that no longer existed when it reached the directory.
	KindStaleReference
)

func (k Kind) String() string {
	switch k {
	case KindAllocation:
		return "allocation"
	case KindReclaim:
		return "reclaim"
	case KindStaleReference:
		return "stale reference"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a recovered lifecycle failure with the context needed to
// find the room, user, and event involved.
type Error struct {
	Kind Kind
	// Op is the directory operation that failed: "create", "move",
	// "occupants", or "delete".
	Op    string
	Room  RoomRef
	User  ref.UserID
	Event string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("lifecycle: %s failure: %s room %q (%s) for user %s, event %s: %v",
		e.Kind, e.Op, e.Room.Name, e.Room.ID, e.User, e.Event, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var lifecycleErr *Error
	if errors.As(err, &lifecycleErr) {
		return lifecycleErr.Kind == kind
	}
	return false
}

// classify returns KindStaleReference for not-found errors and
// fallback otherwise.
func classify(err error, fallback Kind) Kind {
	if errors.Is(err, directory.ErrNotFound) {
		return KindStaleReference
	}
	return fallback
}
