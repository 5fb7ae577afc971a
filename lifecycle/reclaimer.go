// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/duovoice/duovoice/directory"
	"github.com/duovoice/duovoice/lib/registry"
)

// ReclaimOutcome is the result tag of a reclaim attempt.
type ReclaimOutcome int

const (
	// ReclaimSkipped: the event left no managed room, or another
	// handler already reclaimed it.
	ReclaimSkipped ReclaimOutcome = iota
	// ReclaimOccupied: the room still had occupants and was kept.
	ReclaimOccupied
	// Reclaimed: the room was empty, unregistered, and deleted.
	Reclaimed
	// ReclaimLookupFailed: the occupancy query failed.
	ReclaimLookupFailed
	// ReclaimDeleteFailed: the delete command failed.
	ReclaimDeleteFailed
)

func (o ReclaimOutcome) String() string {
	switch o {
	case ReclaimSkipped:
		return "skipped"
	case ReclaimOccupied:
		return "occupied"
	case Reclaimed:
		return "reclaimed"
	case ReclaimLookupFailed:
		return "lookup failed"
	case ReclaimDeleteFailed:
		return "delete failed"
	default:
		return fmt.Sprintf("ReclaimOutcome(%d)", int(o))
	}
}

// ReclaimResult reports what a reclaim attempt did.
type ReclaimResult struct {
	Outcome ReclaimOutcome
	Room    RoomRef
	// Occupants is the count the decision was based on.
	Occupants int
	// Err is an *Error for the failed outcomes, and for a delete that
	// found the room already gone.
	Err error
	// Untracked marks a failed delete whose name was reserved again
	// while the delete was in flight. The room survives but is no
	// longer managed.
	Untracked bool
}

// ReclaimerConfig configures a Reclaimer.
type ReclaimerConfig struct {
	Directory directory.Directory
	Registry  *registry.Registry
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Reclaimer deletes managed rooms once they are empty.
type Reclaimer struct {
	directory directory.Directory
	registry  *registry.Registry
	logger    *slog.Logger
}

// NewReclaimer creates a Reclaimer.
func NewReclaimer(config ReclaimerConfig) (*Reclaimer, error) {
	if config.Directory == nil {
		return nil, fmt.Errorf("lifecycle: reclaimer requires a Directory")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("lifecycle: reclaimer requires a Registry")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reclaimer{directory: config.Directory, registry: config.Registry, logger: logger}, nil
}

// Reclaim evaluates the room the event's user left. The room qualifies
// only if its name is registered and bound to the room's ID: an
// unbound name belongs to a create still in flight, so a departure
// cannot be from it.
func (r *Reclaimer) Reclaim(ctx context.Context, event Event) ReclaimResult {
	previous := event.Previous
	if previous == nil || previous.Name == "" {
		return ReclaimResult{Outcome: ReclaimSkipped}
	}
	boundID, bound, registered := r.registry.Lookup(previous.Name)
	if !registered || !bound || boundID != previous.ID {
		return ReclaimResult{Outcome: ReclaimSkipped, Room: *previous}
	}
	return r.reclaimRoom(ctx, *previous, event)
}

// reclaimRoom queries the room's occupancy and deletes it if empty.
// The count is a stale read: someone may join between the query and
// the delete.
func (r *Reclaimer) reclaimRoom(ctx context.Context, room RoomRef, event Event) ReclaimResult {
	logger := r.logger.With(
		"event_id", event.ID,
		"room_id", room.ID.String(),
		"room_name", room.Name,
		"user_id", event.UserID.String(),
	)

	occupants, err := r.directory.Occupants(ctx, room.ID)
	if err != nil {
		kind := classify(err, KindReclaim)
		if kind == KindStaleReference {
			// The room is gone, so its name is free again.
			r.registry.RemoveBound(room.Name, room.ID)
		}
		lifecycleErr := &Error{Kind: kind, Op: "occupants", Room: room, User: event.UserID, Event: event.ID, Err: err}
		logger.Error("room occupancy lookup failed", "kind", kind.String(), "error", err)
		return ReclaimResult{Outcome: ReclaimLookupFailed, Room: room, Err: lifecycleErr}
	}

	if occupants > 0 {
		logger.Debug("room still occupied", "occupants", occupants)
		return ReclaimResult{Outcome: ReclaimOccupied, Room: room, Occupants: occupants}
	}

	if !r.registry.RemoveBound(room.Name, room.ID) {
		logger.Debug("room already released by another handler")
		return ReclaimResult{Outcome: ReclaimSkipped, Room: room}
	}

	if err := r.directory.DeleteRoom(ctx, room.ID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			logger.Warn("room vanished before delete", "error", err)
			return ReclaimResult{
				Outcome: Reclaimed,
				Room:    room,
				Err:     &Error{Kind: KindStaleReference, Op: "delete", Room: room, User: event.UserID, Event: event.ID, Err: err},
			}
		}
		result := ReclaimResult{
			Outcome: ReclaimDeleteFailed,
			Room:    room,
			Err:     &Error{Kind: KindReclaim, Op: "delete", Room: room, User: event.UserID, Event: event.ID, Err: err},
		}
		if !r.registry.Restore(room.Name, room.ID) {
			// A trigger join reserved the name after RemoveBound. The
			// newer room owns it now; this one leaks under the same name.
			result.Untracked = true
			logger.Error("room delete failed and its name was reused, room is no longer tracked", "error", err)
			return result
		}
		logger.Error("room delete failed, room stays registered until its next departure", "error", err)
		return result
	}

	logger.Info("reclaimed empty room")
	return ReclaimResult{Outcome: Reclaimed, Room: room}
}
