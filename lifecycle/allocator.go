// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/duovoice/duovoice/directory"
	"github.com/duovoice/duovoice/lib/ref"
	"github.com/duovoice/duovoice/lib/registry"
)

// Defaults for AllocatorConfig.
const (
	DefaultNamePrefix = "Duo"
	DefaultCapacity   = 2
)

// AllocationOutcome is the result tag of an allocation attempt.
type AllocationOutcome int

const (
	// AllocationSkipped: the event did not enter the trigger room.
	AllocationSkipped AllocationOutcome = iota
	// Allocated: the room was created and the user moved into it.
	Allocated
	// AllocationCreateFailed: the create command failed and the name
	// was released.
	AllocationCreateFailed
	// AllocationMoveFailed: the room exists but the user was not moved.
	// Orphan holds what the follow-up reclaim did with it.
	AllocationMoveFailed
)

func (o AllocationOutcome) String() string {
	switch o {
	case AllocationSkipped:
		return "skipped"
	case Allocated:
		return "allocated"
	case AllocationCreateFailed:
		return "create failed"
	case AllocationMoveFailed:
		return "move failed"
	default:
		return fmt.Sprintf("AllocationOutcome(%d)", int(o))
	}
}

// AllocationResult reports what an allocation attempt did.
type AllocationResult struct {
	Outcome AllocationOutcome
	// Name is the reserved name (empty when skipped).
	Name string
	// Room is the created room (zero unless the create succeeded).
	Room directory.Room
	// Err is an *Error for the failed outcomes.
	Err error
	// Orphan is the reclaim of the room left behind by a failed move.
	Orphan *ReclaimResult
}

// Reservation is a name claimed for one trigger join whose create has
// not been issued yet.
type Reservation struct {
	Event Event
	Name  string
}

// AllocatorConfig configures an Allocator.
type AllocatorConfig struct {
	Directory directory.Directory
	Registry  *registry.Registry
	// Reclaimer disposes of rooms whose move failed.
	Reclaimer *Reclaimer
	// TriggerChannelID is the room whose joins cause allocations.
	TriggerChannelID ref.ChannelID
	// CategoryID is the parent of every allocated room.
	CategoryID ref.ChannelID
	// NamePrefix defaults to DefaultNamePrefix.
	NamePrefix string
	// Capacity is the user limit of each room. Defaults to
	// DefaultCapacity.
	Capacity int
	// LogCategory lists the category's rooms after each successful
	// allocation.
	LogCategory bool
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Allocator creates a room for each trigger join and moves the user
// into it.
type Allocator struct {
	directory   directory.Directory
	registry    *registry.Registry
	reclaimer   *Reclaimer
	trigger     ref.ChannelID
	category    ref.ChannelID
	prefix      string
	capacity    int
	logCategory bool
	logger      *slog.Logger
}

// NewAllocator creates an Allocator.
func NewAllocator(config AllocatorConfig) (*Allocator, error) {
	if config.Directory == nil {
		return nil, fmt.Errorf("lifecycle: allocator requires a Directory")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("lifecycle: allocator requires a Registry")
	}
	if config.Reclaimer == nil {
		return nil, fmt.Errorf("lifecycle: allocator requires a Reclaimer")
	}
	if config.TriggerChannelID.IsZero() {
		return nil, fmt.Errorf("lifecycle: allocator requires a TriggerChannelID")
	}
	if config.CategoryID.IsZero() {
		return nil, fmt.Errorf("lifecycle: allocator requires a CategoryID")
	}

	allocator := &Allocator{
		directory:   config.Directory,
		registry:    config.Registry,
		reclaimer:   config.Reclaimer,
		trigger:     config.TriggerChannelID,
		category:    config.CategoryID,
		prefix:      config.NamePrefix,
		capacity:    config.Capacity,
		logCategory: config.LogCategory,
		logger:      config.Logger,
	}
	if allocator.prefix == "" {
		allocator.prefix = DefaultNamePrefix
	}
	if allocator.capacity == 0 {
		allocator.capacity = DefaultCapacity
	}
	if allocator.logger == nil {
		allocator.logger = slog.Default()
	}
	return allocator, nil
}

// Reserve claims the smallest free name if the event entered the
// trigger room. It does no I/O; callers run it in delivery order so
// names are assigned deterministically.
func (a *Allocator) Reserve(event Event) (Reservation, bool) {
	if event.Current == nil || event.Current.ID != a.trigger {
		return Reservation{}, false
	}
	return Reservation{Event: event, Name: a.registry.Claim(a.prefix)}, true
}

// Complete creates the reserved room and moves the user into it.
func (a *Allocator) Complete(ctx context.Context, reservation Reservation) AllocationResult {
	event := reservation.Event
	logger := a.logger.With(
		"event_id", event.ID,
		"user_id", event.UserID.String(),
		"room_name", reservation.Name,
	)

	room, err := a.directory.CreateRoom(ctx, directory.CreateRoomRequest{
		GuildID:   event.GuildID,
		Name:      reservation.Name,
		ParentID:  a.category,
		Kind:      directory.KindVoice,
		UserLimit: a.capacity,
	})
	if err != nil {
		a.registry.Remove(reservation.Name)
		logger.Error("room create failed, name released", "error", err)
		return AllocationResult{
			Outcome: AllocationCreateFailed,
			Name:    reservation.Name,
			Err: &Error{
				Kind:  classify(err, KindAllocation),
				Op:    "create",
				Room:  RoomRef{Name: reservation.Name},
				User:  event.UserID,
				Event: event.ID,
				Err:   err,
			},
		}
	}
	logger = logger.With("room_id", room.ID.String())
	if !a.registry.Bind(reservation.Name, room.ID) {
		logger.Warn("reserved name was released while its create was in flight")
	}

	roomRef := RoomRef{ID: room.ID, Name: reservation.Name}
	if err := a.directory.MoveUser(ctx, event.GuildID, event.UserID, room.ID); err != nil {
		logger.Error("move into new room failed, reclaiming it", "error", err)
		// The occupancy read may predate a move that applied despite
		// the error, in which case the user is deleted with the room.
		orphan := a.reclaimer.reclaimRoom(ctx, roomRef, event)
		return AllocationResult{
			Outcome: AllocationMoveFailed,
			Name:    reservation.Name,
			Room:    room,
			Err: &Error{
				Kind:  classify(err, KindAllocation),
				Op:    "move",
				Room:  roomRef,
				User:  event.UserID,
				Event: event.ID,
				Err:   err,
			},
			Orphan: &orphan,
		}
	}

	logger.Info("allocated room")
	if a.logCategory {
		a.listCategory(ctx, logger)
	}
	return AllocationResult{Outcome: Allocated, Name: reservation.Name, Room: room}
}

// Allocate is Reserve followed by Complete.
func (a *Allocator) Allocate(ctx context.Context, event Event) AllocationResult {
	reservation, ok := a.Reserve(event)
	if !ok {
		return AllocationResult{Outcome: AllocationSkipped}
	}
	return a.Complete(ctx, reservation)
}

// listCategory logs the category's rooms in display order.
func (a *Allocator) listCategory(ctx context.Context, logger *slog.Logger) {
	category, err := a.directory.Category(ctx, a.category)
	if err != nil {
		logger.Warn("listing category failed", "category_id", a.category.String(), "error", err)
		return
	}
	names := make([]string, 0, len(category.Children))
	for _, child := range category.Children {
		names = append(names, child.Name)
	}
	logger.Info("category rooms",
		"category_id", category.ID.String(),
		"category_name", category.Name,
		"rooms", names,
	)
}
