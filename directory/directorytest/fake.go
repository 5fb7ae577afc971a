// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

// Package directorytest provides an in-memory [directory.Directory]
// for tests.
//
// [Fake] keeps rooms, user locations, and a log of every call. Hooks
// run before an operation takes effect and can fail it or block it,
// which lets tests force the interleavings the lifecycle engine must
// tolerate (a user leaving while a move is in flight, a delete racing
// a join).
package directorytest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/duovoice/duovoice/directory"
	"github.com/duovoice/duovoice/lib/ref"
)

// Op names a directory operation.
type Op string

const (
	OpCreate    Op = "create"
	OpMove      Op = "move"
	OpCategory  Op = "category"
	OpOccupants Op = "occupants"
	OpDelete    Op = "delete"
)

// Call records one directory call.
type Call struct {
	Op     Op
	RoomID ref.ChannelID
	Name   string
	UserID ref.UserID
}

// Hook runs before the operation takes effect. A non-nil error fails
// the operation with that error. Hooks run without the Fake's lock
// held, so they may block and may call back into the Fake.
type Hook func(ctx context.Context, call Call) error

// Fake is an in-memory directory. Safe for concurrent use.
type Fake struct {
	mu       sync.Mutex
	nextID   uint64
	rooms    map[ref.ChannelID]directory.Room
	location map[ref.UserID]ref.ChannelID
	calls    []Call
	hooks    map[Op]Hook
}

var _ directory.Directory = (*Fake)(nil)

// New returns an empty Fake. Assigned room IDs start at 1000.
func New() *Fake {
	return &Fake{
		nextID:   1000,
		rooms:    make(map[ref.ChannelID]directory.Room),
		location: make(map[ref.UserID]ref.ChannelID),
		hooks:    make(map[Op]Hook),
	}
}

// SetHook installs (or with nil, removes) the hook for op.
func (f *Fake) SetHook(op Op, hook Hook) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if hook == nil {
		delete(f.hooks, op)
		return
	}
	f.hooks[op] = hook
}

// FailWith returns a Hook that always fails with err.
func FailWith(err error) Hook {
	return func(context.Context, Call) error { return err }
}

// AddRoom seeds a room (typically the trigger room or the category).
func (f *Fake) AddRoom(room directory.Room) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.ID] = room
}

// Place puts a user in a room, as if they had joined it themselves.
func (f *Fake) Place(userID ref.UserID, roomID ref.ChannelID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.location[userID] = roomID
}

// Disconnect removes a user from whatever room they are in.
func (f *Fake) Disconnect(userID ref.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.location, userID)
}

// Location returns the room a user is in.
func (f *Fake) Location(userID ref.UserID) (ref.ChannelID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	roomID, ok := f.location[userID]
	return roomID, ok
}

// Room returns a room by ID.
func (f *Fake) Room(roomID ref.ChannelID) (directory.Room, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	return room, ok
}

// RoomByName returns the first existing room with the given name.
func (f *Fake) RoomByName(name string) (directory.Room, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, room := range f.sortedLocked() {
		if room.Name == name {
			return room, true
		}
	}
	return directory.Room{}, false
}

// Calls returns a copy of the call log.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsOf returns the logged calls of one operation.
func (f *Fake) CallsOf(op Op) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matching []Call
	for _, call := range f.calls {
		if call.Op == op {
			matching = append(matching, call)
		}
	}
	return matching
}

// CreateRoom implements directory.Directory.
func (f *Fake) CreateRoom(ctx context.Context, request directory.CreateRoomRequest) (directory.Room, error) {
	call := Call{Op: OpCreate, Name: request.Name}
	if err := f.begin(ctx, call); err != nil {
		return directory.Room{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !request.ParentID.IsZero() {
		if _, ok := f.rooms[request.ParentID]; !ok {
			return directory.Room{}, fmt.Errorf("directorytest: parent %s: %w", request.ParentID, directory.ErrNotFound)
		}
	}
	f.nextID++
	room := directory.Room{
		ID:        ref.MustParseChannelID(strconv.FormatUint(f.nextID, 10)),
		Name:      request.Name,
		ParentID:  request.ParentID,
		Position:  f.childCountLocked(request.ParentID),
		UserLimit: request.UserLimit,
	}
	f.rooms[room.ID] = room
	return room, nil
}

// MoveUser implements directory.Directory. Moving a user who is not
// connected fails with ErrNotFound, as the platform does.
func (f *Fake) MoveUser(ctx context.Context, guildID ref.GuildID, userID ref.UserID, roomID ref.ChannelID) error {
	if err := f.begin(ctx, Call{Op: OpMove, RoomID: roomID, UserID: userID}); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[roomID]; !ok {
		return fmt.Errorf("directorytest: room %s: %w", roomID, directory.ErrNotFound)
	}
	if _, connected := f.location[userID]; !connected {
		return fmt.Errorf("directorytest: user %s not connected: %w", userID, directory.ErrNotFound)
	}
	f.location[userID] = roomID
	return nil
}

// Category implements directory.Directory.
func (f *Fake) Category(ctx context.Context, categoryID ref.ChannelID) (directory.Category, error) {
	if err := f.begin(ctx, Call{Op: OpCategory, RoomID: categoryID}); err != nil {
		return directory.Category{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	category, ok := f.rooms[categoryID]
	if !ok {
		return directory.Category{}, fmt.Errorf("directorytest: category %s: %w", categoryID, directory.ErrNotFound)
	}
	result := directory.Category{ID: category.ID, Name: category.Name}
	for _, room := range f.sortedLocked() {
		if room.ParentID == categoryID {
			result.Children = append(result.Children, room)
		}
	}
	return result, nil
}

// Occupants implements directory.Directory.
func (f *Fake) Occupants(ctx context.Context, roomID ref.ChannelID) (int, error) {
	if err := f.begin(ctx, Call{Op: OpOccupants, RoomID: roomID}); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[roomID]; !ok {
		return 0, fmt.Errorf("directorytest: room %s: %w", roomID, directory.ErrNotFound)
	}
	count := 0
	for _, location := range f.location {
		if location == roomID {
			count++
		}
	}
	return count, nil
}

// DeleteRoom implements directory.Directory. Users still in the room
// are disconnected.
func (f *Fake) DeleteRoom(ctx context.Context, roomID ref.ChannelID) error {
	if err := f.begin(ctx, Call{Op: OpDelete, RoomID: roomID}); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[roomID]; !ok {
		return fmt.Errorf("directorytest: room %s: %w", roomID, directory.ErrNotFound)
	}
	delete(f.rooms, roomID)
	for userID, location := range f.location {
		if location == roomID {
			delete(f.location, userID)
		}
	}
	return nil
}

// begin logs the call and runs its hook.
func (f *Fake) begin(ctx context.Context, call Call) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	hook := f.hooks[call.Op]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if hook != nil {
		return hook(ctx, call)
	}
	return nil
}

func (f *Fake) childCountLocked(parentID ref.ChannelID) int {
	count := 0
	for _, room := range f.rooms {
		if room.ParentID == parentID {
			count++
		}
	}
	return count
}

// sortedLocked returns all rooms ordered by position then numeric ID.
func (f *Fake) sortedLocked() []directory.Room {
	rooms := make([]directory.Room, 0, len(f.rooms))
	for _, room := range f.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Position != rooms[j].Position {
			return rooms[i].Position < rooms[j].Position
		}
		left, _ := strconv.ParseUint(rooms[i].ID.String(), 10, 64)
		right, _ := strconv.ParseUint(rooms[j].ID.String(), 10, 64)
		return left < right
	})
	return rooms
}
