// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"errors"

	"github.com/duovoice/duovoice/lib/ref"
)

// ErrNotFound marks errors caused by a room, member, or user that no
// longer exists (or was never connected) when the command reached the
// directory.
var ErrNotFound = errors.New("directory: entity not found")

// Kind is the type of room to create.
type Kind int

const (
	// KindVoice is a voice room. It is the only kind duovoice creates.
	KindVoice Kind = iota + 1
)

func (k Kind) String() string {
	switch k {
	case KindVoice:
		return "voice"
	default:
		return "unknown"
	}
}

// Room is a directory entry. Occupancy is read through
// [Directory.Occupants].
type Room struct {
	ID        ref.ChannelID
	Name      string
	ParentID  ref.ChannelID
	Position  int
	UserLimit int
}

// Category is a parent grouping and its children ordered by display
// position.
type Category struct {
	ID       ref.ChannelID
	Name     string
	Children []Room
}

// CreateRoomRequest describes a room to create.
type CreateRoomRequest struct {
	GuildID   ref.GuildID
	Name      string
	ParentID  ref.ChannelID
	Kind      Kind
	UserLimit int
}

// Directory is the command surface of the room directory. All methods
// may block on the network and may fail; none are retried by callers.
type Directory interface {
	// CreateRoom creates a room and returns it with its assigned ID.
	CreateRoom(ctx context.Context, request CreateRoomRequest) (Room, error)

	// MoveUser places a connected user into a room.
	MoveUser(ctx context.Context, guildID ref.GuildID, userID ref.UserID, roomID ref.ChannelID) error

	// Category returns a category and its children sorted by position.
	Category(ctx context.Context, categoryID ref.ChannelID) (Category, error)

	// Occupants returns the number of users currently in a room.
	// Returns an ErrNotFound error if the room no longer exists.
	Occupants(ctx context.Context, roomID ref.ChannelID) (int, error)

	// DeleteRoom deletes a room.
	DeleteRoom(ctx context.Context, roomID ref.ChannelID) error
}
