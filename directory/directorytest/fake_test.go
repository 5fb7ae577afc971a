// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package directorytest

import (
	"context"
	"errors"
	"testing"

	"github.com/duovoice/duovoice/directory"
	"github.com/duovoice/duovoice/lib/ref"
)

var (
	guildID    = ref.GuildID{}
	categoryID = ref.MustParseChannelID("10")
	alice      = ref.MustParseUserID("1")
)

func newFake() *Fake {
	fake := New()
	fake.AddRoom(directory.Room{ID: categoryID, Name: "Duos"})
	return fake
}

func TestCreateMoveOccupantsDelete(t *testing.T) {
	ctx := context.Background()
	fake := newFake()

	room, err := fake.CreateRoom(ctx, directory.CreateRoomRequest{
		Name: "Duo 1", ParentID: categoryID, Kind: directory.KindVoice, UserLimit: 2,
	})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.ID.IsZero() || room.UserLimit != 2 || room.ParentID != categoryID {
		t.Fatalf("room = %+v", room)
	}

	if err := fake.MoveUser(ctx, guildID, alice, room.ID); !errors.Is(err, directory.ErrNotFound) {
		t.Fatalf("moving a disconnected user: err = %v, want ErrNotFound", err)
	}

	fake.Place(alice, ref.MustParseChannelID("99"))
	if err := fake.MoveUser(ctx, guildID, alice, room.ID); err != nil {
		t.Fatalf("MoveUser failed: %v", err)
	}
	count, err := fake.Occupants(ctx, room.ID)
	if err != nil || count != 1 {
		t.Fatalf("Occupants = (%d, %v), want (1, nil)", count, err)
	}

	if err := fake.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	if _, connected := fake.Location(alice); connected {
		t.Error("user still connected to a deleted room")
	}
	if _, err := fake.Occupants(ctx, room.ID); !errors.Is(err, directory.ErrNotFound) {
		t.Errorf("Occupants on deleted room: err = %v, want ErrNotFound", err)
	}
	if err := fake.DeleteRoom(ctx, room.ID); !errors.Is(err, directory.ErrNotFound) {
		t.Errorf("second DeleteRoom: err = %v, want ErrNotFound", err)
	}
}

func TestCategoryOrdersChildren(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	for _, name := range []string{"Duo 1", "Duo 2", "Duo 3"} {
		if _, err := fake.CreateRoom(ctx, directory.CreateRoomRequest{Name: name, ParentID: categoryID}); err != nil {
			t.Fatalf("CreateRoom(%s) failed: %v", name, err)
		}
	}

	category, err := fake.Category(ctx, categoryID)
	if err != nil {
		t.Fatalf("Category failed: %v", err)
	}
	if category.Name != "Duos" || len(category.Children) != 3 {
		t.Fatalf("category = %+v", category)
	}
	for index, child := range category.Children {
		if child.Position != index {
			t.Errorf("child %d has position %d", index, child.Position)
		}
	}
}

func TestHooks(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	rejected := errors.New("rate limited")
	fake.SetHook(OpCreate, FailWith(rejected))

	if _, err := fake.CreateRoom(ctx, directory.CreateRoomRequest{Name: "Duo 1", ParentID: categoryID}); !errors.Is(err, rejected) {
		t.Fatalf("err = %v, want %v", err, rejected)
	}
	if _, ok := fake.RoomByName("Duo 1"); ok {
		t.Fatal("failed create still produced a room")
	}

	fake.SetHook(OpCreate, nil)
	if _, err := fake.CreateRoom(ctx, directory.CreateRoomRequest{Name: "Duo 1", ParentID: categoryID}); err != nil {
		t.Fatalf("CreateRoom after clearing hook: %v", err)
	}
	if got := len(fake.CallsOf(OpCreate)); got != 2 {
		t.Errorf("logged %d create calls, want 2", got)
	}
}
