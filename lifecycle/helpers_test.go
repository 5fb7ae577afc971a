// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/duovoice/duovoice/directory"
	"github.com/duovoice/duovoice/directory/directorytest"
	"github.com/duovoice/duovoice/lib/ref"
	"github.com/duovoice/duovoice/lib/registry"
)

var (
	testGuild  = ref.MustParseGuildID("100")
	categoryID = ref.MustParseChannelID("200")
	triggerID  = ref.MustParseChannelID("201")
	userA      = ref.MustParseUserID("301")
	userB      = ref.MustParseUserID("302")
	userC      = ref.MustParseUserID("303")
)

// harness wires an Allocator and Reclaimer to an in-memory directory
// holding the category and the trigger room.
type harness struct {
	t         *testing.T
	directory *directorytest.Fake
	registry  *registry.Registry
	allocator *Allocator
	reclaimer *Reclaimer
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T, configure ...func(*AllocatorConfig)) *harness {
	t.Helper()
	fake := directorytest.New()
	fake.AddRoom(directory.Room{ID: categoryID, Name: "Duos"})
	fake.AddRoom(directory.Room{ID: triggerID, Name: "Create Duo", ParentID: categoryID})
	rooms := registry.New()

	reclaimer, err := NewReclaimer(ReclaimerConfig{Directory: fake, Registry: rooms, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("NewReclaimer failed: %v", err)
	}
	config := AllocatorConfig{
		Directory:        fake,
		Registry:         rooms,
		Reclaimer:        reclaimer,
		TriggerChannelID: triggerID,
		CategoryID:       categoryID,
		Logger:           discardLogger(),
	}
	for _, apply := range configure {
		apply(&config)
	}
	allocator, err := NewAllocator(config)
	if err != nil {
		t.Fatalf("NewAllocator failed: %v", err)
	}
	return &harness{t: t, directory: fake, registry: rooms, allocator: allocator, reclaimer: reclaimer}
}

// joinTrigger places the user in the trigger room and returns the
// matching event.
func (h *harness) joinTrigger(user ref.UserID) Event {
	h.directory.Place(user, triggerID)
	return Event{
		ID:      "join-" + user.String(),
		GuildID: testGuild,
		UserID:  user,
		Current: &RoomRef{ID: triggerID, Name: "Create Duo"},
	}
}

// leave disconnects the user and returns the event for leaving room.
func (h *harness) leave(user ref.UserID, room directory.Room) Event {
	h.directory.Disconnect(user)
	return Event{
		ID:       "leave-" + user.String(),
		GuildID:  testGuild,
		UserID:   user,
		Previous: &RoomRef{ID: room.ID, Name: room.Name},
	}
}

// allocate runs a full allocation for user and requires it to succeed.
func (h *harness) allocate(user ref.UserID) directory.Room {
	h.t.Helper()
	result := h.allocator.Allocate(context.Background(), h.joinTrigger(user))
	if result.Outcome != Allocated {
		h.t.Fatalf("allocation for %s: outcome %s, err %v", user, result.Outcome, result.Err)
	}
	return result.Room
}

func (h *harness) assertNames(want ...string) {
	h.t.Helper()
	got := h.registry.Names()
	if len(got) != len(want) {
		h.t.Fatalf("registry = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			h.t.Fatalf("registry = %v, want %v", got, want)
		}
	}
}
