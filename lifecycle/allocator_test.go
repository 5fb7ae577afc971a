// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/duovoice/duovoice/directory"
	"github.com/duovoice/duovoice/directory/directorytest"
	"github.com/duovoice/duovoice/lib/ref"
)

func TestNewAllocatorValidatesConfig(t *testing.T) {
	h := newHarness(t)
	_, err := NewAllocator(AllocatorConfig{
		Directory: h.directory,
		Registry:  h.registry,
		Reclaimer: h.reclaimer,
	})
	if err == nil {
		t.Fatal("expected error for missing trigger and category")
	}
}

func TestAllocateAssignsSmallestFreeName(t *testing.T) {
	h := newHarness(t)

	for index, user := range []ref.UserID{userA, userB, userC} {
		room := h.allocate(user)
		want := []string{"Duo 1", "Duo 2", "Duo 3"}[index]
		if room.Name != want {
			t.Errorf("allocation %d named %q, want %q", index, room.Name, want)
		}
		if room.UserLimit != 2 || room.ParentID != categoryID {
			t.Errorf("room %q = %+v, want limit 2 under the category", room.Name, room)
		}
		if location, _ := h.directory.Location(user); location != room.ID {
			t.Errorf("user %s is in %s, want %s", user, location, room.ID)
		}
	}
	h.assertNames("Duo 1", "Duo 2", "Duo 3")
}

func TestAllocateSkipsTakenNames(t *testing.T) {
	h := newHarness(t)
	h.registry.Add("Duo 1")
	h.registry.Add("Duo 3")

	if room := h.allocate(userA); room.Name != "Duo 2" {
		t.Errorf("first allocation = %q, want Duo 2", room.Name)
	}
	if room := h.allocate(userB); room.Name != "Duo 4" {
		t.Errorf("second allocation = %q, want Duo 4", room.Name)
	}
}

func TestAllocateIgnoresOtherRooms(t *testing.T) {
	h := newHarness(t)
	other := ref.MustParseChannelID("299")

	events := []Event{
		{ID: "leave", UserID: userA, Previous: &RoomRef{ID: triggerID, Name: "Create Duo"}},
		{ID: "elsewhere", UserID: userA, Current: &RoomRef{ID: other, Name: "lounge"}},
	}
	for _, event := range events {
		if result := h.allocator.Allocate(context.Background(), event); result.Outcome != AllocationSkipped {
			t.Errorf("event %s: outcome %s, want skipped", event.ID, result.Outcome)
		}
	}
	if calls := h.directory.CallsOf(directorytest.OpCreate); len(calls) != 0 {
		t.Errorf("issued %d creates for non-trigger events", len(calls))
	}
}

func TestCreateFailureReleasesName(t *testing.T) {
	h := newHarness(t)
	rejected := errors.New("missing permissions")
	h.directory.SetHook(directorytest.OpCreate, directorytest.FailWith(rejected))

	result := h.allocator.Allocate(context.Background(), h.joinTrigger(userA))
	if result.Outcome != AllocationCreateFailed {
		t.Fatalf("outcome = %s, want create failed", result.Outcome)
	}
	if !IsKind(result.Err, KindAllocation) || !errors.Is(result.Err, rejected) {
		t.Errorf("err = %v, want allocation error wrapping %v", result.Err, rejected)
	}
	h.assertNames()
	if calls := h.directory.CallsOf(directorytest.OpMove); len(calls) != 0 {
		t.Errorf("issued %d moves after failed create", len(calls))
	}

	h.directory.SetHook(directorytest.OpCreate, nil)
	if room := h.allocate(userA); room.Name != "Duo 1" {
		t.Errorf("allocation after failure = %q, want the released Duo 1", room.Name)
	}
}

func TestMoveFailureReclaimsEmptyRoom(t *testing.T) {
	h := newHarness(t)
	event := h.joinTrigger(userA)
	// The user disconnects before the move lands.
	h.directory.Disconnect(userA)

	result := h.allocator.Allocate(context.Background(), event)
	if result.Outcome != AllocationMoveFailed {
		t.Fatalf("outcome = %s, want move failed", result.Outcome)
	}
	if !IsKind(result.Err, KindStaleReference) {
		t.Errorf("err = %v, want stale reference", result.Err)
	}
	if result.Orphan == nil || result.Orphan.Outcome != Reclaimed {
		t.Fatalf("orphan = %+v, want reclaimed", result.Orphan)
	}
	if _, exists := h.directory.Room(result.Room.ID); exists {
		t.Error("orphaned room still exists")
	}
	h.assertNames()
}

func TestMoveFailureKeepsOccupiedRoom(t *testing.T) {
	h := newHarness(t)
	h.directory.SetHook(directorytest.OpMove, func(ctx context.Context, call directorytest.Call) error {
		// Someone else got into the room before the move was rejected.
		h.directory.Place(userB, call.RoomID)
		return errors.New("rate limited")
	})

	result := h.allocator.Allocate(context.Background(), h.joinTrigger(userA))
	if result.Outcome != AllocationMoveFailed {
		t.Fatalf("outcome = %s, want move failed", result.Outcome)
	}
	if !IsKind(result.Err, KindAllocation) {
		t.Errorf("err = %v, want allocation error", result.Err)
	}
	if result.Orphan == nil || result.Orphan.Outcome != ReclaimOccupied || result.Orphan.Occupants != 1 {
		t.Fatalf("orphan = %+v, want occupied by 1", result.Orphan)
	}
	h.assertNames("Duo 1")
	if id, bound, _ := h.registry.Lookup("Duo 1"); !bound || id != result.Room.ID {
		t.Errorf("Duo 1 bound to %s (bound=%v), want %s", id, bound, result.Room.ID)
	}
}

func TestMoveFailureReadsOccupancyOnce(t *testing.T) {
	h := newHarness(t)
	// The move lands on the platform but its response is lost, and the
	// cached occupancy has not caught up yet.
	h.directory.SetHook(directorytest.OpMove, directorytest.FailWith(errors.New("connection reset")))

	result := h.allocator.Allocate(context.Background(), h.joinTrigger(userA))
	if result.Orphan == nil || result.Orphan.Outcome != Reclaimed {
		t.Fatalf("orphan = %+v, want reclaimed", result.Orphan)
	}

	var ops []directorytest.Op
	for _, call := range h.directory.Calls() {
		if call.RoomID == result.Room.ID {
			ops = append(ops, call.Op)
		}
	}
	want := []directorytest.Op{directorytest.OpMove, directorytest.OpOccupants, directorytest.OpDelete}
	if len(ops) != len(want) {
		t.Fatalf("calls on the new room = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("calls on the new room = %v, want %v", ops, want)
		}
	}
}

func TestRejoinGetsDistinctRoom(t *testing.T) {
	h := newHarness(t)
	first := h.allocate(userA)
	second := h.allocate(userA)

	if first.ID == second.ID || first.Name == second.Name {
		t.Fatalf("rejoin reused room: first %+v, second %+v", first, second)
	}
	if second.Name != "Duo 2" {
		t.Errorf("second allocation = %q, want Duo 2", second.Name)
	}
	if location, _ := h.directory.Location(userA); location != second.ID {
		t.Errorf("user is in %s, want the new room %s", location, second.ID)
	}
}

func TestLogCategoryListsRoomsInOrder(t *testing.T) {
	var logs bytes.Buffer
	h := newHarness(t, func(config *AllocatorConfig) {
		config.LogCategory = true
		config.Logger = slog.New(slog.NewJSONHandler(&logs, nil))
	})
	h.allocate(userA)

	if !strings.Contains(logs.String(), `"rooms":["Create Duo","Duo 1"]`) {
		t.Errorf("category listing missing from logs:\n%s", logs.String())
	}
}

func TestLogCategoryFailureDoesNotFailAllocation(t *testing.T) {
	h := newHarness(t, func(config *AllocatorConfig) { config.LogCategory = true })
	h.directory.SetHook(directorytest.OpCategory, directorytest.FailWith(directory.ErrNotFound))
	h.allocate(userA)
	if calls := h.directory.CallsOf(directorytest.OpCategory); len(calls) != 1 {
		t.Errorf("category fetched %d times, want 1", len(calls))
	}
}
