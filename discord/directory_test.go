// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/duovoice/duovoice/directory"
	"github.com/duovoice/duovoice/lib/ref"
)

func TestDirectoryCategorySortsChildren(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/channels/200":
			writeJSON(writer, http.StatusOK, map[string]any{"id": "200", "guild_id": "100", "type": 4, "name": "Duos"})
		case "/guilds/100/channels":
			writeJSON(writer, http.StatusOK, []map[string]any{
				{"id": "203", "type": 2, "name": "Duo 2", "parent_id": "200", "position": 2},
				{"id": "900", "type": 0, "name": "general", "position": 0},
				{"id": "2010", "type": 2, "name": "Duo 3", "parent_id": "200", "position": 2},
				{"id": "201", "type": 2, "name": "Create Duo", "parent_id": "200", "position": 0},
			})
		default:
			t.Errorf("unexpected path: %s", request.URL.Path)
			writer.WriteHeader(http.StatusNotFound)
		}
	}))

	category, err := NewDirectory(session, NewState()).Category(context.Background(), testCategory)
	if err != nil {
		t.Fatalf("Category failed: %v", err)
	}
	if category.Name != "Duos" {
		t.Errorf("Name = %q", category.Name)
	}
	var names []string
	for _, child := range category.Children {
		names = append(names, child.Name)
	}
	want := []string{"Create Duo", "Duo 2", "Duo 3"}
	if len(names) != len(want) {
		t.Fatalf("children = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("children = %v, want %v", names, want)
			break
		}
	}
}

func TestDirectoryCategoryRejectsNonCategory(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]any{"id": "200", "guild_id": "100", "type": 2, "name": "voice"})
	}))
	if _, err := NewDirectory(session, NewState()).Category(context.Background(), testCategory); err == nil {
		t.Fatal("expected error for non-category channel")
	}
}

func TestDirectoryOccupants(t *testing.T) {
	room := ref.MustParseChannelID("202")
	gone := ref.MustParseChannelID("203")
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/channels/202":
			writeJSON(writer, http.StatusOK, map[string]any{"id": "202", "type": 2, "name": "Duo 1"})
		default:
			writeJSON(writer, http.StatusNotFound, map[string]any{"code": ErrCodeUnknownChannel, "message": "Unknown Channel"})
		}
	}))
	state := NewState()
	state.ApplyVoiceState(VoiceState{GuildID: testGuild, UserID: testUser, ChannelID: room})
	state.ApplyVoiceState(VoiceState{GuildID: testGuild, UserID: ref.MustParseUserID("301"), ChannelID: room})
	dir := NewDirectory(session, state)

	count, err := dir.Occupants(context.Background(), room)
	if err != nil || count != 2 {
		t.Fatalf("Occupants = (%d, %v), want (2, nil)", count, err)
	}
	if _, err := dir.Occupants(context.Background(), gone); !errors.Is(err, directory.ErrNotFound) {
		t.Errorf("Occupants(deleted) err = %v, want ErrNotFound", err)
	}
}

func TestDirectoryCreateRoomRejectsUnknownKind(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		t.Errorf("unexpected request: %s %s", request.Method, request.URL.Path)
	}))
	_, err := NewDirectory(session, NewState()).CreateRoom(context.Background(), directory.CreateRoomRequest{
		GuildID: testGuild, Name: "Duo 1",
	})
	if err == nil {
		t.Fatal("expected error for zero room kind")
	}
}

func TestDirectoryCreateRoom(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusCreated, map[string]any{
			"id": "204", "guild_id": "100", "type": 2, "name": "Duo 1", "parent_id": "200", "position": 1, "user_limit": 2,
		})
	}))
	room, err := NewDirectory(session, NewState()).CreateRoom(context.Background(), directory.CreateRoomRequest{
		GuildID: testGuild, Name: "Duo 1", ParentID: testCategory, Kind: directory.KindVoice, UserLimit: 2,
	})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.ID.String() != "204" || room.UserLimit != 2 || room.ParentID != testCategory {
		t.Errorf("room = %+v", room)
	}
}
