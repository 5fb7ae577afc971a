// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"encoding/json"
	"testing"

	"github.com/duovoice/duovoice/lib/ref"
)

func TestApplyVoiceStateReturnsPrevious(t *testing.T) {
	state := NewState()
	trigger := ref.MustParseChannelID("201")
	room := ref.MustParseChannelID("202")

	if previous := state.ApplyVoiceState(VoiceState{GuildID: testGuild, UserID: testUser, ChannelID: trigger}); !previous.IsZero() {
		t.Errorf("first join previous = %s, want zero", previous)
	}
	if previous := state.ApplyVoiceState(VoiceState{GuildID: testGuild, UserID: testUser, ChannelID: room}); previous != trigger {
		t.Errorf("move previous = %s, want %s", previous, trigger)
	}
	if got := state.Occupants(room); got != 1 {
		t.Errorf("Occupants(room) = %d, want 1", got)
	}
	if got := state.Occupants(trigger); got != 0 {
		t.Errorf("Occupants(trigger) = %d, want 0", got)
	}

	if previous := state.ApplyVoiceState(VoiceState{GuildID: testGuild, UserID: testUser}); previous != room {
		t.Errorf("leave previous = %s, want %s", previous, room)
	}
	if _, connected := state.userChannel(testGuild, testUser); connected {
		t.Error("user still connected after leaving")
	}
	if got := state.Occupants(room); got != 0 {
		t.Errorf("Occupants(room) after leave = %d, want 0", got)
	}
}

func TestApplyGuildCreateReplacesSnapshot(t *testing.T) {
	state := NewState()
	stale := ref.MustParseChannelID("299")
	state.ApplyChannel(Channel{ID: stale, GuildID: testGuild, Name: "old"})
	state.ApplyVoiceState(VoiceState{GuildID: testGuild, UserID: ref.MustParseUserID("301"), ChannelID: stale})

	var guild GuildCreate
	payload := `{
		"id": "100",
		"name": "test guild",
		"channels": [
			{"id": "200", "type": 4, "name": "Duos", "parent_id": null, "position": 0},
			{"id": "201", "type": 2, "name": "Create Duo", "parent_id": "200", "position": 0}
		],
		"voice_states": [
			{"channel_id": "201", "user_id": "300", "session_id": "abc"}
		]
	}`
	if err := json.Unmarshal([]byte(payload), &guild); err != nil {
		t.Fatalf("decoding GUILD_CREATE: %v", err)
	}
	state.ApplyGuildCreate(guild)

	if _, ok := state.channel(stale); ok {
		t.Error("stale channel survived GUILD_CREATE")
	}
	if got := state.Occupants(stale); got != 0 {
		t.Errorf("stale voice state survived: %d occupants", got)
	}
	channel, ok := state.channel(ref.MustParseChannelID("201"))
	if !ok || channel.GuildID != testGuild || channel.ParentID != testCategory {
		t.Errorf("trigger channel = %+v, %v", channel, ok)
	}
	if name := state.ChannelName(testCategory); name != "Duos" {
		t.Errorf("ChannelName(category) = %q", name)
	}
	if located, ok := state.userChannel(testGuild, testUser); !ok || located.String() != "201" {
		t.Errorf("userChannel = %s, %v", located, ok)
	}
}

func TestApplyGuildCreateIgnoresUnavailable(t *testing.T) {
	state := NewState()
	state.ApplyChannel(Channel{ID: testCategory, GuildID: testGuild})
	state.ApplyGuildCreate(GuildCreate{ID: testGuild, Unavailable: true})
	if _, ok := state.channel(testCategory); !ok {
		t.Error("unavailable guild wiped the cache")
	}
}

func TestRemoveChannelDropsVoiceStates(t *testing.T) {
	state := NewState()
	room := ref.MustParseChannelID("202")
	state.ApplyChannel(Channel{ID: room, GuildID: testGuild})
	state.ApplyVoiceState(VoiceState{GuildID: testGuild, UserID: testUser, ChannelID: room})

	state.RemoveChannel(room)
	if _, ok := state.channel(room); ok {
		t.Error("channel still cached")
	}
	if _, connected := state.userChannel(testGuild, testUser); connected {
		t.Error("voice state in deleted channel still cached")
	}
}
