// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"sync"

	"github.com/duovoice/duovoice/lib/ref"
)

type memberKey struct {
	guildID ref.GuildID
	userID  ref.UserID
}

// State caches guild channels and voice states from gateway dispatches.
// Updates must be applied in delivery order. Safe for concurrent use.
type State struct {
	mu       sync.RWMutex
	channels map[ref.ChannelID]Channel
	voice    map[memberKey]VoiceState
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		channels: make(map[ref.ChannelID]Channel),
		voice:    make(map[memberKey]VoiceState),
	}
}

// ApplyGuildCreate replaces everything cached for the guild with the
// snapshot. Unavailable guilds are ignored.
func (s *State) ApplyGuildCreate(guild GuildCreate) {
	if guild.Unavailable {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, channel := range s.channels {
		if channel.GuildID == guild.ID {
			delete(s.channels, id)
		}
	}
	for key := range s.voice {
		if key.guildID == guild.ID {
			delete(s.voice, key)
		}
	}

	for _, channel := range guild.Channels {
		channel.GuildID = guild.ID
		s.channels[channel.ID] = channel
	}
	for _, voiceState := range guild.VoiceStates {
		if voiceState.ChannelID.IsZero() {
			continue
		}
		voiceState.GuildID = guild.ID
		s.voice[memberKey{guild.ID, voiceState.UserID}] = voiceState
	}
}

// ApplyChannel inserts or replaces a channel.
func (s *State) ApplyChannel(channel Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[channel.ID] = channel
}

// RemoveChannel drops a channel and every voice state pointing at it.
func (s *State) RemoveChannel(channelID ref.ChannelID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, channelID)
	for key, voiceState := range s.voice {
		if voiceState.ChannelID == channelID {
			delete(s.voice, key)
		}
	}
}

// ApplyVoiceState records a voice state update and returns the channel
// the user was in before it (zero if none was cached).
func (s *State) ApplyVoiceState(update VoiceState) ref.ChannelID {
	key := memberKey{update.GuildID, update.UserID}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.voice[key].ChannelID
	if update.ChannelID.IsZero() {
		delete(s.voice, key)
	} else {
		s.voice[key] = update
	}
	return previous
}

// userChannel returns the voice channel a user is connected to.
func (s *State) userChannel(guildID ref.GuildID, userID ref.UserID) (ref.ChannelID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voiceState, ok := s.voice[memberKey{guildID, userID}]
	return voiceState.ChannelID, ok
}

// channel returns a cached channel.
func (s *State) channel(channelID ref.ChannelID) (Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	channel, ok := s.channels[channelID]
	return channel, ok
}

// ChannelName returns the cached name of a channel, or "" if the
// channel is unknown.
func (s *State) ChannelName(channelID ref.ChannelID) string {
	channel, _ := s.channel(channelID)
	return channel.Name
}

// Occupants counts the users whose cached voice state is in channelID.
func (s *State) Occupants(channelID ref.ChannelID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, voiceState := range s.voice {
		if voiceState.ChannelID == channelID {
			count++
		}
	}
	return count
}
