// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"github.com/duovoice/duovoice/lib/ref"
)

// ChannelType is the Discord channel type discriminator.
type ChannelType int

const (
	ChannelTypeGuildText     ChannelType = 0
	ChannelTypeGuildVoice    ChannelType = 2
	ChannelTypeGuildCategory ChannelType = 4
	ChannelTypeGuildStage    ChannelType = 13
)

// Channel is the subset of the Discord channel object duovoice reads.
type Channel struct {
	ID        ref.ChannelID `json:"id"`
	GuildID   ref.GuildID   `json:"guild_id,omitzero"`
	Type      ChannelType   `json:"type"`
	Name      string        `json:"name"`
	ParentID  ref.ChannelID `json:"parent_id,omitzero"`
	Position  int           `json:"position"`
	UserLimit int           `json:"user_limit,omitempty"`
}

// VoiceState is a user's voice connection state. A zero ChannelID
// means the user is not in a voice channel.
type VoiceState struct {
	GuildID   ref.GuildID   `json:"guild_id,omitzero"`
	ChannelID ref.ChannelID `json:"channel_id"`
	UserID    ref.UserID    `json:"user_id"`
	SessionID string        `json:"session_id,omitempty"`
}

// GuildCreate is the GUILD_CREATE dispatch payload. Voice states inside
// it omit guild_id; [State.ApplyGuildCreate] fills it in.
type GuildCreate struct {
	ID          ref.GuildID  `json:"id"`
	Name        string       `json:"name"`
	Unavailable bool         `json:"unavailable"`
	Channels    []Channel    `json:"channels"`
	VoiceStates []VoiceState `json:"voice_states"`
}

// User is the subset of the Discord user object duovoice reads.
type User struct {
	ID       ref.UserID `json:"id"`
	Username string     `json:"username"`
	Bot      bool       `json:"bot"`
}

// Ready is the READY dispatch payload.
type Ready struct {
	SessionID        string `json:"session_id"`
	ResumeGatewayURL string `json:"resume_gateway_url"`
	User             User   `json:"user"`
}

// CreateChannelRequest is the body of POST /guilds/{guild}/channels.
type CreateChannelRequest struct {
	Name      string        `json:"name"`
	Type      ChannelType   `json:"type"`
	ParentID  ref.ChannelID `json:"parent_id,omitzero"`
	UserLimit int           `json:"user_limit,omitempty"`
}

// GatewayBotResponse is the response of GET /gateway/bot.
type GatewayBotResponse struct {
	URL               string            `json:"url"`
	Shards            int               `json:"shards"`
	SessionStartLimit SessionStartLimit `json:"session_start_limit"`
}

// SessionStartLimit reports how many gateway sessions may still be
// started before the limit resets.
type SessionStartLimit struct {
	Total          int `json:"total"`
	Remaining      int `json:"remaining"`
	ResetAfter     int `json:"reset_after"`
	MaxConcurrency int `json:"max_concurrency"`
}
