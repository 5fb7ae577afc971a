// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"context"
	"fmt"
	"sort"

	"github.com/duovoice/duovoice/directory"
	"github.com/duovoice/duovoice/lib/ref"
)

// Directory implements directory.Directory against Discord.
type Directory struct {
	session *Session
	state   *State
}

var _ directory.Directory = (*Directory)(nil)

// NewDirectory returns a Directory that issues commands through session
// and reads occupancy from state.
func NewDirectory(session *Session, state *State) *Directory {
	return &Directory{session: session, state: state}
}

// CreateRoom creates a voice channel.
func (d *Directory) CreateRoom(ctx context.Context, request directory.CreateRoomRequest) (directory.Room, error) {
	channelType, err := channelTypeFor(request.Kind)
	if err != nil {
		return directory.Room{}, err
	}
	channel, err := d.session.CreateChannel(ctx, request.GuildID, CreateChannelRequest{
		Name:      request.Name,
		Type:      channelType,
		ParentID:  request.ParentID,
		UserLimit: request.UserLimit,
	})
	if err != nil {
		return directory.Room{}, err
	}
	return roomFromChannel(*channel), nil
}

// MoveUser moves a connected member into a voice channel.
func (d *Directory) MoveUser(ctx context.Context, guildID ref.GuildID, userID ref.UserID, roomID ref.ChannelID) error {
	return d.session.MoveMember(ctx, guildID, userID, roomID)
}

// Category fetches a category and its children ordered by position.
func (d *Directory) Category(ctx context.Context, categoryID ref.ChannelID) (directory.Category, error) {
	category, err := d.session.Channel(ctx, categoryID)
	if err != nil {
		return directory.Category{}, err
	}
	if category.Type != ChannelTypeGuildCategory {
		return directory.Category{}, fmt.Errorf("discord: channel %s is not a category (type %d)", categoryID, category.Type)
	}
	channels, err := d.session.GuildChannels(ctx, category.GuildID)
	if err != nil {
		return directory.Category{}, err
	}

	result := directory.Category{ID: category.ID, Name: category.Name}
	for _, channel := range channels {
		if channel.ParentID == categoryID {
			result.Children = append(result.Children, roomFromChannel(channel))
		}
	}
	sort.SliceStable(result.Children, func(i, j int) bool {
		left, right := result.Children[i], result.Children[j]
		if left.Position != right.Position {
			return left.Position < right.Position
		}
		return snowflakeLess(left.ID, right.ID)
	})
	return result, nil
}

// Occupants confirms the channel still exists, then counts the voice
// states the gateway has reported for it. The count reflects every
// dispatch delivered so far and nothing newer.
func (d *Directory) Occupants(ctx context.Context, roomID ref.ChannelID) (int, error) {
	if _, err := d.session.Channel(ctx, roomID); err != nil {
		return 0, err
	}
	return d.state.Occupants(roomID), nil
}

// DeleteRoom deletes a channel.
func (d *Directory) DeleteRoom(ctx context.Context, roomID ref.ChannelID) error {
	return d.session.DeleteChannel(ctx, roomID)
}

func channelTypeFor(kind directory.Kind) (ChannelType, error) {
	switch kind {
	case directory.KindVoice:
		return ChannelTypeGuildVoice, nil
	default:
		return 0, fmt.Errorf("discord: unsupported room kind %s", kind)
	}
}

func roomFromChannel(channel Channel) directory.Room {
	return directory.Room{
		ID:        channel.ID,
		Name:      channel.Name,
		ParentID:  channel.ParentID,
		Position:  channel.Position,
		UserLimit: channel.UserLimit,
	}
}

// snowflakeLess orders decimal snowflakes numerically without parsing:
// neither has leading zeros, so a shorter string is a smaller number.
func snowflakeLess(left, right ref.ChannelID) bool {
	a, b := left.String(), right.String()
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
