// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"log/slog"
	"time"

	"github.com/duovoice/duovoice/lib/ref"
)

// RoomRef identifies a room by ID and by the name it carried when the
// event was observed.
type RoomRef struct {
	ID   ref.ChannelID
	Name string
}

// Event is one user's room transition. A nil Previous means the user
// was in no known room; a nil Current means they left voice entirely.
type Event struct {
	// ID correlates log lines and spans for one event.
	ID         string
	GuildID    ref.GuildID
	UserID     ref.UserID
	Previous   *RoomRef
	Current    *RoomRef
	ReceivedAt time.Time
}

// LogValue implements slog.LogValuer.
func (e Event) LogValue() slog.Value {
	attributes := []slog.Attr{
		slog.String("id", e.ID),
		slog.String("user_id", e.UserID.String()),
	}
	if e.Previous != nil {
		attributes = append(attributes, slog.String("previous_room_id", e.Previous.ID.String()))
	}
	if e.Current != nil {
		attributes = append(attributes, slog.String("current_room_id", e.Current.ID.String()))
	}
	return slog.GroupValue(attributes...)
}
