// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strconv"
)

// parseSnowflake validates that raw is a non-empty decimal uint64. The
// kind string names the entity in error messages.
func parseSnowflake(kind, raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("empty %s ID", kind)
	}
	if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
		return "", fmt.Errorf("invalid %s ID %q: must be a decimal snowflake", kind, raw)
	}
	return raw, nil
}

// GuildID is a validated Discord guild (server) snowflake.
type GuildID struct {
	id string
}

// ParseGuildID validates and wraps a raw guild snowflake.
func ParseGuildID(raw string) (GuildID, error) {
	id, err := parseSnowflake("guild", raw)
	if err != nil {
		return GuildID{}, err
	}
	return GuildID{id: id}, nil
}

// MustParseGuildID is ParseGuildID for constants and tests. Panics on
// invalid input.
func MustParseGuildID(raw string) GuildID {
	id, err := ParseGuildID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the decimal snowflake.
func (g GuildID) String() string { return g.id }

// IsZero reports whether the GuildID is unset.
func (g GuildID) IsZero() bool { return g.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (g GuildID) MarshalText() ([]byte, error) {
	return []byte(g.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value.
func (g *GuildID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*g = GuildID{}
		return nil
	}
	parsed, err := ParseGuildID(string(data))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ChannelID is a validated Discord channel snowflake. Voice channels,
// categories, and text channels all share this ID space.
type ChannelID struct {
	id string
}

// ParseChannelID validates and wraps a raw channel snowflake.
func ParseChannelID(raw string) (ChannelID, error) {
	id, err := parseSnowflake("channel", raw)
	if err != nil {
		return ChannelID{}, err
	}
	return ChannelID{id: id}, nil
}

// MustParseChannelID is ParseChannelID for constants and tests. Panics
// on invalid input.
func MustParseChannelID(raw string) ChannelID {
	id, err := ParseChannelID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the decimal snowflake.
func (c ChannelID) String() string { return c.id }

// IsZero reports whether the ChannelID is unset.
func (c ChannelID) IsZero() bool { return c.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (c ChannelID) MarshalText() ([]byte, error) {
	return []byte(c.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value.
func (c *ChannelID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*c = ChannelID{}
		return nil
	}
	parsed, err := ParseChannelID(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// UserID is a validated Discord user snowflake.
type UserID struct {
	id string
}

// ParseUserID validates and wraps a raw user snowflake.
func ParseUserID(raw string) (UserID, error) {
	id, err := parseSnowflake("user", raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID{id: id}, nil
}

// MustParseUserID is ParseUserID for constants and tests. Panics on
// invalid input.
func MustParseUserID(raw string) UserID {
	id, err := ParseUserID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the decimal snowflake.
func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is unset.
func (u UserID) IsZero() bool { return u.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (u UserID) MarshalText() ([]byte, error) {
	return []byte(u.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value.
func (u *UserID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*u = UserID{}
		return nil
	}
	parsed, err := ParseUserID(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
