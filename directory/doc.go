// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

// Package directory defines the room directory the lifecycle engine
// issues commands against: create a room, move a user into it, count
// its occupants, list a category, delete a room.
//
// The directory is external and offers no transactional
// read-then-act primitive. Every read is stale by the time the caller
// acts on it; callers must tolerate a room that is gone, a user who
// left, or an occupant count that already changed. Implementations
// report "the referenced room or user no longer exists" with an error
// satisfying errors.Is(err, [ErrNotFound]) so callers can classify
// stale references without knowing the platform's error codes.
//
// The production implementation is [github.com/duovoice/duovoice/discord.Directory].
// Tests use [github.com/duovoice/duovoice/directory/directorytest.Fake].
package directory
