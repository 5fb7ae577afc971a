// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

// Package discord implements the room directory on top of the Discord
// HTTP API and the gateway's view of guild state.
//
// [Session] is an authenticated REST client. Every request goes through
// a single doRequest path that paces calls with a token bucket, bounds
// the response size, and decodes non-2xx responses into [APIError].
// Errors for entities that no longer exist (unknown channel, unknown
// member, user not connected to voice) match [directory.ErrNotFound]
// under errors.Is.
//
// [State] caches channels and voice states fed by gateway dispatches.
// Discord exposes no REST endpoint for the members of a voice channel,
// so occupancy is read from this cache.
//
// [Directory] combines the two into a [directory.Directory].
package discord
