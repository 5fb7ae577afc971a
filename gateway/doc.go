// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway consumes the Discord gateway: a websocket carrying
// JSON payloads that deliver guild events to the bot.
//
// [Client.Run] owns the connection lifecycle. Each connection starts
// with HELLO, then IDENTIFY (or RESUME when a session can be
// continued), then heartbeats at the interval the server dictates.
// DISPATCH payloads are handed to the [Handler] on the read goroutine,
// one at a time, in the order the server sent them. When a connection
// drops, Run reconnects after an exponential backoff delay and resumes
// the session if it is still valid. Close codes that indicate a
// configuration problem (bad token, disallowed intents) end Run with an
// error instead.
//
// All timers run on an injected [clock.Clock] so tests can drive
// heartbeats and reconnect delays deterministically.
package gateway
