// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The gateway heartbeat loop, its reconnect delay, and the event
// dispatcher's timestamps all read time through a [Clock] rather than
// the time package. Production wiring passes [Real]; tests pass a
// [FakeClock] and move time forward explicitly:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	client := gateway.NewClient(gateway.Config{Clock: fake, ...})
//	// ... start the client ...
//	fake.WaitForTimers(1)                 // heartbeat ticker registered
//	fake.Advance(41250 * time.Millisecond) // fire one heartbeat
//
// WaitForTimers closes the race between a goroutine registering a
// timer and the test advancing past it.
package clock
