// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle runs the Duo room state machine: allocate a room
// when a user joins the trigger channel, reclaim it once it is empty.
//
// The [Dispatcher] turns gateway dispatches into [Event] values, one
// user transition each. For every event it runs the [Allocator]'s
// synchronous reservation step on the dispatch goroutine, then hands
// the rest of the work (create, move, occupancy query, delete) to a
// goroutine of its own. Handlers for different events therefore
// interleave at every directory call, while registry updates happen
// before the first call and stay race-free.
//
// Directory state is never locked or re-read transactionally: an
// occupancy count is a snapshot that may be stale by the time the
// delete goes out. Each failure has a defined outcome:
//
//   - A failed create releases its reserved name.
//   - A failed move leaves a room nobody was put into. The Allocator
//     hands it straight to the Reclaimer, which deletes it if it is
//     still empty. That occupancy count comes from the gateway cache
//     right after the failure, so a move that did apply but whose
//     response was lost can read as empty and the room is deleted
//     with the user in it.
//   - A failed delete puts the name back. The room is reconsidered
//     only when someone next leaves it; nothing sweeps it otherwise.
//     If a trigger join reserved the same name while the delete was
//     in flight, the name stays with the new room and the old one is
//     dropped from management ([ReclaimResult.Untracked]). Two rooms
//     then share the name until an operator removes the old one.
//
// Nothing is retried. Every outcome is returned as a tagged result
// ([AllocationResult], [ReclaimResult]) carrying an [Error] whose
// [Kind] separates allocation failures, reclaim failures, and stale
// references to rooms or users that vanished in the meantime.
package lifecycle
