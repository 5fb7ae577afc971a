// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry holds the set of room names duovoice believes it
// created and has not yet deleted.
//
// The registry is a belief, not a guarantee. A name enters the registry
// the moment its create command is about to be issued (before the
// create completes) and leaves it when a delete is about to be issued
// or when the create is confirmed failed. Between those points the real
// channel may already be gone, or may not exist yet.
//
// [Registry.Claim] is the allocation primitive: it tries "Duo 1",
// "Duo 2" and onward, and inserts the first free name under a single lock
// acquisition, so two allocations can never pick the same name no
// matter how their goroutines interleave.
//
// Each name may carry the channel ID it was bound to once the create
// completed ([Registry.Bind]). [Registry.RemoveBound] removes a name only
// while it is bound to the given channel, so a late departure from an
// old "Duo 1" can release neither a newer "Duo 1" nor a fresh
// reservation of that name.
//
// There is no persistence. Every process starts with an empty registry.
package registry
