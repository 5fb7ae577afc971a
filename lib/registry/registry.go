// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"sort"
	"strconv"
	"sync"

	"github.com/duovoice/duovoice/lib/ref"
)

// Registry is the active room set. The zero value is not usable; call
// New. Safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]ref.ChannelID
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{rooms: make(map[string]ref.ChannelID)}
}

// Contains reports whether name is currently registered.
func (r *Registry) Contains(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[name]
	return ok
}

// Add registers name without a bound channel. Adding a name that is
// already present keeps its existing binding.
func (r *Registry) Add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[name]; !ok {
		r.rooms[name] = ref.ChannelID{}
	}
}

// Remove unregisters name regardless of its binding.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, name)
}

// Claim selects the smallest "<prefix> N" (N >= 1) not currently
// registered, registers it, and returns it. The search and the insert
// happen under one lock acquisition.
func (r *Registry) Claim(prefix string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for index := 1; ; index++ {
		name := prefix + " " + strconv.Itoa(index)
		if _, taken := r.rooms[name]; !taken {
			r.rooms[name] = ref.ChannelID{}
			return name
		}
	}
}

// Bind records the channel that now carries name. Returns false (and
// changes nothing) if name is no longer registered, which happens when
// the room was reclaimed before its create call returned.
func (r *Registry) Bind(name string, channelID ref.ChannelID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[name]; !ok {
		return false
	}
	r.rooms[name] = channelID
	return true
}

// Lookup returns the channel bound to name. bound is false while the
// create is still in flight; ok is false if name is not registered.
func (r *Registry) Lookup(name string) (channelID ref.ChannelID, bound bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	channelID, ok = r.rooms[name]
	return channelID, ok && !channelID.IsZero(), ok
}

// RemoveBound unregisters name only if it is bound to channelID. An
// unbound name is a reservation whose create is still in flight and
// belongs to that allocation, not to any earlier room that carried the
// name. Returns whether the name was removed.
func (r *Registry) RemoveBound(name string, channelID ref.ChannelID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	bound, ok := r.rooms[name]
	if !ok || channelID.IsZero() || bound != channelID {
		return false
	}
	delete(r.rooms, name)
	return true
}

// Restore registers name bound to channelID, unless another reservation
// already took the name in the meantime. Used to put a room back after
// its delete command failed. Returns whether the name was restored.
func (r *Registry) Restore(name string, channelID ref.ChannelID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.rooms[name]; taken {
		return false
	}
	r.rooms[name] = channelID
	return true
}

// Names returns the registered names in ascending order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
