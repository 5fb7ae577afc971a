// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"strconv"
	"sync"
	"testing"

	"github.com/duovoice/duovoice/lib/ref"
)

func TestContainsAddRemove(t *testing.T) {
	registry := New()
	if registry.Contains("Duo 1") {
		t.Fatal("new registry contains Duo 1")
	}

	registry.Add("Duo 1")
	if !registry.Contains("Duo 1") {
		t.Fatal("Contains(Duo 1) = false after Add")
	}

	registry.Remove("Duo 1")
	if registry.Contains("Duo 1") {
		t.Fatal("Contains(Duo 1) = true after Remove")
	}

	// Removing an absent name is a no-op.
	registry.Remove("Duo 1")
	if registry.Len() != 0 {
		t.Errorf("Len() = %d, want 0", registry.Len())
	}
}

func TestClaimPicksSmallestFreeName(t *testing.T) {
	registry := New()

	for _, want := range []string{"Duo 1", "Duo 2", "Duo 3"} {
		if got := registry.Claim("Duo"); got != want {
			t.Fatalf("Claim() = %q, want %q", got, want)
		}
	}

	registry.Remove("Duo 2")
	if got := registry.Claim("Duo"); got != "Duo 2" {
		t.Errorf("Claim() after freeing Duo 2 = %q, want Duo 2", got)
	}
	if got := registry.Claim("Duo"); got != "Duo 4" {
		t.Errorf("Claim() = %q, want Duo 4", got)
	}
}

func TestClaimSkipsManuallyAddedNames(t *testing.T) {
	registry := New()
	registry.Add("Duo 1")
	registry.Add("Duo 3")

	if got := registry.Claim("Duo"); got != "Duo 2" {
		t.Errorf("Claim() = %q, want Duo 2", got)
	}
	if got := registry.Claim("Duo"); got != "Duo 4" {
		t.Errorf("Claim() = %q, want Duo 4", got)
	}
}

func TestClaimConcurrentIsUnique(t *testing.T) {
	registry := New()
	const claimers = 64

	names := make(chan string, claimers)
	var group sync.WaitGroup
	for range claimers {
		group.Add(1)
		go func() {
			defer group.Done()
			names <- registry.Claim("Duo")
		}()
	}
	group.Wait()
	close(names)

	seen := make(map[string]bool)
	for name := range names {
		if seen[name] {
			t.Fatalf("name %q claimed twice", name)
		}
		seen[name] = true
	}
	if len(seen) != claimers {
		t.Fatalf("claimed %d distinct names, want %d", len(seen), claimers)
	}
	// With no removals the claimed set must be exactly Duo 1..Duo N.
	for index := 1; index <= claimers; index++ {
		name := "Duo " + strconv.Itoa(index)
		if !seen[name] {
			t.Fatalf("expected %q among concurrent claims", name)
		}
	}
}

func TestBindAndLookup(t *testing.T) {
	registry := New()
	channelID := ref.MustParseChannelID("500")

	name := registry.Claim("Duo")
	if _, bound, ok := registry.Lookup(name); !ok || bound {
		t.Fatalf("Lookup before Bind: ok=%v bound=%v, want ok=true bound=false", ok, bound)
	}

	if !registry.Bind(name, channelID) {
		t.Fatal("Bind returned false for a registered name")
	}
	got, bound, ok := registry.Lookup(name)
	if !ok || !bound || got != channelID {
		t.Errorf("Lookup = (%v, %v, %v), want (%v, true, true)", got, bound, ok, channelID)
	}

	if registry.Bind("Duo 9", channelID) {
		t.Error("Bind succeeded for an unregistered name")
	}
	if registry.Contains("Duo 9") {
		t.Error("Bind registered a name as a side effect")
	}
}

func TestRemoveBoundRespectsBinding(t *testing.T) {
	registry := New()
	oldChannel := ref.MustParseChannelID("100")
	newChannel := ref.MustParseChannelID("200")

	name := registry.Claim("Duo")
	registry.Bind(name, newChannel)

	if registry.RemoveBound(name, oldChannel) {
		t.Fatal("RemoveBound removed a name bound to a different channel")
	}
	if !registry.Contains(name) {
		t.Fatal("name disappeared after refused RemoveBound")
	}
	if !registry.RemoveBound(name, newChannel) {
		t.Fatal("RemoveBound refused the bound channel")
	}
	if registry.Contains(name) {
		t.Fatal("name still registered after RemoveBound")
	}
}

func TestRemoveBoundKeepsReservation(t *testing.T) {
	registry := New()
	name := registry.Claim("Duo")

	// A room that carried the name earlier cannot release a fresh
	// reservation of it.
	if registry.RemoveBound(name, ref.MustParseChannelID("1")) {
		t.Fatal("RemoveBound removed an unbound reservation")
	}
	if registry.RemoveBound(name, ref.ChannelID{}) {
		t.Fatal("RemoveBound removed a reservation given the zero channel")
	}
	if !registry.Contains(name) {
		t.Fatal("reservation lost")
	}

	registry.Bind(name, ref.MustParseChannelID("2"))
	if !registry.RemoveBound(name, ref.MustParseChannelID("2")) {
		t.Fatal("RemoveBound refused the bound channel")
	}
	if registry.RemoveBound(name, ref.MustParseChannelID("2")) {
		t.Fatal("RemoveBound succeeded twice")
	}
}

func TestRestore(t *testing.T) {
	registry := New()
	channelID := ref.MustParseChannelID("700")

	if !registry.Restore("Duo 1", channelID) {
		t.Fatal("Restore into an empty slot failed")
	}
	if got, bound, _ := registry.Lookup("Duo 1"); !bound || got != channelID {
		t.Errorf("Lookup after Restore = (%v, %v)", got, bound)
	}

	registry.Remove("Duo 1")
	registry.Claim("Duo")
	if registry.Restore("Duo 1", channelID) {
		t.Error("Restore overwrote a fresh reservation")
	}
}

func TestNamesSorted(t *testing.T) {
	registry := New()
	registry.Add("Duo 3")
	registry.Add("Duo 1")
	registry.Add("Duo 2")

	names := registry.Names()
	want := []string{"Duo 1", "Duo 2", "Duo 3"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for index := range want {
		if names[index] != want[index] {
			t.Fatalf("Names() = %v, want %v", names, want)
		}
	}
}
