// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identity references for
// the Discord entities duovoice touches: guilds, channels, and users.
//
// Discord identifies every entity with a snowflake: an unsigned 64-bit
// integer serialized as a decimal string in JSON. The three types here
// share that representation but are distinct Go types so a channel ID
// can never be passed where a user ID is expected.
//
// All constructors validate their input and return errors for anything
// that is not a decimal uint64. Once constructed a ref is immutable. The
// zero value of every type means "unset"; use IsZero to check.
//
// JSON marshaling uses the decimal string form via
// encoding.TextMarshaler. A JSON null decodes to the zero value, which
// is how the gateway reports "no channel" in voice state updates.
//
// This package depends on no other duovoice packages.
package ref
