// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry installs the OpenTelemetry tracer provider that the
// lifecycle dispatcher records event spans on.
//
// Tracing is opt-in. With no OTLP endpoint configured, [Setup] leaves the
// global no-op provider in place and returns a shutdown function that
// does nothing, so callers can defer it unconditionally.
package telemetry
