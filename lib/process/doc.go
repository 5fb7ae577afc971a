// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the duovoice binary.
// Fatal covers the one legitimate raw write to stderr: reporting an
// error from run() when the structured logger may not exist yet.
package process
