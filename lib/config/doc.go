// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads duovoice configuration.
//
// Values are layered, later layers winning:
//
//  1. [Default].
//  2. An optional YAML file named by [LoadOptions].Path or the
//     DUOVOICE_CONFIG environment variable. Unknown keys are errors.
//  3. The file's section for the selected environment (development or
//     production). Production without its own section gets JSON logs
//     at info level.
//  4. Environment variables, after .env files have been loaded into
//     the process environment. A variable already set in the
//     environment is never replaced by a .env entry.
//
// [Config.Validate] runs last: the bot token, trigger channel, and
// category are required.
package config
