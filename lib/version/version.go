// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the duovoice
// binary.
//
// Values are injected at build time via -ldflags, for example:
//
//	go build -ldflags "-X github.com/duovoice/duovoice/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version, set manually for releases.
	Version = "0.1.0-dev"
)

// Info returns "<version> (<commit>, <build time>)" for --version output.
func Info() string {
	return fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildTime)
}

// Full returns Info plus the Go toolchain and platform, logged once at
// startup.
func Full() string {
	return fmt.Sprintf("%s go=%s %s/%s", Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent returns the User-Agent header Discord requires on REST
// calls: "DiscordBot (<url>, <version>)".
func UserAgent() string {
	return fmt.Sprintf("DiscordBot (https://github.com/duovoice/duovoice, %s)", Version)
}
