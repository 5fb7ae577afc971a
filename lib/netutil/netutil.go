// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds small network I/O helpers shared by the Discord
// REST client and the gateway client.
//
// [ReadResponse] bounds REST response body reads so a misbehaving
// endpoint cannot exhaust memory. [IsExpectedCloseError] recognizes
// the errors a connection read returns on an ordinary teardown, which
// the gateway logs at info rather than warn.
package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// MaxResponseSize bounds REST response body reads: 16 MB. Discord
// responses are a few kilobytes; the bound only exists to stop a
// pathological response.
const MaxResponseSize int64 = 16 << 20

// ReadResponse reads a response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// IsExpectedCloseError reports whether err is a normal connection
// termination: EOF, use of a closed connection, broken pipe, or
// connection reset.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
