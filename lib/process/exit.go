// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
	"os"
)

// Fatal writes "error: err" to stderr and exits with code 1. Use it in
// main() for errors from run().
func Fatal(err error) {
	Report(os.Stderr, err)
	os.Exit(1)
}

// Report writes the error line Fatal prints.
func Report(writer io.Writer, err error) {
	fmt.Fprintf(writer, "error: %v\n", err)
}
