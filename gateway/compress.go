// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zlib"
)

// payloadReader yields the payloads of one connection in order. Only
// the connection's read loop calls next.
type payloadReader interface {
	next(message *payload) error
}

// plainReader reads one JSON text frame per payload.
type plainReader struct {
	conn *websocket.Conn
}

func (r plainReader) next(message *payload) error {
	return r.conn.ReadJSON(message)
}

// zlibStreamReader inflates a zlib-stream connection. One deflate
// context spans every frame and each payload ends in a sync flush, so
// payloads are read with a single json.Decoder over the inflated
// stream. A pump goroutine copies frames into a pipe: the inflater then
// blocks between payloads instead of hitting EOF, which would be
// sticky. A payload may span frames.
type zlibStreamReader struct {
	pipe    *io.PipeReader
	decoder *json.Decoder
}

func newZlibStreamReader(conn *websocket.Conn) *zlibStreamReader {
	pipeReader, pipeWriter := io.Pipe()
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				// Close errors pass through the inflater unchanged, so
				// IsFatalClose still sees them.
				pipeWriter.CloseWithError(err)
				return
			}
			if _, err := pipeWriter.Write(data); err != nil {
				return
			}
		}
	}()
	return &zlibStreamReader{pipe: pipeReader}
}

func (r *zlibStreamReader) next(message *payload) error {
	if r.decoder == nil {
		// The zlib header arrives with the first frame.
		inflater, err := zlib.NewReader(r.pipe)
		if err != nil {
			return fmt.Errorf("gateway: starting zlib stream: %w", err)
		}
		r.decoder = json.NewDecoder(inflater)
	}
	return r.decoder.Decode(message)
}

// close unblocks the pump if it is stuck writing a frame nobody reads.
func (r *zlibStreamReader) close() {
	r.pipe.Close()
}
