// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

// Version is the gateway protocol version requested on connect.
const Version = 10

// Opcode is a gateway payload opcode.
type Opcode int

const (
	OpDispatch       Opcode = 0
	OpHeartbeat      Opcode = 1
	OpIdentify       Opcode = 2
	OpResume         Opcode = 6
	OpReconnect      Opcode = 7
	OpInvalidSession Opcode = 9
	OpHello          Opcode = 10
	OpHeartbeatAck   Opcode = 11
)

// Intent selects which event groups the gateway sends.
type Intent int

const (
	IntentGuilds           Intent = 1 << 0
	IntentGuildVoiceStates Intent = 1 << 7
)

// Dispatch is one DISPATCH payload.
type Dispatch struct {
	// Type is the event name, e.g. "VOICE_STATE_UPDATE".
	Type string
	// Sequence is the server-assigned sequence number.
	Sequence int64
	// Data is the raw event payload.
	Data json.RawMessage
}

// payload is the envelope of every gateway message.
type payload struct {
	Op       Opcode          `json:"op"`
	Data     json.RawMessage `json:"d"`
	Sequence *int64          `json:"s,omitempty"`
	Type     string          `json:"t,omitempty"`
}

type outgoing struct {
	Op   Opcode `json:"op"`
	Data any    `json:"d"`
}

type hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type identify struct {
	Token      string             `json:"token"`
	Intents    Intent             `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type resume struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Sequence  int64  `json:"seq"`
}

type ready struct {
	SessionID        string `json:"session_id"`
	ResumeGatewayURL string `json:"resume_gateway_url"`
}

// Gateway close codes the client acts on.
const (
	CloseAuthenticationFailed = 4004
	CloseInvalidSequence      = 4007
	CloseSessionTimedOut      = 4009
	CloseInvalidShard         = 4010
	CloseShardingRequired     = 4011
	CloseInvalidAPIVersion    = 4012
	CloseInvalidIntents       = 4013
	CloseDisallowedIntents    = 4014
)

// IsFatalClose reports whether err is a close frame the client must not
// reconnect after.
func IsFatalClose(err error) bool {
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		return false
	}
	switch closeErr.Code {
	case CloseAuthenticationFailed, CloseInvalidShard, CloseShardingRequired,
		CloseInvalidAPIVersion, CloseInvalidIntents, CloseDisallowedIntents:
		return true
	}
	return false
}

// invalidatesSession reports whether err is a close frame after which
// the session cannot be resumed.
func invalidatesSession(err error) bool {
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		return false
	}
	return closeErr.Code == CloseInvalidSequence || closeErr.Code == CloseSessionTimedOut
}

var (
	errReconnectRequested = errors.New("gateway: server requested reconnect")
	errHeartbeatTimeout   = errors.New("gateway: heartbeat not acknowledged")
)

// invalidSessionError is returned when the server rejects IDENTIFY or
// RESUME with op 9.
type invalidSessionError struct {
	resumable bool
}

func (e *invalidSessionError) Error() string {
	return fmt.Sprintf("gateway: invalid session (resumable=%t)", e.resumable)
}
