// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// connection is one websocket session. Writes are serialized by
// writeMu; the first failure recorded by fail wins.
type connection struct {
	client *Client
	conn   *websocket.Conn
	reader payloadReader

	writeMu sync.Mutex
	acked   atomic.Bool

	failOnce sync.Once
	failure  error
}

// runConnection dials, handshakes, and reads until the connection ends.
// established reports whether READY or RESUMED was received.
func (c *Client) runConnection(ctx context.Context, handler Handler) (established bool, err error) {
	target := c.url
	resuming := c.canResume()
	if resuming && c.resumeURL != "" {
		target = c.resumeURL
	}
	address, err := connectURL(target, c.compress)
	if err != nil {
		return false, err
	}

	conn, _, err := c.dialer.DialContext(ctx, address, nil)
	if err != nil {
		return false, fmt.Errorf("gateway: dialing %s: %w", target, err)
	}
	session := &connection{client: c, conn: conn, reader: plainReader{conn: conn}}
	if c.compress {
		inflating := newZlibStreamReader(conn)
		defer inflating.close()
		session.reader = inflating
	}
	session.acked.Store(true)
	defer conn.Close()

	stopClose := context.AfterFunc(ctx, func() {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	})
	defer stopClose()

	interval, err := session.readHello()
	if err != nil {
		return false, err
	}

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go session.heartbeat(heartbeatCtx, interval)

	if resuming {
		c.logger.Info("resuming gateway session", "session_id", c.sessionID, "sequence", c.sequence.Load())
		err = session.send(OpResume, resume{Token: c.token, SessionID: c.sessionID, Sequence: c.sequence.Load()})
	} else {
		err = session.send(OpIdentify, identify{
			Token:   c.token,
			Intents: c.intents,
			Properties: identifyProperties{
				OS:      runtime.GOOS,
				Browser: "duovoice",
				Device:  "duovoice",
			},
		})
	}
	if err != nil {
		return false, session.cause(err)
	}

	for {
		var message payload
		if err := session.reader.next(&message); err != nil {
			return established, session.cause(fmt.Errorf("gateway: reading payload: %w", err))
		}

		switch message.Op {
		case OpDispatch:
			if message.Sequence != nil {
				c.sequence.Store(*message.Sequence)
			}
			switch message.Type {
			case "READY":
				var readyData ready
				if err := json.Unmarshal(message.Data, &readyData); err != nil {
					return established, fmt.Errorf("gateway: parsing READY: %w", err)
				}
				c.sessionID = readyData.SessionID
				c.resumeURL = readyData.ResumeGatewayURL
				established = true
				c.logger.Info("gateway session ready", "session_id", c.sessionID)
			case "RESUMED":
				established = true
				c.logger.Info("gateway session resumed", "session_id", c.sessionID)
			}
			var sequence int64
			if message.Sequence != nil {
				sequence = *message.Sequence
			}
			handler(ctx, Dispatch{Type: message.Type, Sequence: sequence, Data: message.Data})

		case OpHeartbeat:
			if err := session.beat(); err != nil {
				return established, session.cause(err)
			}

		case OpHeartbeatAck:
			session.acked.Store(true)

		case OpReconnect:
			return established, errReconnectRequested

		case OpInvalidSession:
			// A missing or malformed d counts as not resumable.
			var resumable bool
			if len(message.Data) > 0 {
				if err := json.Unmarshal(message.Data, &resumable); err != nil {
					c.logger.Debug("malformed INVALID_SESSION payload", "data", string(message.Data), "error", err)
				}
			}
			return established, &invalidSessionError{resumable: resumable}

		default:
			c.logger.Debug("ignoring gateway payload", "op", message.Op)
		}
	}
}

func (s *connection) readHello() (time.Duration, error) {
	var message payload
	if err := s.reader.next(&message); err != nil {
		return 0, fmt.Errorf("gateway: reading HELLO: %w", err)
	}
	if message.Op != OpHello {
		return 0, fmt.Errorf("gateway: expected HELLO, got op %d", message.Op)
	}
	var helloData hello
	if err := json.Unmarshal(message.Data, &helloData); err != nil {
		return 0, fmt.Errorf("gateway: parsing HELLO: %w", err)
	}
	if helloData.HeartbeatInterval <= 0 {
		return 0, fmt.Errorf("gateway: invalid heartbeat interval %d", helloData.HeartbeatInterval)
	}
	return time.Duration(helloData.HeartbeatInterval) * time.Millisecond, nil
}

// heartbeat sends the first beat after a jittered fraction of the
// interval, then one per interval. A beat that finds the previous one
// unacknowledged kills the connection.
func (s *connection) heartbeat(ctx context.Context, interval time.Duration) {
	first := time.Duration(float64(interval) * s.client.jitter())
	select {
	case <-ctx.Done():
		return
	case <-s.client.clock.After(first):
	}
	if err := s.beat(); err != nil {
		s.fail(err)
		return
	}

	ticker := s.client.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !s.acked.Load() {
			s.client.logger.Warn("gateway heartbeat not acknowledged, reconnecting")
			s.fail(errHeartbeatTimeout)
			return
		}
		if err := s.beat(); err != nil {
			s.fail(err)
			return
		}
	}
}

// beat sends a heartbeat carrying the last sequence number (null before
// the first dispatch).
func (s *connection) beat() error {
	var sequence any
	if last := s.client.sequence.Load(); last > 0 {
		sequence = last
	}
	s.acked.Store(false)
	return s.send(OpHeartbeat, sequence)
}

func (s *connection) send(op Opcode, data any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(outgoing{Op: op, Data: data}); err != nil {
		return fmt.Errorf("gateway: sending op %d: %w", op, err)
	}
	return nil
}

// fail records err as the reason the connection ended and closes it,
// which unblocks the read loop.
func (s *connection) fail(err error) {
	s.failOnce.Do(func() {
		s.failure = err
		s.conn.Close()
	})
}

// cause prefers a failure recorded by the heartbeat goroutine over the
// read error it provoked.
func (s *connection) cause(err error) error {
	s.failOnce.Do(func() {})
	if s.failure != nil {
		return s.failure
	}
	return err
}
