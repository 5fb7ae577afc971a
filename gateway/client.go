// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"

	"github.com/duovoice/duovoice/lib/clock"
	"github.com/duovoice/duovoice/lib/netutil"
)

// Handler receives DISPATCH payloads on the read goroutine. The next
// payload is not read until the handler returns, so handlers must not
// block for long.
type Handler func(ctx context.Context, dispatch Dispatch)

// Config configures a Client.
type Config struct {
	// URL is the gateway URL from GET /gateway/bot, e.g.
	// "wss://gateway.discord.gg". Version and encoding query
	// parameters are added by the client.
	URL string
	// Token is the bot token.
	Token string
	// Intents selects the events to receive.
	Intents Intent
	// Compress requests zlib-stream transport compression: the server
	// sends binary frames from one deflate stream spanning the whole
	// connection.
	Compress bool
	// Dialer opens websocket connections. If nil,
	// websocket.DefaultDialer is used.
	Dialer *websocket.Dialer
	// Clock drives heartbeats and reconnect delays. If nil, the real
	// clock is used.
	Clock clock.Clock
	// InitialBackoff is the first reconnect delay. Default: 1 second.
	InitialBackoff time.Duration
	// MaxBackoff caps the reconnect delay. Default: 60 seconds.
	MaxBackoff time.Duration
	// Jitter returns a value in [0, 1) scaling the first heartbeat
	// delay. If nil, math/rand/v2 is used.
	Jitter func() float64
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client maintains a gateway session across reconnects. Run must not be
// called concurrently.
type Client struct {
	url            string
	token          string
	intents        Intent
	compress       bool
	dialer         *websocket.Dialer
	clock          clock.Clock
	initialBackoff time.Duration
	maxBackoff     time.Duration
	jitter         func() float64
	logger         *slog.Logger

	// sessionID and resumeURL are only touched by the Run goroutine.
	sessionID string
	resumeURL string
	// sequence is read by the heartbeat goroutine. Zero means none.
	sequence atomic.Int64
}

// New creates a Client.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("gateway: URL is required")
	}
	if config.Token == "" {
		return nil, fmt.Errorf("gateway: Token is required")
	}
	if _, err := connectURL(config.URL, config.Compress); err != nil {
		return nil, err
	}

	client := &Client{
		url:            config.URL,
		token:          config.Token,
		intents:        config.Intents,
		compress:       config.Compress,
		dialer:         config.Dialer,
		clock:          config.Clock,
		initialBackoff: config.InitialBackoff,
		maxBackoff:     config.MaxBackoff,
		jitter:         config.Jitter,
		logger:         config.Logger,
	}
	if client.dialer == nil {
		client.dialer = websocket.DefaultDialer
	}
	if client.clock == nil {
		client.clock = clock.Real()
	}
	if client.initialBackoff == 0 {
		client.initialBackoff = time.Second
	}
	if client.maxBackoff == 0 {
		client.maxBackoff = 60 * time.Second
	}
	if client.jitter == nil {
		client.jitter = rand.Float64
	}
	if client.logger == nil {
		client.logger = slog.Default()
	}
	return client, nil
}

// SessionID returns the current session ID, or "" before READY. Only
// meaningful from the goroutine calling Run (for example, a Handler).
func (c *Client) SessionID() string {
	return c.sessionID
}

// Run connects and delivers dispatches to handler until ctx is
// cancelled (returning nil) or the server closes with a fatal code
// (returning the close error).
func (c *Client) Run(ctx context.Context, handler Handler) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialBackoff
	policy.MaxInterval = c.maxBackoff

	for {
		established, err := c.runConnection(ctx, handler)
		if ctx.Err() != nil {
			return nil
		}
		if IsFatalClose(err) {
			return fmt.Errorf("gateway: fatal close: %w", err)
		}
		if established {
			policy.Reset()
		}

		var invalid *invalidSessionError
		if invalidatesSession(err) || (errors.As(err, &invalid) && !invalid.resumable) {
			c.resetSession()
		}

		if errors.Is(err, errReconnectRequested) {
			c.logger.Info("gateway reconnect requested")
			continue
		}

		delay := policy.NextBackOff()
		level := slog.LevelWarn
		if netutil.IsExpectedCloseError(err) {
			level = slog.LevelInfo
		}
		c.logger.Log(ctx, level, "gateway connection lost, reconnecting",
			"error", err,
			"backoff", delay,
			"resumable", c.canResume(),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-c.clock.After(delay):
		}
	}
}

func (c *Client) canResume() bool {
	return c.sessionID != "" && c.sequence.Load() > 0
}

func (c *Client) resetSession() {
	c.sessionID = ""
	c.resumeURL = ""
	c.sequence.Store(0)
}

// connectURL adds the version, encoding, and compression parameters to
// a gateway URL.
func connectURL(raw string, compress bool) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("gateway: invalid URL %q: %w", raw, err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return "", fmt.Errorf("gateway: URL %q must use ws or wss", raw)
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}
	query := parsed.Query()
	query.Set("v", fmt.Sprint(Version))
	query.Set("encoding", "json")
	if compress {
		query.Set("compress", "zlib-stream")
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
