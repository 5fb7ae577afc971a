// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/duovoice/duovoice/lib/netutil"
	"github.com/duovoice/duovoice/lib/ref"
	"github.com/duovoice/duovoice/lib/version"
)

// DefaultBaseURL is the versioned Discord HTTP API root.
const DefaultBaseURL = "https://discord.com/api/v10"

// DefaultRequestsPerSecond stays under Discord's global limit of 50
// requests per second per bot.
const DefaultRequestsPerSecond = 45

// SessionConfig holds configuration for creating a Session.
type SessionConfig struct {
	// Token is the bot token, sent as "Authorization: Bot <token>".
	Token string
	// BaseURL overrides DefaultBaseURL (tests point it at httptest).
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// RequestsPerSecond paces outgoing requests. Zero means
	// DefaultRequestsPerSecond; negative disables pacing.
	RequestsPerSecond float64
	// UserAgent overrides version.UserAgent().
	UserAgent string
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Session is an authenticated Discord HTTP API client. Safe for
// concurrent use.
type Session struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewSession creates a Session.
func NewSession(config SessionConfig) (*Session, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("discord: Token is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("discord: invalid BaseURL %q: %w", baseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	switch {
	case config.RequestsPerSecond == 0:
		limiter = rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultRequestsPerSecond)
	case config.RequestsPerSecond > 0:
		burst := int(math.Max(1, math.Floor(config.RequestsPerSecond)))
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      config.Token,
		userAgent:  userAgent,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}, nil
}

// CreateChannel creates a channel in a guild.
func (s *Session) CreateChannel(ctx context.Context, guildID ref.GuildID, request CreateChannelRequest) (*Channel, error) {
	if request.Name == "" {
		return nil, fmt.Errorf("discord: channel name is required")
	}
	path := "/guilds/" + url.PathEscape(guildID.String()) + "/channels"
	body, err := s.doRequest(ctx, http.MethodPost, path, request)
	if err != nil {
		return nil, fmt.Errorf("discord: creating channel %q in guild %s: %w", request.Name, guildID, err)
	}
	return decodeChannel(body)
}

// MoveMember moves a guild member who is connected to voice into
// another voice channel.
func (s *Session) MoveMember(ctx context.Context, guildID ref.GuildID, userID ref.UserID, channelID ref.ChannelID) error {
	path := "/guilds/" + url.PathEscape(guildID.String()) + "/members/" + url.PathEscape(userID.String())
	request := struct {
		ChannelID ref.ChannelID `json:"channel_id"`
	}{ChannelID: channelID}
	if _, err := s.doRequest(ctx, http.MethodPatch, path, request); err != nil {
		return fmt.Errorf("discord: moving user %s to channel %s: %w", userID, channelID, err)
	}
	return nil
}

// Channel fetches a channel by ID.
func (s *Session) Channel(ctx context.Context, channelID ref.ChannelID) (*Channel, error) {
	body, err := s.doRequest(ctx, http.MethodGet, "/channels/"+url.PathEscape(channelID.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("discord: fetching channel %s: %w", channelID, err)
	}
	return decodeChannel(body)
}

// GuildChannels lists every channel in a guild.
func (s *Session) GuildChannels(ctx context.Context, guildID ref.GuildID) ([]Channel, error) {
	body, err := s.doRequest(ctx, http.MethodGet, "/guilds/"+url.PathEscape(guildID.String())+"/channels", nil)
	if err != nil {
		return nil, fmt.Errorf("discord: listing channels of guild %s: %w", guildID, err)
	}
	var channels []Channel
	if err := json.Unmarshal(body, &channels); err != nil {
		return nil, fmt.Errorf("discord: failed to parse channel list: %w", err)
	}
	return channels, nil
}

// DeleteChannel deletes a channel.
func (s *Session) DeleteChannel(ctx context.Context, channelID ref.ChannelID) error {
	if _, err := s.doRequest(ctx, http.MethodDelete, "/channels/"+url.PathEscape(channelID.String()), nil); err != nil {
		return fmt.Errorf("discord: deleting channel %s: %w", channelID, err)
	}
	return nil
}

// GatewayBot returns the gateway URL and session start limits for this
// bot.
func (s *Session) GatewayBot(ctx context.Context) (*GatewayBotResponse, error) {
	body, err := s.doRequest(ctx, http.MethodGet, "/gateway/bot", nil)
	if err != nil {
		return nil, fmt.Errorf("discord: gateway discovery failed: %w", err)
	}
	var response GatewayBotResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("discord: failed to parse gateway response: %w", err)
	}
	return &response, nil
}

func decodeChannel(body []byte) (*Channel, error) {
	var channel Channel
	if err := json.Unmarshal(body, &channel); err != nil {
		return nil, fmt.Errorf("discord: failed to parse channel: %w", err)
	}
	return &channel, nil
}

// doRequest performs one paced, authenticated JSON request and returns
// the response body for 2xx responses or an *APIError otherwise.
func (s *Session) doRequest(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for request slot: %w", err)
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Authorization", "Bot "+s.token)
	request.Header.Set("User-Agent", s.userAgent)

	response, err := s.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	apiErr := &APIError{StatusCode: response.StatusCode}
	var decoded struct {
		Code       int     `json:"code"`
		Message    string  `json:"message"`
		RetryAfter float64 `json:"retry_after"`
		Global     bool    `json:"global"`
	}
	if jsonErr := json.Unmarshal(responseBody, &decoded); jsonErr != nil || decoded.Message == "" {
		apiErr.Message = strings.TrimSpace(string(responseBody))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(response.StatusCode)
		}
		return nil, apiErr
	}
	apiErr.Code = decoded.Code
	apiErr.Message = decoded.Message
	if response.StatusCode == http.StatusTooManyRequests {
		apiErr.RetryAfter = time.Duration(decoded.RetryAfter * float64(time.Second))
		s.logger.Warn("discord rate limit hit",
			"method", method,
			"path", path,
			"retry_after", apiErr.RetryAfter,
			"global", decoded.Global,
		)
	}
	return nil, apiErr
}
