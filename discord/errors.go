// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/duovoice/duovoice/directory"
)

// APIError is a non-2xx response from the Discord HTTP API. Callers can
// use errors.As to extract it:
//
//	var apiErr *APIError
//	if errors.As(err, &apiErr) && apiErr.Code == ErrCodeMissingPermissions { ... }
type APIError struct {
	// Code is the Discord JSON error code. Zero when the response carried
	// none (rate limits, proxies, non-JSON bodies).
	Code int
	// Message is the human-readable error description.
	Message string
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// RetryAfter is set on 429 responses.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("discord: %s (code %d, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("discord: %s (status %d)", e.Message, e.StatusCode)
}

// Is reports stale-reference responses as directory.ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == directory.ErrNotFound && e.stale()
}

func (e *APIError) stale() bool {
	switch e.Code {
	case ErrCodeUnknownChannel, ErrCodeUnknownMember, ErrCodeUnknownUser, ErrCodeTargetNotConnected:
		return true
	}
	return e.StatusCode == http.StatusNotFound
}

// Discord JSON error codes duovoice distinguishes.
const (
	ErrCodeUnknownChannel     = 10003
	ErrCodeUnknownGuild       = 10004
	ErrCodeUnknownMember      = 10007
	ErrCodeUnknownUser        = 10013
	ErrCodeTargetNotConnected = 40032
	ErrCodeMissingAccess      = 50001
	ErrCodeMissingPermissions = 50013
)

// IsAPIError checks whether err is an *APIError with the given code.
func IsAPIError(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// IsRateLimited reports whether err is a 429 response.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
