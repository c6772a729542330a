// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/jeranaias/rigchat/internal/util"
)

// MaxErrorBodyRunes is how much of a non-200 body is kept on an APIError.
const MaxErrorBodyRunes = 200

// =============================================================================
// ERROR KINDS
// =============================================================================

// Kind classifies a failed completion request.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidCredential
	KindInsufficientCredits
	KindServerError
	KindTimeout
	KindConnectionFailed
)

// String returns the kind's identifier for logs.
func (k Kind) String() string {
	switch k {
	case KindInvalidCredential:
		return "invalid_credential"
	case KindInsufficientCredits:
		return "insufficient_credits"
	case KindServerError:
		return "server_error"
	case KindTimeout:
		return "timeout"
	case KindConnectionFailed:
		return "connection_failed"
	default:
		return "unknown"
	}
}

// Sentinels matched by APIError.Is on its kind.
var (
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrServerError         = errors.New("server error")
	ErrTimeout             = errors.New("request timed out")
	ErrConnectionFailed    = errors.New("connection failed")
	ErrUnknown             = errors.New("unknown error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidCredential:
		return ErrInvalidCredential
	case KindInsufficientCredits:
		return ErrInsufficientCredits
	case KindServerError:
		return ErrServerError
	case KindTimeout:
		return ErrTimeout
	case KindConnectionFailed:
		return ErrConnectionFailed
	default:
		return ErrUnknown
	}
}

// =============================================================================
// API ERROR
// =============================================================================

// APIError is returned by Complete for every failed request.
type APIError struct {
	Kind    Kind
	Status  int    // HTTP status, zero when no response was received
	Body    string // Response body, truncated to MaxErrorBodyRunes
	Message string // Detail for KindUnknown and transport failures
	Err     error  // Underlying cause, if any
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch e.Kind {
	case KindServerError:
		return fmt.Sprintf("OpenRouter error (HTTP %d): %s", e.Status, e.Body)
	case KindUnknown:
		if e.Message != "" {
			return e.Kind.sentinel().Error() + ": " + e.Message
		}
	}
	return e.Kind.sentinel().Error()
}

// Is reports whether target is the sentinel for e.Kind.
func (e *APIError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindUnknown when err is not an APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// statusError maps a non-200 response to an APIError.
func statusError(status int, body []byte) *APIError {
	switch status {
	case 401:
		return &APIError{Kind: KindInvalidCredential, Status: status}
	case 402:
		return &APIError{Kind: KindInsufficientCredits, Status: status}
	default:
		return &APIError{
			Kind:   KindServerError,
			Status: status,
			Body:   util.TruncateRunes(string(body), MaxErrorBodyRunes),
		}
	}
}

// transportError maps an error from http.Client.Do to an APIError.
func transportError(err error) *APIError {
	if isTimeout(err) {
		return &APIError{Kind: KindTimeout, Message: err.Error(), Err: err}
	}
	if isConnectionFailure(err) {
		return &APIError{Kind: KindConnectionFailed, Message: err.Error(), Err: err}
	}
	return unknownError(err.Error(), err)
}

func unknownError(msg string, err error) *APIError {
	return &APIError{Kind: KindUnknown, Message: msg, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionFailure(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr), errors.As(err, &opErr):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return false
}
