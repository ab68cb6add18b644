package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCategory classifies a failed API call for retry decisions
type ErrorCategory int

const (
	ErrorTransport     ErrorCategory = iota // Network failure, timeout, DNS
	ErrorAuthorization                      // Token rejected (401)
	ErrorRateLimit                          // Remote throttling (429)
	ErrorForbidden                          // Account suspended (403)
	ErrorRemote                             // Any other non-2xx response
	ErrorConfiguration                      // Malformed local configuration
)

// String returns a human-readable name for the category
func (c ErrorCategory) String() string {
	switch c {
	case ErrorTransport:
		return "transport"
	case ErrorAuthorization:
		return "authorization"
	case ErrorRateLimit:
		return "rate_limit"
	case ErrorForbidden:
		return "forbidden"
	case ErrorConfiguration:
		return "configuration"
	default:
		return "remote"
	}
}

// Error represents a failed API call with its classification
type Error struct {
	Category ErrorCategory
	Status   int // HTTP status code, 0 for transport failures
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api %s error (HTTP %d): %s", e.Category, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s error: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// classifyStatus maps an HTTP status code to an error category
func classifyStatus(status int) ErrorCategory {
	switch status {
	case http.StatusUnauthorized:
		return ErrorAuthorization
	case http.StatusForbidden:
		return ErrorForbidden
	case http.StatusTooManyRequests:
		return ErrorRateLimit
	default:
		return ErrorRemote
	}
}

// IsAuthorization reports whether err is an authorization failure (401)
func IsAuthorization(err error) bool {
	return hasCategory(err, ErrorAuthorization)
}

// IsRateLimited reports whether err is a rate limit response (429)
func IsRateLimited(err error) bool {
	return hasCategory(err, ErrorRateLimit)
}

// IsForbidden reports whether err is an account suspension (403)
func IsForbidden(err error) bool {
	return hasCategory(err, ErrorForbidden)
}

// IsTransport reports whether err is a network-level failure
func IsTransport(err error) bool {
	return hasCategory(err, ErrorTransport)
}

func hasCategory(err error, category ErrorCategory) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Category == category
	}
	return false
}
