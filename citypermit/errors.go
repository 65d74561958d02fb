package citypermit

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid citypermit configuration")
	// ErrMissingToken indicates no session token is cached
	ErrMissingToken = errors.New("session token missing")
)

// AuthError indicates a failed login or a request that was still
// rejected with 401/403 after one re-authentication.
type AuthError struct {
	Message string
	Err     error
}

// Error implements the error interface
func (e *AuthError) Error() string {
	if e.Message == "" {
		return "citypermit: authentication failed"
	}
	return fmt.Sprintf("citypermit: authentication failed: %s", e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *AuthError) Unwrap() error {
	return e.Err
}

// RateLimitError indicates the service answered with HTTP 429.
// RetryAfter holds the Retry-After header in seconds, or nil when the
// header was absent or unparseable. The client never retries on its own;
// backing off is the caller's decision.
type RateLimitError struct {
	RetryAfter *int
}

// Error implements the error interface
func (e *RateLimitError) Error() string {
	if e.RetryAfter != nil {
		return fmt.Sprintf("citypermit: rate limit exceeded, retry after %ds", *e.RetryAfter)
	}
	return "citypermit: rate limit exceeded"
}

// ParseError indicates a response body that could not be decoded or
// a payload field that did not have the expected shape.
type ParseError struct {
	Message string
	Excerpt string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Excerpt != "" {
		return fmt.Sprintf("citypermit: %s: %q", e.Message, e.Excerpt)
	}
	return fmt.Sprintf("citypermit: %s", e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConnectionError indicates a network or timeout failure at the
// transport layer. The cause is preserved so context cancellation
// still matches through errors.Is.
type ConnectionError struct {
	Err error
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("citypermit: request failed: %v", e.Err)
}

// Unwrap returns the transport error
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// APIError represents any other non-2xx response from the service,
// passed through unreclassified.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("citypermit: API request failed with status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsServerError checks if the error indicates a 5xx response
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}
