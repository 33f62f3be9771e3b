// Package fbapi provides an HTTP client for a File Browser server with
// credential attachment, retry with backoff, and error classification.
package fbapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, fbapi.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("fbapi: bad request")
	ErrUnauthorized = errors.New("fbapi: unauthorized")
	ErrForbidden    = errors.New("fbapi: forbidden")
	ErrNotFound     = errors.New("fbapi: not found")
	ErrConflict     = errors.New("fbapi: conflict")
	ErrThrottled    = errors.New("fbapi: throttled")
	ErrServerError  = errors.New("fbapi: server error")
)

// APIError wraps a sentinel error with the HTTP status code and the response
// body for debugging.
type APIError struct {
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("fbapi: HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("fbapi: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for codes without a sentinel (including 2xx).
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
