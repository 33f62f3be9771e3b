package auth

import (
	"errors"
	"fmt"
)

// ErrNotLoggedIn is returned when an operation needs a credential and the
// session holds none.
var ErrNotLoggedIn = errors.New("auth: not logged in")

// AuthenticationError reports that the server rejected a login, signup or
// renewal. Message is the response body for login and renew, and the HTTP
// status text for signup.
type AuthenticationError struct {
	StatusCode int
	Message    string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("auth: server rejected request (HTTP %d): %s", e.StatusCode, e.Message)
}

// TokenDecodeError reports a credential that is not a structurally valid
// token or lacks the user claims.
type TokenDecodeError struct {
	Err error
}

func (e *TokenDecodeError) Error() string {
	return fmt.Sprintf("auth: decoding token: %v", e.Err)
}

func (e *TokenDecodeError) Unwrap() error {
	return e.Err
}
