package apiclient

import (
	"errors"
	"fmt"
)

// DefaultNetworkMessage is used when a failure carries no better description.
const DefaultNetworkMessage = "Network error"

// SessionExpiredMessage is shown when the backend rejects the token.
const SessionExpiredMessage = "Authentication expired, please login again"

// NetworkError is a transport failure: dial error, timeout, non-2xx status or
// an unreadable body.
type NetworkError struct {
	Status  int
	Message string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the response status, or 0 when no response arrived.
func (e *NetworkError) HTTPStatusCode() int {
	return e.Status
}

// ApplicationError is a well-formed envelope whose code is not success.
type ApplicationError struct {
	Code    int
	Message string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

// AuthError is an HTTP 401. Credentials have already been cleared when it is returned.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// Outcome classifies err for metrics and logs.
func Outcome(err error) string {
	var (
		netErr  *NetworkError
		appErr  *ApplicationError
		authErr *AuthError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &appErr):
		return "application"
	case errors.As(err, &netErr):
		if netErr.Timeout {
			return "timeout"
		}
		return "network"
	default:
		return "error"
	}
}

// IsAuth reports whether err is an AuthError.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

func statusMessage(status int) string {
	return fmt.Sprintf("Request failed with status code %d", status)
}
