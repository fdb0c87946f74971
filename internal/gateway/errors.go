package gateway

import (
	"errors"
	"fmt"
)

// Failure classes for backend calls. Every non-success outcome of a
// gateway call matches exactly one of these.
var (
	// ErrTimeout means the call exceeded the configured deadline.
	ErrTimeout = errors.New("request timeout")

	// ErrNetwork means no response reached the client at all.
	ErrNetwork = errors.New("network error, please check your connection")

	// ErrSessionExpired is raised for HTTP 401 on any call. Callers
	// must not retry; the session-expired signal has already fired.
	ErrSessionExpired = errors.New("session expired, please login again")
)

// HTTPError is a non-2xx, non-401 server response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
