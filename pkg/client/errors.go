package client

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport wraps failures below HTTP: dialing, TLS, timeouts.
	ErrTransport = errors.New("client: transport failed")
	// ErrInvalidArgument reports a bad argument before any request is made.
	ErrInvalidArgument = errors.New("client: invalid argument")
	// ErrEmptyResponse is returned when a body was expected but none came.
	ErrEmptyResponse = errors.New("client: empty response")
	// ErrSettingsNotFound is returned when the settings body has no custom key.
	ErrSettingsNotFound = errors.New("client: custom settings not found")
	// ErrNoEvaluationResult is returned when an evaluation body has no result.
	ErrNoEvaluationResult = errors.New("client: wrong evaluation response")
	// ErrSchedulerDisabled is returned by task calls without a scheduler host.
	ErrSchedulerDisabled = errors.New("client: scheduler host not configured")
)

// RemoteError is a failure reported by the Profile Store.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("Server failed with status code %d: %q", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a RemoteError with status 404.
func IsNotFound(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote) && remote.StatusCode == 404
}
