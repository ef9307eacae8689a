package profiles

import "errors"

var (
	// ErrInvalidArgument reports a wrong type, shape or missing required input.
	ErrInvalidArgument = errors.New("profiles: invalid argument")
	// ErrInvalid reports an entity that failed IsValid while being admitted
	// into its container.
	ErrInvalid = errors.New("profiles: invalid")
	// ErrIDMismatch reports a merge between entities with different ids.
	ErrIDMismatch = errors.New("profiles: id mismatch")
	// ErrAlreadyExists reports an event id collision inside a session.
	ErrAlreadyExists = errors.New("profiles: already exists")
)
