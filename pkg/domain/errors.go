package domain

import "errors"

// Outcome errors describe why a turn ended in a spoken rejection.
// They are reported to turn hooks and never surface as transport errors.
var (
	// ErrMalformedInput is reported when gathered digits have the wrong count or format.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNotFound is reported when a lookup returns no payphones or no routes.
	ErrNotFound = errors.New("not found")

	// ErrOutOfRange is reported when a selection digit is outside the candidate list.
	ErrOutOfRange = errors.New("selection out of range")

	// ErrUnauthorized is reported when a caller enters the wrong passcode.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnknownCaller is reported when a caller is not in the message registry.
	ErrUnknownCaller = errors.New("unknown caller")
)
