package rstream

import "errors"

// ErrPoisoned is returned when accessing a stream
// whose state was abandoned by a panicking critical section.
// The stream's values may be inconsistent,
// so every later access to the same stream fails with this error.
var ErrPoisoned = errors.New("stream state poisoned by an abandoned critical section")

// NotClosedError is returned when attempting to encode a stream
// that has not reached [KindClosed].
type NotClosedError struct {
	Kind Kind
}

func (e *NotClosedError) Error() string {
	return "cannot encode " + e.Kind.String() + " stream; only closed streams are encodable"
}
