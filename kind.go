package rstream

import "fmt"

// Kind identifies which of the three states a stream is in.
type Kind uint8

const (
	// KindOpenWritable streams accept appends through a [Writer].
	KindOpenWritable Kind = iota + 1

	// KindOpenLazy streams pull values from a [Producer] on demand.
	KindOpenLazy

	// KindClosed streams are immutable.
	KindClosed
)

func (k Kind) String() string {
	switch k {
	case KindOpenWritable:
		return "open-writable"
	case KindOpenLazy:
		return "open-lazy"
	case KindClosed:
		return "closed"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Status is the outcome of a single poll,
// either of a [Reader] or of a [Producer].
type Status uint8

const (
	// StatusReady means a value was delivered.
	StatusReady Status = iota + 1

	// StatusPending means no value is available yet.
	// The wake callback passed to the poll
	// will be called when polling again may make progress.
	StatusPending

	// StatusDone means the sequence has ended.
	// Polling again keeps reporting StatusDone.
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusPending:
		return "pending"
	case StatusDone:
		return "done"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}
